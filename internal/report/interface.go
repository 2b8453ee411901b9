// Package report renders the named result tables of a pipeline run.
//
// Key components:
//   - Reporter interface shared by every output format
//   - TextReporter for aligned plain-text tables on a terminal
//   - CSVReporter, JSONReporter and ParquetReporter writing one file per table
//   - XLSXReporter writing one workbook with a sheet per table
//
// Memory management: reporters only read result tables. Callers keep
// ownership and release them after Write returns.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/salesframe/internal/config"
	"github.com/paveg/salesframe/internal/table"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBatchSize is the Parquet row-group batch size
	DefaultBatchSize = 1024
	// WorkbookName is the file name of the XLSX report
	WorkbookName = "salesframe.xlsx"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Reporter writes named result tables to an output sink
type Reporter interface {
	// Write renders tables in the given order
	Write(ctx context.Context, tables []table.Named) error
}

type options struct {
	mem memory.Allocator
	log logrus.FieldLogger
}

// Option customizes reporters built by New
type Option func(*options)

// WithAllocator sets the allocator used for intermediate Arrow data
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) { o.mem = mem }
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// New returns the reporter selected by cfg.Format. Text output goes to out;
// every other format writes files below cfg.Dir.
func New(cfg config.OutputConfig, out io.Writer, opts ...Option) (Reporter, error) {
	o := options{
		mem: memory.NewGoAllocator(),
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Format {
	case "", config.FormatText:
		return NewTextReporter(out, cfg.MaxRows), nil
	case config.FormatCSV:
		return &CSVReporter{dir: cfg.Dir, delimiter: ',', log: o.log}, nil
	case config.FormatJSON:
		return &JSONReporter{dir: cfg.Dir, log: o.log}, nil
	case config.FormatParquet:
		codec, err := parseCompression(cfg.Compression)
		if err != nil {
			return nil, err
		}
		return &ParquetReporter{
			dir:         cfg.Dir,
			compression: codec,
			batchSize:   DefaultBatchSize,
			mem:         o.mem,
			log:         o.log,
		}, nil
	case config.FormatXLSX:
		return &XLSXReporter{path: filepath.Join(cfg.Dir, WorkbookName), log: o.log}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q", cfg.Format)
	}
}

// createFile opens dir/name.ext for writing, creating dir as needed.
func createFile(dir, name, ext string) (*os.File, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, name+"."+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}

// writeFiles renders each table into its own file through write. write
// sees a plain io.Writer; closing the file stays with writeFiles.
func writeFiles(
	ctx context.Context,
	dir, ext string,
	tables []table.Named,
	log logrus.FieldLogger,
	write func(w io.Writer, t *table.Table) error,
) error {
	for _, nt := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := createFile(dir, nt.Name, ext)
		if err != nil {
			return err
		}
		if err := write(struct{ io.Writer }{f}, nt.Table); err != nil {
			_ = f.Close()
			return fmt.Errorf("writing %s: %w", nt.Name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", f.Name(), err)
		}
		log.WithFields(logrus.Fields{"table": nt.Name, "rows": nt.Table.Len(), "file": f.Name()}).Debug("table written")
	}
	return nil
}
