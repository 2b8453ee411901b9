// Package loader reads the monthly sales extracts into one raw table.
//
// Every cell is kept as a string (null when empty) and header names are
// normalized; parsing and validation happen later in the cleanse stage.
// Sources are unioned by column name in the order they are configured.
package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/salesframe/internal/config"
	"github.com/paveg/salesframe/internal/errors"
	"github.com/paveg/salesframe/internal/schema"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
	"github.com/sirupsen/logrus"
)

const opLoad = "Load"

// Loader reads configured sources
type Loader struct {
	cfg  *config.Config
	mem  memory.Allocator
	log  logrus.FieldLogger
	open func(path string) (io.ReadCloser, error)
}

// Option customizes a Loader
type Option func(*Loader)

// WithFS reads sources from fsys instead of the local file system.
// Paths are resolved against the storage root first.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) {
		l.open = func(path string) (io.ReadCloser, error) {
			return fsys.Open(path)
		}
	}
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Loader) {
		l.log = log
	}
}

// New creates a loader for cfg. cfg must not be modified afterwards.
func New(cfg *config.Config, mem memory.Allocator, opts ...Option) *Loader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	l := &Loader{
		cfg: cfg,
		mem: mem,
		log: logrus.StandardLogger(),
		open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every configured source and unions them into one table with
// normalized column names plus a Source column.
func (l *Loader) Load(ctx context.Context) (*table.Table, error) {
	parts := make([]*table.Table, 0, len(l.cfg.Sources))
	defer func() {
		for _, p := range parts {
			p.Release()
		}
	}()

	for _, src := range l.cfg.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, err := l.LoadSource(src)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	if len(parts) == 1 {
		return parts[0].Select(parts[0].Columns()...)
	}

	aligned := make([]*table.Table, 0, len(parts)-1)
	defer func() {
		for _, a := range aligned {
			a.Release()
		}
	}()
	order := parts[0].Columns()
	for i, p := range parts[1:] {
		a, err := p.Select(order...)
		if err != nil {
			return nil, fmt.Errorf("aligning source %q with %q: %w",
				l.cfg.Sources[i+1].Label, l.cfg.Sources[0].Label, err)
		}
		aligned = append(aligned, a)
	}

	union, err := parts[0].Concat(l.mem, aligned...)
	if err != nil {
		return nil, fmt.Errorf("union of sources: %w", err)
	}
	l.log.WithFields(logrus.Fields{"sources": len(parts), "rows": union.Len()}).Info("sources loaded")
	return union, nil
}

// LoadSource reads one source, keeping only the required columns and adding
// the Source label column.
func (l *Loader) LoadSource(src config.SourceConfig) (*table.Table, error) {
	path := l.cfg.SourcePath(src)

	f, err := l.open(path)
	if err != nil {
		return nil, errors.NewSourceError(opLoad, src.Label, err)
	}
	defer f.Close()

	opts := DefaultCSVOptions()
	opts.Delimiter = l.cfg.DelimiterRune()

	raw, err := ReadCSV(f, opts, l.mem)
	if err != nil {
		return nil, errors.NewSourceError(opLoad, src.Label, fmt.Errorf("%s: %w", path, err))
	}
	defer raw.Release()

	normalized := raw.Rename(schema.NormalizeColumnName)
	defer normalized.Release()

	if normalized.Width() != raw.Width() {
		return nil, errors.NewSourceError(opLoad, src.Label,
			fmt.Errorf("%s: headers collide after normalization: %v", path, raw.Columns()))
	}

	selected, err := normalized.Select(schema.Required...)
	if err != nil {
		return nil, errors.NewSourceError(opLoad, src.Label, fmt.Errorf("%s: %w", path, err))
	}
	defer selected.Release()

	labels := make([]string, selected.Len())
	for i := range labels {
		labels[i] = src.Label
	}

	cols := make([]series.Column, 0, selected.Width()+1)
	for _, name := range selected.Columns() {
		c, _ := selected.Column(name)
		cols = append(cols, c.Rename(name))
	}
	cols = append(cols, series.New(schema.Source, labels, l.mem))

	l.log.WithFields(logrus.Fields{
		"source": src.Label,
		"path":   path,
		"rows":   selected.Len(),
	}).Debug("source read")

	return table.New(cols...), nil
}
