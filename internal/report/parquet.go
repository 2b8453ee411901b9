package report

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/salesframe/internal/table"
	"github.com/sirupsen/logrus"
)

// ParquetReporter writes one Parquet file per table
type ParquetReporter struct {
	dir         string
	compression compress.Compression
	batchSize   int
	mem         memory.Allocator
	log         logrus.FieldLogger
}

// parseCompression maps a codec name to its Parquet compression
func parseCompression(name string) (compress.Compression, error) {
	switch name {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "uncompressed", "none":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unsupported parquet compression: %q", name)
	}
}

// Write writes dir/<name>.parquet for every table
func (r *ParquetReporter) Write(ctx context.Context, tables []table.Named) error {
	return writeFiles(ctx, r.dir, "parquet", tables, r.log, r.writeTable)
}

func (r *ParquetReporter) writeTable(w io.Writer, t *table.Table) error {
	rec := t.Record()
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(r.compression),
		parquet.WithBatchSize(int64(r.batchSize)),
		parquet.WithAllocator(r.mem),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(r.mem),
		pqarrow.WithStoreSchema(),
	)

	writer, err := pqarrow.NewFileWriter(rec.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	return writer.Close()
}
