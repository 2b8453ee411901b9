package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/paveg/salesframe/internal/table"
	"github.com/sirupsen/logrus"
)

// CSVReporter writes one CSV file per table
type CSVReporter struct {
	dir       string
	delimiter rune
	log       logrus.FieldLogger
}

// Write writes dir/<name>.csv for every table
func (r *CSVReporter) Write(ctx context.Context, tables []table.Named) error {
	return writeFiles(ctx, r.dir, "csv", tables, r.log, r.writeTable)
}

// writeTable writes a header row followed by the rendered rows
func (r *CSVReporter) writeTable(w io.Writer, t *table.Table) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = r.delimiter

	if err := csvWriter.Write(t.Columns()); err != nil {
		return fmt.Errorf("writing headers: %w", err)
	}
	for i := range t.Len() {
		if err := csvWriter.Write(t.Row(i)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
