package report

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	json "github.com/goccy/go-json"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
	"github.com/sirupsen/logrus"
)

// JSONReporter writes one JSON file per table holding an array of records
type JSONReporter struct {
	dir string
	log logrus.FieldLogger
}

// Write writes dir/<name>.json for every table
func (r *JSONReporter) Write(ctx context.Context, tables []table.Named) error {
	return writeFiles(ctx, r.dir, "json", tables, r.log, r.writeTable)
}

func (r *JSONReporter) writeTable(w io.Writer, t *table.Table) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(tableToRecords(t))
}

// tableToRecords converts a table into one map per row. Numbers and
// booleans keep their JSON types; dates and timestamps are rendered text.
func tableToRecords(t *table.Table) []map[string]any {
	cols := t.Columns()
	arrs := make([]arrow.Array, len(cols))
	for j, name := range cols {
		arrs[j], _ = t.Array(name)
	}
	defer func() {
		for _, a := range arrs {
			a.Release()
		}
	}()

	records := make([]map[string]any, t.Len())
	for i := range records {
		rec := make(map[string]any, len(cols))
		for j, name := range cols {
			rec[name] = typedValue(arrs[j], i)
		}
		records[i] = rec
	}
	return records
}

// typedValue returns slot i as a JSON/XLSX cell value, or nil for a null slot.
func typedValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch typed := arr.(type) {
	case *array.Int64:
		return typed.Value(i)
	case *array.Float64:
		return typed.Value(i)
	case *array.Boolean:
		return typed.Value(i)
	default:
		return series.FormatValue(arr, i)
	}
}
