package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
)

// ErrNoHeader is returned for input that has no header row at all
var ErrNoHeader = errors.New("empty file: no header row")

// CSVOptions contains configuration options for CSV reading
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header indicates whether the first row contains headers
	Header bool
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter: ',',
		Comment:   0,
		Header:    true,
	}
}

// ReadCSV reads delimited data into a table of string columns. Cells that
// are empty after trimming whitespace become nulls. Rows shorter than the
// header are padded with nulls; extra trailing fields are ignored.
func ReadCSV(r io.Reader, options CSVOptions, mem memory.Allocator) (*table.Table, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = options.Delimiter
	csvReader.Comment = options.Comment
	csvReader.FieldsPerRecord = -1
	csvReader.ReuseRecord = true

	var headers []string
	var columns [][]string
	var valid [][]bool

	line := 0
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line++

		if headers == nil {
			headers = make([]string, len(record))
			if options.Header {
				copy(headers, record)
			} else {
				for i := range headers {
					headers[i] = fmt.Sprintf("column_%d", i)
				}
			}
			columns = make([][]string, len(headers))
			valid = make([][]bool, len(headers))
			if options.Header {
				continue
			}
		}

		for i := range headers {
			var cell string
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			columns[i] = append(columns[i], cell)
			valid[i] = append(valid[i], cell != "")
		}
	}

	if headers == nil {
		return nil, ErrNoHeader
	}

	cols := make([]series.Column, 0, len(headers))
	for i, header := range headers {
		cols = append(cols, series.NewNullable(header, columns[i], valid[i], mem))
	}

	t := table.New(cols...)
	if t.Width() != len(headers) {
		t.Release()
		return nil, fmt.Errorf("reading CSV: duplicate column names in header %v", headers)
	}
	return t, nil
}
