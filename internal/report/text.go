package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/paveg/salesframe/internal/table"
)

// TextReporter prints tables as aligned plain text
type TextReporter struct {
	out     io.Writer
	maxRows int
}

// NewTextReporter creates a text reporter printing at most maxRows rows per
// table. maxRows <= 0 prints every row.
func NewTextReporter(out io.Writer, maxRows int) *TextReporter {
	return &TextReporter{out: out, maxRows: maxRows}
}

// Write prints each table under its name
func (r *TextReporter) Write(ctx context.Context, tables []table.Named) error {
	for i, nt := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			if _, err := fmt.Fprintln(r.out); err != nil {
				return err
			}
		}
		if err := r.writeTable(nt); err != nil {
			return fmt.Errorf("writing %s: %w", nt.Name, err)
		}
	}
	return nil
}

func (r *TextReporter) writeTable(nt table.Named) error {
	n := nt.Table.Len()
	shown := n
	if r.maxRows > 0 && shown > r.maxRows {
		shown = r.maxRows
	}

	if _, err := fmt.Fprintf(r.out, "== %s (%d rows) ==\n", nt.Name, n); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	cols := nt.Table.Columns()
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	rule := make([]string, len(cols))
	for j, c := range cols {
		rule[j] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(tw, strings.Join(rule, "\t"))
	for i := range shown {
		fmt.Fprintln(tw, strings.Join(nt.Table.Row(i), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if shown < n {
		_, err := fmt.Fprintf(r.out, "... %d more rows\n", n-shown)
		return err
	}
	return nil
}
