// Package table provides an ordered collection of Arrow-backed columns.
//
// A Table owns one reference to each of its columns. Operations that derive
// a new Table (Select, Rename, Take, Concat) retain or copy what they need,
// so every Table must be released independently.
package table

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/salesframe/internal/errors"
	"github.com/paveg/salesframe/internal/series"
)

// Table represents rows of data with typed, named columns
type Table struct {
	columns map[string]series.Column
	order   []string // Maintains column order
}

// Named pairs a table with the name it is reported under.
type Named struct {
	Name  string
	Table *Table
}

// New creates a new Table from columns. The table takes ownership of them.
func New(cols ...series.Column) *Table {
	columns := make(map[string]series.Column, len(cols))
	order := make([]string, 0, len(cols))

	for _, c := range cols {
		name := c.Name()
		if prev, exists := columns[name]; exists {
			prev.Release()
		} else {
			order = append(order, name)
		}
		columns[name] = c
	}

	return &Table{
		columns: columns,
		order:   order,
	}
}

// FromArrays builds a table from parallel name and array slices, retaining each array.
func FromArrays(names []string, arrs []arrow.Array) (*Table, error) {
	if len(names) != len(arrs) {
		return nil, errors.NewInvalidInputError("FromArrays",
			fmt.Sprintf("%d names for %d arrays", len(names), len(arrs)))
	}
	cols := make([]series.Column, 0, len(arrs))
	for i, arr := range arrs {
		c, err := series.FromArray(names[i], arr)
		if err != nil {
			for _, done := range cols {
				done.Release()
			}
			return nil, fmt.Errorf("column %s: %w", names[i], err)
		}
		cols = append(cols, c)
	}
	t := New(cols...)
	if err := t.Validate(); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// Validate checks that all columns share one length.
func (t *Table) Validate() error {
	if len(t.order) == 0 {
		return nil
	}
	want := t.columns[t.order[0]].Len()
	for _, name := range t.order[1:] {
		if got := t.columns[name].Len(); got != want {
			return &errors.PipelineError{
				Op:      "validation",
				Column:  name,
				Message: fmt.Sprintf("%s: expected length %d, got %d", errors.ErrMismatchedLength.Message, want, got),
			}
		}
	}
	return nil
}

// Columns returns the names of all columns in order
func (t *Table) Columns() []string {
	return append([]string{}, t.order...)
}

// Len returns the number of rows
func (t *Table) Len() int {
	if len(t.order) == 0 {
		return 0
	}
	return t.columns[t.order[0]].Len()
}

// Width returns the number of columns
func (t *Table) Width() int {
	return len(t.order)
}

// Column returns the column with the given name
func (t *Table) Column(name string) (series.Column, bool) {
	c, exists := t.columns[name]
	return c, exists
}

// HasColumn checks if a column exists
func (t *Table) HasColumn(name string) bool {
	_, exists := t.columns[name]
	return exists
}

// Array returns the retained Arrow array of a column.
func (t *Table) Array(name string) (arrow.Array, error) {
	c, exists := t.columns[name]
	if !exists {
		return nil, errors.NewColumnNotFoundError("Array", name)
	}
	return c.Array(), nil
}

// Select returns a new Table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]series.Column, 0, len(names))
	for _, name := range names {
		c, exists := t.columns[name]
		if !exists {
			for _, done := range cols {
				done.Release()
			}
			return nil, errors.NewColumnNotFoundError("Select", name)
		}
		cols = append(cols, c.Rename(name))
	}
	return New(cols...), nil
}

// Rename returns a new Table whose column names are mapped through fn.
func (t *Table) Rename(fn func(string) string) *Table {
	cols := make([]series.Column, 0, len(t.order))
	for _, name := range t.order {
		cols = append(cols, t.columns[name].Rename(fn(name)))
	}
	return New(cols...)
}

// Concat appends the rows of others below t. All tables must have the same
// column names and types in the same order.
func (t *Table) Concat(mem memory.Allocator, others ...*Table) (*Table, error) {
	for _, other := range others {
		if err := t.sameSchema(other); err != nil {
			return nil, err
		}
	}

	cols := make([]series.Column, 0, len(t.order))
	release := func() {
		for _, c := range cols {
			c.Release()
		}
	}

	for _, name := range t.order {
		parts := make([]arrow.Array, 0, len(others)+1)
		parts = append(parts, t.columns[name].Array())
		for _, other := range others {
			parts = append(parts, other.columns[name].Array())
		}

		merged, err := array.Concatenate(parts, mem)
		for _, p := range parts {
			p.Release()
		}
		if err != nil {
			release()
			return nil, errors.NewInternalError("Concat", err)
		}

		c, err := series.FromArray(name, merged)
		merged.Release()
		if err != nil {
			release()
			return nil, err
		}
		cols = append(cols, c)
	}

	return New(cols...), nil
}

func (t *Table) sameSchema(other *Table) error {
	if len(t.order) != len(other.order) {
		return errors.NewInvalidInputError("Concat",
			fmt.Sprintf("column count mismatch: %d vs %d", len(t.order), len(other.order)))
	}
	for i, name := range t.order {
		if other.order[i] != name {
			return errors.NewInvalidInputError("Concat",
				fmt.Sprintf("column %d is %q, expected %q", i, other.order[i], name))
		}
		if !arrow.TypeEqual(t.columns[name].DataType(), other.columns[name].DataType()) {
			return &errors.PipelineError{Op: "Concat", Column: name, Message: "column type mismatch"}
		}
	}
	return nil
}

// WithColumn returns a new Table with c appended, or replacing the column
// of the same name. The receiver is left intact; the new Table takes
// ownership of c unless an error is returned.
func (t *Table) WithColumn(c series.Column) (*Table, error) {
	if len(t.order) > 0 && c.Len() != t.Len() {
		return nil, &errors.PipelineError{
			Op:      "WithColumn",
			Column:  c.Name(),
			Message: fmt.Sprintf("length %d does not match table length %d", c.Len(), t.Len()),
		}
	}
	cols := make([]series.Column, 0, len(t.order)+1)
	for _, name := range t.order {
		if name == c.Name() {
			continue
		}
		arr := t.columns[name].Array()
		kept, err := series.FromArray(name, arr)
		arr.Release()
		if err != nil {
			for _, done := range cols {
				done.Release()
			}
			return nil, err
		}
		cols = append(cols, kept)
	}
	return New(append(cols, c)...), nil
}

// Take gathers the rows at indices, in that order, into a new Table.
func (t *Table) Take(indices []int, mem memory.Allocator) (*Table, error) {
	cols := make([]series.Column, 0, len(t.order))
	for _, name := range t.order {
		arr := t.columns[name].Array()
		taken, err := takeArray(arr, indices, mem)
		arr.Release()
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, &errors.PipelineError{Op: "Take", Column: name, Message: "gathering rows", Cause: err}
		}
		c, err := series.FromArray(name, taken)
		taken.Release()
		if err != nil {
			for _, done := range cols {
				done.Release()
			}
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(cols...), nil
}

// Schema returns the Arrow schema of the table.
func (t *Table) Schema() *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.order))
	for _, name := range t.order {
		c := t.columns[name]
		fields = append(fields, arrow.Field{Name: name, Type: c.DataType(), Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

// Record returns the table as a single Arrow record. The caller releases it.
func (t *Table) Record() arrow.Record {
	arrs := make([]arrow.Array, 0, len(t.order))
	for _, name := range t.order {
		arrs = append(arrs, t.columns[name].Array())
	}
	rec := array.NewRecord(t.Schema(), arrs, int64(t.Len()))
	for _, a := range arrs {
		a.Release()
	}
	return rec
}

// Row returns the values of row i rendered as strings.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.order))
	for j, name := range t.order {
		row[j] = t.columns[name].GetAsString(i)
	}
	return row
}

// String returns a string representation of the Table
func (t *Table) String() string {
	if len(t.order) == 0 {
		return "Table[empty]"
	}

	parts := []string{fmt.Sprintf("Table[%dx%d]", t.Len(), t.Width())}
	for _, name := range t.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, t.columns[name].DataType().String()))
	}
	return strings.Join(parts, "\n")
}

// Release releases all columns
func (t *Table) Release() {
	for _, c := range t.columns {
		c.Release()
	}
}
