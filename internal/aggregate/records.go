package aggregate

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/salesframe/internal/schema"
	"github.com/paveg/salesframe/internal/table"
	"github.com/paveg/salesframe/internal/validation"
)

const opRecords = "Records"

// Records is a read-only, typed view of a cleansed sales table. All
// aggregations read from the same Records concurrently.
type Records struct {
	table *table.Table

	orderID *array.String
	product *array.String
	qty     *array.Int64
	price   *array.Float64
	at      *array.Timestamp
	day     *array.Date32
	address *array.String
	sales   *array.Float64

	arrs []arrow.Array
}

// NewRecords checks that t has the cleansed schema and wraps it. The caller
// keeps ownership of t; Records holds its own references until Release.
func NewRecords(t *table.Table) (*Records, error) {
	if err := validation.ValidateSchema(t, opRecords, schema.CleansedSchema, false); err != nil {
		return nil, err
	}
	sel, err := t.Select(schema.Cleansed...)
	if err != nil {
		return nil, err
	}

	r := &Records{table: sel}
	for _, name := range schema.Cleansed {
		arr, _ := sel.Array(name)
		r.arrs = append(r.arrs, arr)
	}

	r.orderID = r.arrs[0].(*array.String)
	r.product = r.arrs[1].(*array.String)
	r.qty = r.arrs[2].(*array.Int64)
	r.price = r.arrs[3].(*array.Float64)
	r.at = r.arrs[4].(*array.Timestamp)
	r.day = r.arrs[5].(*array.Date32)
	r.address = r.arrs[6].(*array.String)
	r.sales = r.arrs[7].(*array.Float64)
	return r, nil
}

// Len returns the number of records
func (r *Records) Len() int {
	return r.table.Len()
}

// Table returns the underlying cleansed table (not retained)
func (r *Records) Table() *table.Table {
	return r.table
}

// Release drops the references held by r
func (r *Records) Release() {
	for _, a := range r.arrs {
		a.Release()
	}
	r.arrs = nil
	r.table.Release()
}
