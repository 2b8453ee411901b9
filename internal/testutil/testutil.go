// Package testutil provides fixtures shared by the salesframe package tests:
// raw string tables shaped like the monthly extracts, and cleansed tables
// built directly from typed sale values.
package testutil

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/salesframe/internal/schema"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
	"github.com/stretchr/testify/require"
)

// Sale is one typed sales record for building cleansed fixtures.
type Sale struct {
	OrderID string
	Product string
	Qty     int64
	Price   float64
	At      time.Time
	Address string
}

// At parses "2006-01-02 15:04" in UTC and panics on malformed input.
func At(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Day parses "2006-01-02" into an Arrow date.
func Day(s string) arrow.Date32 {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return arrow.Date32FromTime(t)
}

// SetupMemory returns a checked allocator that asserts no leaks at test end.
func SetupMemory(t *testing.T) *memory.CheckedAllocator {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	t.Cleanup(func() { mem.AssertSize(t, 0) })
	return mem
}

// CleansedTable builds a table with the cleansed schema from sales.
func CleansedTable(mem memory.Allocator, sales []Sale) *table.Table {
	n := len(sales)
	ids := make([]string, n)
	products := make([]string, n)
	qty := make([]int64, n)
	price := make([]float64, n)
	at := make([]time.Time, n)
	day := make([]arrow.Date32, n)
	addr := make([]string, n)
	amount := make([]float64, n)

	for i, s := range sales {
		ids[i] = s.OrderID
		products[i] = s.Product
		qty[i] = s.Qty
		price[i] = s.Price
		at[i] = s.At
		day[i] = arrow.Date32FromTime(s.At)
		addr[i] = s.Address
		amount[i] = float64(s.Qty) * s.Price
	}

	return table.New(
		series.New(schema.OrderID, ids, mem),
		series.New(schema.Product, products, mem),
		series.New(schema.QuantityOrdered, qty, mem),
		series.New(schema.PriceEach, price, mem),
		series.New(schema.OrderDate, at, mem),
		series.New(schema.OrderDay, day, mem),
		series.New(schema.PurchaseAddress, addr, mem),
		series.New(schema.Sales, amount, mem),
	)
}

// RawTable builds a raw string table with the given headers. Empty cells
// become nulls, as the loader produces them.
func RawTable(mem memory.Allocator, headers []string, rows [][]string) *table.Table {
	cols := make([]series.Column, len(headers))
	for j, h := range headers {
		values := make([]string, len(rows))
		valid := make([]bool, len(rows))
		for i, row := range rows {
			if j < len(row) {
				values[i] = row[j]
			}
			valid[i] = values[i] != ""
		}
		cols[j] = series.NewNullable(h, values, valid, mem)
	}
	return table.New(cols...)
}

// Strings returns the rendered values of one column.
func Strings(t *testing.T, tbl *table.Table, column string) []string {
	t.Helper()
	col, ok := tbl.Column(column)
	require.True(t, ok, "column %s missing", column)
	out := make([]string, col.Len())
	for i := range out {
		out[i] = col.GetAsString(i)
	}
	return out
}

// Float64s returns the values of a float64 column.
func Float64s(t *testing.T, tbl *table.Table, column string) []float64 {
	t.Helper()
	col, ok := tbl.Column(column)
	require.True(t, ok, "column %s missing", column)
	typed, ok := col.(*series.Series[float64])
	require.True(t, ok, "column %s is %s", column, col.DataType())
	return typed.Values()
}

// Int64s returns the values of an int64 column.
func Int64s(t *testing.T, tbl *table.Table, column string) []int64 {
	t.Helper()
	col, ok := tbl.Column(column)
	require.True(t, ok, "column %s missing", column)
	typed, ok := col.(*series.Series[int64])
	require.True(t, ok, "column %s is %s", column, col.DataType())
	return typed.Values()
}
