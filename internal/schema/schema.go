// Package schema names the columns of raw and cleansed sales tables.
package schema

import (
	"strings"
	"unicode"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/salesframe/internal/series"
)

// Column names after header normalization
const (
	OrderID         = "Order_ID"
	Product         = "Product"
	QuantityOrdered = "Quantity_Ordered"
	PriceEach       = "Price_Each"
	OrderDate       = "Order_Date"
	PurchaseAddress = "Purchase_Address"

	// Source is added by the loader and holds the label of the originating file.
	Source = "Source"

	// OrderDay is OrderDate truncated to the calendar date.
	OrderDay = "Order_Day"
	// Sales is the derived Quantity_Ordered * Price_Each.
	Sales = "sales"
)

// Required lists the raw columns every source must provide.
var Required = []string{OrderID, Product, QuantityOrdered, PriceEach, OrderDate, PurchaseAddress}

// RawSchema is the Arrow schema of the required raw columns. Raw cells are
// text and may be null.
var RawSchema = arrow.NewSchema([]arrow.Field{
	{Name: OrderID, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: Product, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: QuantityOrdered, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: PriceEach, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: OrderDate, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: PurchaseAddress, Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

// Cleansed lists the columns of a cleansed sales table, in order.
var Cleansed = []string{OrderID, Product, QuantityOrdered, PriceEach, OrderDate, OrderDay, PurchaseAddress, Sales}

// CleansedSchema is the Arrow schema of a cleansed sales table.
var CleansedSchema = arrow.NewSchema([]arrow.Field{
	{Name: OrderID, Type: arrow.BinaryTypes.String},
	{Name: Product, Type: arrow.BinaryTypes.String},
	{Name: QuantityOrdered, Type: arrow.PrimitiveTypes.Int64},
	{Name: PriceEach, Type: arrow.PrimitiveTypes.Float64},
	{Name: OrderDate, Type: series.TimestampType},
	{Name: OrderDay, Type: arrow.FixedWidthTypes.Date32},
	{Name: PurchaseAddress, Type: arrow.BinaryTypes.String},
	{Name: Sales, Type: arrow.PrimitiveTypes.Float64},
}, nil)

// NormalizeColumnName trims a header and replaces each run of whitespace
// with a single underscore: "Order  ID" becomes "Order_ID".
func NormalizeColumnName(name string) string {
	return strings.Join(strings.FieldsFunc(name, unicode.IsSpace), "_")
}
