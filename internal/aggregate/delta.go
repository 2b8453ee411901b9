package aggregate

import (
	"fmt"
	"slices"

	"github.com/paveg/salesframe/internal/schema"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
)

// deltaColumns are the cleansed columns carried into the sales delta table.
var deltaColumns = []string{
	schema.OrderID,
	schema.Product,
	schema.QuantityOrdered,
	schema.PriceEach,
	schema.OrderDate,
	schema.PurchaseAddress,
	schema.Sales,
}

// SalesDelta returns every record with a salesdiff column holding its sales
// minus the sales of the next record of the same product, where records of a
// product are ordered newest first (then by order id, then input position).
// The last record of each product is compared against zero.
//
// The table is ordered by order date descending, then product, then the
// same within-product order.
func (e *Engine) SalesDelta(r *Records) (*table.Table, error) {
	n := r.Len()

	// within-product order, shared by both sorts below
	newerFirst := func(a, b int) int {
		if c := compare(r.at.Value(b), r.at.Value(a)); c != 0 {
			return c
		}
		if c := compare(r.orderID.Value(a), r.orderID.Value(b)); c != 0 {
			return c
		}
		return compare(a, b)
	}

	partitioned := make([]int, n)
	for i := range partitioned {
		partitioned[i] = i
	}
	slices.SortFunc(partitioned, func(a, b int) int {
		if c := compare(r.product.Value(a), r.product.Value(b)); c != 0 {
			return c
		}
		return newerFirst(a, b)
	})

	diff := make([]float64, n)
	for k, row := range partitioned {
		lead := 0.0
		if k+1 < n {
			if next := partitioned[k+1]; r.product.Value(next) == r.product.Value(row) {
				lead = r.sales.Value(next)
			}
		}
		diff[row] = r.sales.Value(row) - lead
	}

	output := slices.Clone(partitioned)
	slices.SortFunc(output, func(a, b int) int {
		if c := compare(r.at.Value(b), r.at.Value(a)); c != 0 {
			return c
		}
		if c := compare(r.product.Value(a), r.product.Value(b)); c != 0 {
			return c
		}
		return newerFirst(a, b)
	})

	ordered := make([]float64, n)
	for k, row := range output {
		ordered[k] = diff[row]
	}

	sel, err := r.table.Select(deltaColumns...)
	if err != nil {
		return nil, err
	}
	defer sel.Release()

	taken, err := sel.Take(output, e.mem)
	if err != nil {
		return nil, fmt.Errorf("ordering sales delta: %w", err)
	}
	defer taken.Release()

	diffCol := series.New(ColSalesDiff, ordered, e.mem)
	out, err := taken.WithColumn(diffCol)
	if err != nil {
		diffCol.Release()
		return nil, err
	}
	return out, nil
}
