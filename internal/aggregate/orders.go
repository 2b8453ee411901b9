package aggregate

import (
	"github.com/paveg/salesframe/internal/schema"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
	"github.com/paveg/salesframe/internal/validation"
)

// TopOrder returns the (Order_ID, Purchase_Address) group with the highest
// summed sales. Ties resolve to the smallest order id, then the smallest
// address.
func (e *Engine) TopOrder(r *Records) (*table.Table, error) {
	n := r.Len()
	if err := validation.ValidateNotEmpty(r.table, "TopOrder"); err != nil {
		return nil, err
	}

	g := newGrouper(n)
	var ids, addrs []string
	var totals []float64
	for i := range n {
		id, addr := r.orderID.Value(i), r.address.Value(i)
		gid := g.id(compositeKey(id, addr))
		if gid == len(totals) {
			ids = append(ids, id)
			addrs = append(addrs, addr)
			totals = append(totals, 0)
		}
		totals[gid] += r.sales.Value(i)
	}

	best := argMax(len(totals),
		func(i int) float64 { return totals[i] },
		func(i, j int) bool {
			if ids[i] != ids[j] {
				return ids[i] < ids[j]
			}
			return addrs[i] < addrs[j]
		},
	)

	return table.New(
		series.New(schema.OrderID, ids[best:best+1], e.mem),
		series.New(schema.PurchaseAddress, addrs[best:best+1], e.mem),
		series.New(ColTotalSales, totals[best:best+1], e.mem),
	), nil
}
