package aggregate

import (
	"slices"

	"github.com/paveg/salesframe/internal/schema"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
)

// AverageSalesByProduct returns the mean sales value per record for each
// product, ordered by product. Empty input yields an empty table.
func (e *Engine) AverageSalesByProduct(r *Records) (*table.Table, error) {
	n := r.Len()
	g := newGrouper(64)
	var sums []float64
	var counts []int

	for i := range n {
		gid := g.id(r.product.Value(i))
		if gid == len(sums) {
			sums = append(sums, 0)
			counts = append(counts, 0)
		}
		sums[gid] += r.sales.Value(i)
		counts[gid]++
	}

	order := make([]int, g.Len())
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return compare(g.keys[a], g.keys[b]) })

	products := make([]string, len(order))
	avgs := make([]float64, len(order))
	for i, gid := range order {
		products[i] = g.keys[gid]
		avgs[i] = sums[gid] / float64(counts[gid])
	}

	return table.New(
		series.New(schema.Product, products, e.mem),
		series.New(ColAvgSales, avgs, e.mem),
	), nil
}
