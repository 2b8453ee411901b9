package aggregate

import (
	"slices"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/salesframe/internal/schema"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
	"github.com/paveg/salesframe/internal/validation"
)

// dailyTotals is the sum of sales per (product, day) or per day.
type dailyTotals struct {
	product []string
	day     []arrow.Date32
	total   []float64
}

// sumByDay groups records by calendar day, and also by product when
// perProduct is set, summing sales in input order.
func sumByDay(r *Records, perProduct bool) *dailyTotals {
	n := r.Len()
	g := newGrouper(n / 8)
	dt := &dailyTotals{}

	for i := range n {
		day := r.day.Value(i)
		key := strconv.FormatInt(int64(day), 10)
		product := ""
		if perProduct {
			product = r.product.Value(i)
			key = compositeKey(product, key)
		}
		gid := g.id(key)
		if gid == len(dt.total) {
			dt.product = append(dt.product, product)
			dt.day = append(dt.day, day)
			dt.total = append(dt.total, 0)
		}
		dt.total[gid] += r.sales.Value(i)
	}
	return dt
}

// PeakDateByProduct returns, for every product, the calendar day with the
// highest summed sales. Tied days resolve to the earliest one. Rows are
// ordered by product.
func (e *Engine) PeakDateByProduct(r *Records) (*table.Table, error) {
	if err := validation.ValidateNotEmpty(r.table, "PeakDateByProduct"); err != nil {
		return nil, err
	}

	dt := sumByDay(r, true)
	best := make(map[string]int)
	for gid, p := range dt.product {
		cur, seen := best[p]
		if !seen || beats(dt.total[gid], dt.total[cur], dt.day[gid] < dt.day[cur]) {
			best[p] = gid
		}
	}

	products := make([]string, 0, len(best))
	for p := range best {
		products = append(products, p)
	}
	slices.Sort(products)

	days := make([]arrow.Date32, len(products))
	totals := make([]float64, len(products))
	for i, p := range products {
		gid := best[p]
		days[i] = dt.day[gid]
		totals[i] = dt.total[gid]
	}

	return table.New(
		series.New(schema.Product, products, e.mem),
		series.New(ColMaxOrderDate, days, e.mem),
		series.New(ColTotalSales, totals, e.mem),
	), nil
}

// GlobalPeakDate returns the single calendar day with the highest summed
// sales across all products. Tied days resolve to the earliest one.
func (e *Engine) GlobalPeakDate(r *Records) (*table.Table, error) {
	if err := validation.ValidateNotEmpty(r.table, "GlobalPeakDate"); err != nil {
		return nil, err
	}

	dt := sumByDay(r, false)
	best := argMax(len(dt.total),
		func(i int) float64 { return dt.total[i] },
		func(i, j int) bool { return dt.day[i] < dt.day[j] },
	)

	return table.New(
		series.New(ColMaxOrderDate, []arrow.Date32{dt.day[best]}, e.mem),
		series.New(ColTotalSales, []float64{dt.total[best]}, e.mem),
	), nil
}
