// Package aggregate computes the analytical result tables over cleansed
// sales records: peak-sales dates, average sales, the per-product sales
// delta series, the top order, and order counts per city.
//
// Every computation is a pure function of an immutable Records value and
// returns a freshly allocated table owned by the caller. "Select the max"
// computations break ties deterministically (see each function) and fail
// with errors.ErrEmptyInput when there are no records.
package aggregate

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/salesframe/internal/monitoring"
	"github.com/paveg/salesframe/internal/table"
	"github.com/paveg/salesframe/internal/validation"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Result column names
const (
	ColMaxOrderDate = "Max_Order_Date"
	ColTotalSales   = "total_sales"
	ColAvgSales     = "avg_sales"
	ColSalesDiff    = "salesdiff"
	ColCity         = "City"
	ColOrderCount   = "count_of_orders"
)

// Result table names, in report order
const (
	NamePeakDateByProduct = "peak_date_by_product"
	NameGlobalPeakDate    = "global_peak_date"
	NameAverageSales      = "average_sales_by_product"
	NameSalesDelta        = "sales_delta"
	NameTopOrder          = "top_order"
	NameTopCity           = "top_city"
	NameCityOrderCounts   = "city_order_counts"

	nameCityCounts = "city_counts"
	opRun          = "Run"
)

// Results holds the seven result tables of one run
type Results struct {
	PeakDateByProduct *table.Table
	GlobalPeakDate    *table.Table
	AverageSales      *table.Table
	SalesDelta        *table.Table
	TopOrder          *table.Table
	TopCity           *table.Table
	CityOrderCounts   *table.Table
}

// Tables returns the result tables with their names, in report order.
func (r *Results) Tables() []table.Named {
	return []table.Named{
		{Name: NamePeakDateByProduct, Table: r.PeakDateByProduct},
		{Name: NameGlobalPeakDate, Table: r.GlobalPeakDate},
		{Name: NameAverageSales, Table: r.AverageSales},
		{Name: NameSalesDelta, Table: r.SalesDelta},
		{Name: NameTopOrder, Table: r.TopOrder},
		{Name: NameTopCity, Table: r.TopCity},
		{Name: NameCityOrderCounts, Table: r.CityOrderCounts},
	}
}

// Release releases every non-nil result table
func (r *Results) Release() {
	for _, nt := range r.Tables() {
		if nt.Table != nil {
			nt.Table.Release()
		}
	}
}

// Engine computes result tables
type Engine struct {
	mem            memory.Allocator
	log            logrus.FieldLogger
	metrics        *monitoring.MetricsCollector
	maxParallelism int
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics records one stage per computation in mc
func WithMetrics(mc *monitoring.MetricsCollector) Option {
	return func(e *Engine) { e.metrics = mc }
}

// WithMaxParallelism bounds how many computations Run executes at once
func WithMaxParallelism(n int) Option {
	return func(e *Engine) { e.maxParallelism = n }
}

// NewEngine creates an engine allocating results from mem
func NewEngine(mem memory.Allocator, opts ...Option) *Engine {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	e := &Engine{
		mem:            mem,
		log:            logrus.StandardLogger(),
		maxParallelism: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxParallelism <= 0 {
		e.maxParallelism = 1
	}
	return e
}

// Run computes all result tables. The independent computations run
// concurrently; TopCity and CityOrderCounts are derived afterwards from the
// single per-city grouping. The first failure cancels the rest.
func (e *Engine) Run(ctx context.Context, r *Records) (*Results, error) {
	if err := validation.ValidateNotEmpty(r.table, opRun); err != nil {
		return nil, err
	}

	res := &Results{}
	var cities *CityCounts

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallelism)

	e.spawn(gctx, g, NamePeakDateByProduct, &res.PeakDateByProduct, func() (*table.Table, error) {
		return e.PeakDateByProduct(r)
	})
	e.spawn(gctx, g, NameGlobalPeakDate, &res.GlobalPeakDate, func() (*table.Table, error) {
		return e.GlobalPeakDate(r)
	})
	e.spawn(gctx, g, NameAverageSales, &res.AverageSales, func() (*table.Table, error) {
		return e.AverageSalesByProduct(r)
	})
	e.spawn(gctx, g, NameSalesDelta, &res.SalesDelta, func() (*table.Table, error) {
		return e.SalesDelta(r)
	})
	e.spawn(gctx, g, NameTopOrder, &res.TopOrder, func() (*table.Table, error) {
		return e.TopOrder(r)
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		return e.metrics.Record(nameCityCounts, func() (int, error) {
			cities = e.CountOrdersByCity(r)
			return cities.Len(), nil
		})
	})

	if err := g.Wait(); err != nil {
		res.Release()
		return nil, err
	}

	err := e.metrics.Record(NameTopCity, func() (int, error) {
		t, err := e.TopCity(cities)
		res.TopCity = t
		return r.Len(), err
	})
	if err != nil {
		res.Release()
		return nil, fmt.Errorf("computing %s: %w", NameTopCity, err)
	}
	err = e.metrics.Record(NameCityOrderCounts, func() (int, error) {
		t, err := e.CityOrderCounts(cities)
		res.CityOrderCounts = t
		return r.Len(), err
	})
	if err != nil {
		res.Release()
		return nil, fmt.Errorf("computing %s: %w", NameCityOrderCounts, err)
	}

	e.log.WithField("tables", len(res.Tables())).Info("aggregations computed")
	return res, nil
}

func (e *Engine) spawn(
	ctx context.Context,
	g *errgroup.Group,
	name string,
	dst **table.Table,
	fn func() (*table.Table, error),
) {
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.metrics.Record(name, func() (int, error) {
			t, err := fn()
			if err != nil {
				return 0, err
			}
			*dst = t
			return t.Len(), nil
		})
		if err != nil {
			return fmt.Errorf("computing %s: %w", name, err)
		}
		e.log.WithField("table", name).Debug("aggregation done")
		return nil
	})
}
