// Package cleanse turns the raw unioned record set into typed sales records.
//
// A raw row survives only if every required field is present, quantity and
// price parse as non-negative numbers, the order date parses with the
// configured layout, and the order month (and year, when configured) is in
// range. Rejected rows are counted, never reported as errors.
package cleanse

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/salesframe/internal/config"
	"github.com/paveg/salesframe/internal/parallel"
	"github.com/paveg/salesframe/internal/schema"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
	"github.com/paveg/salesframe/internal/validation"
	"github.com/sirupsen/logrus"
)

const opCleanse = "Cleanse"

// Stats counts what happened to the input rows
type Stats struct {
	InputRows  int `json:"input_rows"`
	Incomplete int `json:"incomplete"`   // a required field was empty
	Invalid    int `json:"invalid"`      // quantity, price or date did not parse
	OutOfRange int `json:"out_of_range"` // month or year outside the target window
	Kept       int `json:"kept"`
}

// Dropped returns the number of rejected rows
func (s Stats) Dropped() int {
	return s.Incomplete + s.Invalid + s.OutOfRange
}

func (s *Stats) add(o Stats) {
	s.InputRows += o.InputRows
	s.Incomplete += o.Incomplete
	s.Invalid += o.Invalid
	s.OutOfRange += o.OutOfRange
	s.Kept += o.Kept
}

// Cleanser validates and types raw sales rows
type Cleanser struct {
	cfg *config.Config
	mem memory.Allocator
	log logrus.FieldLogger
}

// New creates a cleanser for cfg
func New(cfg *config.Config, mem memory.Allocator, log logrus.FieldLogger) *Cleanser {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cleanser{cfg: cfg, mem: mem, log: log}
}

// rawColumns holds the string arrays of the required raw columns
type rawColumns struct {
	orderID, product, quantity, price, date, address *array.String
}

// parsed holds the surviving rows of one chunk, column by column
type parsed struct {
	orderID  []string
	product  []string
	quantity []int64
	price    []float64
	at       []time.Time
	address  []string
	sales    []float64
	stats    Stats
}

// Cleanse returns a table with the cleansed schema. The raw table is not
// modified and remains owned by the caller.
func (c *Cleanser) Cleanse(ctx context.Context, raw *table.Table) (*table.Table, Stats, error) {
	normalized := raw.Rename(schema.NormalizeColumnName)
	defer normalized.Release()

	cols, release, err := c.rawColumns(normalized)
	if err != nil {
		return nil, Stats{}, err
	}
	defer release()

	n := normalized.Len()
	ranges := []parallel.Range{{Start: 0, End: n}}
	if n >= c.cfg.ParallelThreshold {
		ranges = parallel.Chunks(n, c.cfg.ChunkSize)
	}

	var chunks []parsed
	if len(ranges) > 1 {
		wp := parallel.NewWorkerPool(ctx, c.cfg.Workers())
		defer wp.Close()
		chunks, err = parallel.ProcessIndexed(wp, ranges, func(_ int, r parallel.Range) parsed {
			return c.parseRange(cols, r)
		})
		if err != nil {
			return nil, Stats{}, fmt.Errorf("cleansing rows: %w", err)
		}
	} else {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, err
		}
		chunks = []parsed{c.parseRange(cols, ranges[0])}
	}

	merged := merge(chunks)
	out := table.New(
		series.New(schema.OrderID, merged.orderID, c.mem),
		series.New(schema.Product, merged.product, c.mem),
		series.New(schema.QuantityOrdered, merged.quantity, c.mem),
		series.New(schema.PriceEach, merged.price, c.mem),
		series.New(schema.OrderDate, merged.at, c.mem),
		series.New(schema.OrderDay, days(merged.at), c.mem),
		series.New(schema.PurchaseAddress, merged.address, c.mem),
		series.New(schema.Sales, merged.sales, c.mem),
	)

	c.log.WithFields(logrus.Fields{
		"input":        merged.stats.InputRows,
		"kept":         merged.stats.Kept,
		"incomplete":   merged.stats.Incomplete,
		"invalid":      merged.stats.Invalid,
		"out_of_range": merged.stats.OutOfRange,
		"chunks":       len(ranges),
	}).Info("records cleansed")

	return out, merged.stats, nil
}

func (c *Cleanser) rawColumns(t *table.Table) (rawColumns, func(), error) {
	if err := validation.ValidateSchema(t, opCleanse, schema.RawSchema, true); err != nil {
		return rawColumns{}, nil, err
	}

	arrs := make([]arrow.Array, 0, len(schema.Required))
	strs := make([]*array.String, 0, len(schema.Required))
	for _, name := range schema.Required {
		arr, _ := t.Array(name)
		arrs = append(arrs, arr)
		strs = append(strs, arr.(*array.String))
	}
	release := func() {
		for _, a := range arrs {
			a.Release()
		}
	}

	return rawColumns{
		orderID:  strs[0],
		product:  strs[1],
		quantity: strs[2],
		price:    strs[3],
		date:     strs[4],
		address:  strs[5],
	}, release, nil
}

// parseRange cleanses rows [r.Start, r.End). It only reads shared arrays.
func (c *Cleanser) parseRange(cols rawColumns, r parallel.Range) parsed {
	out := parsed{stats: Stats{InputRows: r.Len()}}

	for i := r.Start; i < r.End; i++ {
		if cols.orderID.IsNull(i) || cols.product.IsNull(i) || cols.quantity.IsNull(i) ||
			cols.price.IsNull(i) || cols.date.IsNull(i) || cols.address.IsNull(i) {
			out.stats.Incomplete++
			continue
		}

		qty, err := strconv.ParseInt(cols.quantity.Value(i), 10, 64)
		if err != nil || qty < 0 {
			out.stats.Invalid++
			continue
		}
		price, err := strconv.ParseFloat(cols.price.Value(i), 64)
		if err != nil || price < 0 || math.IsInf(price, 0) || math.IsNaN(price) {
			out.stats.Invalid++
			continue
		}
		at, err := time.Parse(c.cfg.DateLayout, cols.date.Value(i))
		if err != nil {
			out.stats.Invalid++
			continue
		}

		if !c.cfg.AllowsMonth(int(at.Month())) || (c.cfg.Year != 0 && at.Year() != c.cfg.Year) {
			out.stats.OutOfRange++
			continue
		}

		out.orderID = append(out.orderID, cols.orderID.Value(i))
		out.product = append(out.product, cols.product.Value(i))
		out.quantity = append(out.quantity, qty)
		out.price = append(out.price, price)
		out.at = append(out.at, at)
		out.address = append(out.address, cols.address.Value(i))
		out.sales = append(out.sales, float64(qty)*price)
		out.stats.Kept++
	}

	return out
}

func merge(chunks []parsed) parsed {
	if len(chunks) == 1 {
		return chunks[0]
	}
	var out parsed
	for _, ch := range chunks {
		out.orderID = append(out.orderID, ch.orderID...)
		out.product = append(out.product, ch.product...)
		out.quantity = append(out.quantity, ch.quantity...)
		out.price = append(out.price, ch.price...)
		out.at = append(out.at, ch.at...)
		out.address = append(out.address, ch.address...)
		out.sales = append(out.sales, ch.sales...)
		out.stats.add(ch.stats)
	}
	return out
}

func days(ts []time.Time) []arrow.Date32 {
	out := make([]arrow.Date32, len(ts))
	for i, t := range ts {
		out[i] = arrow.Date32FromTime(t)
	}
	return out
}
