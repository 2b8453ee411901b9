// Package salesframe analyses a quarter of monthly sales extracts.
//
// Run loads the configured extracts, cleanses them into typed sales records
// and computes seven result tables: the peak sales day per product and
// overall, average sales per product, the per-product sales delta series,
// the top order, the top city and the order count of every city. The
// returned Report is written out with a reporter from internal/report.
//
// Memory management: a Report owns Arrow memory and must be released:
//
//	rep, err := salesframe.Run(ctx, &cfg)
//	if err != nil {
//		return err
//	}
//	defer rep.Release()
//	err = rep.Write(ctx, reporter)
package salesframe

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"github.com/paveg/salesframe/internal/aggregate"
	"github.com/paveg/salesframe/internal/cleanse"
	"github.com/paveg/salesframe/internal/config"
	"github.com/paveg/salesframe/internal/loader"
	"github.com/paveg/salesframe/internal/monitoring"
	"github.com/paveg/salesframe/internal/report"
	"github.com/paveg/salesframe/internal/schema"
	"github.com/paveg/salesframe/internal/table"
	"github.com/sirupsen/logrus"
)

// Stage names recorded in the metrics
const (
	StageLoad      = "load"
	StageCleanse   = "cleanse"
	StageAggregate = "aggregate"
	StageReport    = "report"
)

// Report is the outcome of one pipeline run
type Report struct {
	// RunID identifies the run in logs
	RunID string
	// SourceRows counts raw rows per source label
	SourceRows map[string]int
	// Stats describes what the cleanse stage kept and dropped
	Stats cleanse.Stats
	// Results holds the seven result tables
	Results *aggregate.Results
	// Metrics holds per-stage timings; nil when collection is disabled
	Metrics *monitoring.MetricsCollector

	log logrus.FieldLogger
}

// Tables returns the named result tables in report order
func (r *Report) Tables() []table.Named {
	return r.Results.Tables()
}

// Write hands the result tables to reporter
func (r *Report) Write(ctx context.Context, reporter report.Reporter) error {
	tables := r.Tables()
	err := r.Metrics.Record(StageReport, func() (int, error) {
		return len(tables), reporter.Write(ctx, tables)
	})
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	r.log.WithField("tables", len(tables)).Info("report written")
	return nil
}

// Release releases the result tables
func (r *Report) Release() {
	if r.Results != nil {
		r.Results.Release()
	}
}

type runOptions struct {
	log     logrus.FieldLogger
	fsys    fs.FS
	mem     memory.Allocator
	metrics *monitoring.MetricsCollector
}

// Option customizes Run
type Option func(*runOptions)

// WithLogger sets the logger used by every stage
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *runOptions) { o.log = log }
}

// WithFS reads the sources from fsys instead of the local file system
func WithFS(fsys fs.FS) Option {
	return func(o *runOptions) { o.fsys = fsys }
}

// WithAllocator sets the Arrow allocator
func WithAllocator(mem memory.Allocator) Option {
	return func(o *runOptions) { o.mem = mem }
}

// WithMetrics records stage metrics in mc instead of a collector built
// from the configuration.
func WithMetrics(mc *monitoring.MetricsCollector) Option {
	return func(o *runOptions) { o.metrics = mc }
}

// Run executes load, cleanse and aggregation for cfg. cfg is validated and
// must not be modified while Run executes.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := runOptions{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil && cfg.MetricsCollection {
		o.metrics = monitoring.NewMetricsCollector(true)
	}

	rep := &Report{
		RunID:   uuid.NewString(),
		Metrics: o.metrics,
	}
	log := o.log.WithField("run_id", rep.RunID)
	rep.log = log

	mm := NewMemoryManager(o.mem)
	defer mm.ReleaseAll()
	mem := mm.Allocator()

	loaderOpts := []loader.Option{loader.WithLogger(log)}
	if o.fsys != nil {
		loaderOpts = append(loaderOpts, loader.WithFS(o.fsys))
	}

	var raw *table.Table
	err := o.metrics.Record(StageLoad, func() (int, error) {
		var err error
		raw, err = loader.New(cfg, mem, loaderOpts...).Load(ctx)
		if err != nil {
			return 0, err
		}
		mm.Track(raw)
		return raw.Len(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}
	rep.SourceRows = countBySource(raw)

	var cleansed *table.Table
	err = o.metrics.Record(StageCleanse, func() (int, error) {
		var err error
		cleansed, rep.Stats, err = cleanse.New(cfg, mem, log).Cleanse(ctx, raw)
		if err != nil {
			return 0, err
		}
		mm.Track(cleansed)
		return rep.Stats.InputRows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleansing records: %w", err)
	}

	records, err := aggregate.NewRecords(cleansed)
	if err != nil {
		return nil, fmt.Errorf("reading cleansed records: %w", err)
	}
	mm.Track(records)

	engine := aggregate.NewEngine(mem,
		aggregate.WithLogger(log),
		aggregate.WithMetrics(o.metrics),
		aggregate.WithMaxParallelism(cfg.MaxParallelism),
	)
	err = o.metrics.Record(StageAggregate, func() (int, error) {
		var err error
		rep.Results, err = engine.Run(ctx, records)
		return records.Len(), err
	})
	if err != nil {
		return nil, fmt.Errorf("aggregating: %w", err)
	}

	log.WithFields(logrus.Fields{
		"sources": len(rep.SourceRows),
		"kept":    rep.Stats.Kept,
		"dropped": rep.Stats.Dropped(),
	}).Info("run complete")
	return rep, nil
}

// countBySource counts raw rows per value of the Source column
func countBySource(raw *table.Table) map[string]int {
	counts := make(map[string]int)
	arr, err := raw.Array(schema.Source)
	if err != nil {
		return counts
	}
	defer arr.Release()

	labels, ok := arr.(*array.String)
	if !ok {
		return counts
	}
	for i := range labels.Len() {
		counts[labels.Value(i)]++
	}
	return counts
}
