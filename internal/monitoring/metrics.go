// Package monitoring records per-stage timings of a pipeline run.
package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// StageMetrics represents performance metrics for a single pipeline stage.
type StageMetrics struct {
	Stage         string        `json:"stage"`
	Duration      time.Duration `json:"duration"`
	RowsProcessed int64         `json:"rows_processed"`
	MemoryUsed    int64         `json:"memory_used"`
	Failed        bool          `json:"failed"`
}

// MetricsCollector collects and stores metrics for pipeline stages.
// It is safe for concurrent use by the aggregation goroutines.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []StageMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]StageMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	if mc == nil {
		return false
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// Record executes fn and stores its duration, memory delta and the row count
// fn reports. A nil or disabled collector just runs fn.
func (mc *MetricsCollector) Record(stage string, fn func() (int, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)
	start := time.Now()

	rows, err := fn()

	duration := time.Since(start)
	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, StageMetrics{
		Stage:         stage,
		Duration:      duration,
		RowsProcessed: int64(rows),
		MemoryUsed:    int64(memAfter.TotalAlloc - memBefore.TotalAlloc), //nolint:gosec // allocation counters fit in int64
		Failed:        err != nil,
	})
	mc.mu.Unlock()

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []StageMetrics {
	if mc == nil {
		return nil
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]StageMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	metrics := mc.GetMetrics()
	if len(metrics) == 0 {
		return MetricsSummary{}
	}

	summary := MetricsSummary{
		TotalStages: len(metrics),
		StageTimes:  make(map[string]time.Duration, len(metrics)),
	}
	for _, m := range metrics {
		summary.TotalDuration += m.Duration
		summary.TotalMemory += m.MemoryUsed
		summary.StageTimes[m.Stage] += m.Duration
		if m.Failed {
			summary.FailedStages++
		}
	}
	return summary
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalStages   int                      `json:"total_stages"`
	FailedStages  int                      `json:"failed_stages"`
	TotalDuration time.Duration            `json:"total_duration"`
	TotalMemory   int64                    `json:"total_memory"`
	StageTimes    map[string]time.Duration `json:"stage_times"`
}

// String renders the summary with stages sorted by name.
func (s MetricsSummary) String() string {
	if s.TotalStages == 0 {
		return "no metrics collected\n"
	}

	stages := make([]string, 0, len(s.StageTimes))
	for name := range s.StageTimes {
		stages = append(stages, name)
	}
	sort.Strings(stages)

	var sb strings.Builder
	fmt.Fprintf(&sb, "stages: %d (failed: %d), total: %s, allocated: %d bytes\n",
		s.TotalStages, s.FailedStages, s.TotalDuration, s.TotalMemory)
	for _, name := range stages {
		fmt.Fprintf(&sb, "  %-28s %s\n", name, s.StageTimes[name])
	}
	return sb.String()
}
