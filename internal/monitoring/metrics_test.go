package monitoring_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/paveg/salesframe/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector(t *testing.T) {
	t.Run("disabled collector still runs fn", func(t *testing.T) {
		mc := monitoring.NewMetricsCollector(false)
		ran := false
		err := mc.Record("load", func() (int, error) {
			ran = true
			return 3, nil
		})
		require.NoError(t, err)
		assert.True(t, ran)
		assert.Empty(t, mc.GetMetrics())
	})

	t.Run("nil collector is disabled", func(t *testing.T) {
		var mc *monitoring.MetricsCollector
		err := mc.Record("load", func() (int, error) { return 0, errors.New("boom") })
		assert.EqualError(t, err, "boom")
		assert.Empty(t, mc.GetSummary().StageTimes)
	})

	t.Run("records rows and failures", func(t *testing.T) {
		mc := monitoring.NewMetricsCollector(true)
		require.NoError(t, mc.Record("cleanse", func() (int, error) { return 42, nil }))
		require.Error(t, mc.Record("top_city", func() (int, error) { return 0, errors.New("empty") }))

		metrics := mc.GetMetrics()
		require.Len(t, metrics, 2)
		assert.Equal(t, "cleanse", metrics[0].Stage)
		assert.Equal(t, int64(42), metrics[0].RowsProcessed)
		assert.True(t, metrics[1].Failed)

		summary := mc.GetSummary()
		assert.Equal(t, 2, summary.TotalStages)
		assert.Equal(t, 1, summary.FailedStages)
		assert.Contains(t, summary.String(), "cleanse")

		mc.Clear()
		assert.Empty(t, mc.GetMetrics())
	})

	t.Run("concurrent records", func(t *testing.T) {
		mc := monitoring.NewMetricsCollector(true)
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = mc.Record("agg", func() (int, error) { return 1, nil })
			}()
		}
		wg.Wait()
		assert.Len(t, mc.GetMetrics(), 8)
	})

	t.Run("empty summary", func(t *testing.T) {
		assert.Equal(t, "no metrics collected\n", monitoring.NewMetricsCollector(true).GetSummary().String())
	})
}
