package series_test

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/salesframe/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesNew(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	t.Run("string", func(t *testing.T) {
		s := series.New("Product", []string{"iPhone", "Wired Headphones"}, mem)
		defer s.Release()

		assert.Equal(t, "Product", s.Name())
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, arrow.BinaryTypes.String, s.DataType())
		assert.Equal(t, []string{"iPhone", "Wired Headphones"}, s.Values())
	})

	t.Run("int64 and float64", func(t *testing.T) {
		qty := series.New("Quantity_Ordered", []int64{1, 2}, mem)
		defer qty.Release()
		price := series.New("Price_Each", []float64{700, 11.95}, mem)
		defer price.Release()

		assert.Equal(t, int64(2), qty.Value(1))
		assert.InDelta(t, 11.95, price.Value(1), 1e-9)
		assert.Equal(t, "11.95", price.GetAsString(1))
		assert.Equal(t, "700", price.GetAsString(0))
	})

	t.Run("date32 and timestamp", func(t *testing.T) {
		ts := time.Date(2019, time.January, 22, 21, 25, 0, 0, time.UTC)
		day := series.New("Order_Day", []arrow.Date32{arrow.Date32FromTime(ts)}, mem)
		defer day.Release()
		at := series.New("Order_Date", []time.Time{ts}, mem)
		defer at.Release()

		assert.Equal(t, "2019-01-22", day.GetAsString(0))
		assert.Equal(t, "2019-01-22 21:25:00", at.GetAsString(0))
		assert.True(t, ts.Equal(at.Value(0)))
	})

	t.Run("nullable values", func(t *testing.T) {
		s := series.NewNullable("Order_ID", []string{"176558", ""}, []bool{true, false}, mem)
		defer s.Release()

		assert.False(t, s.IsNull(0))
		assert.True(t, s.IsNull(1))
		assert.Equal(t, 1, s.NullN())
		assert.Equal(t, "", s.GetAsString(1))
	})

	t.Run("out of range value is zero", func(t *testing.T) {
		s := series.New("n", []int64{5}, mem)
		defer s.Release()
		assert.Equal(t, int64(0), s.Value(3))
		assert.Equal(t, "", s.GetAsString(-1))
	})

	t.Run("unsupported type panics", func(t *testing.T) {
		assert.Panics(t, func() {
			series.New("bad", []int8{1}, mem)
		})
	})
}

func TestFromArrayAndRename(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	src := series.New("sales", []float64{20, 50}, mem)
	arr := src.Array()
	src.Release()

	col, err := series.FromArray("sales", arr)
	require.NoError(t, err)
	arr.Release()

	renamed := col.Rename("total_sales")
	col.Release()
	defer renamed.Release()

	assert.Equal(t, "total_sales", renamed.Name())
	assert.Equal(t, "50", renamed.GetAsString(1))
}
