package cleanse_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/paveg/salesframe/internal/cleanse"
	"github.com/paveg/salesframe/internal/config"
	"github.com/paveg/salesframe/internal/errors"
	"github.com/paveg/salesframe/internal/logging"
	"github.com/paveg/salesframe/internal/schema"
	"github.com/paveg/salesframe/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawHeaders = []string{"Order ID", "Product", "Quantity Ordered", "Price Each", "Order Date", "Purchase Address"}

func newCleanser(cfg *config.Config) *cleanse.Cleanser {
	return cleanse.New(cfg, nil, logging.Discard())
}

func TestCleanse(t *testing.T) {
	mem := testutil.SetupMemory(t)
	cfg := config.NewConfig()

	rows := [][]string{
		{"141234", "iPhone", "1", "700", "01/22/19 21:25", "944 Walnut St, Boston, MA 02215"},
		{"", "", "", "", "", ""}, // blank line
		{"Order ID", "Product", "Quantity Ordered", "Price Each", "Order Date", "Purchase Address"}, // repeated header
		{"141235", "Lightning Charging Cable", "", "14.95", "01/28/19 14:15", "185 Maple St, Portland, OR 97035"},
		{"141236", "Wired Headphones", "2", "11.99", "01/17/19 13:33", "538 Adams St, San Francisco, CA 94016"},
		{"141237", "27in FHD Monitor", "1", "149.99", "04/01/19 03:09", "738 10th St, Los Angeles, CA 90001"}, // April
		{"141238", "AA Batteries (4-pack)", "-1", "3.84", "02/07/19 09:00", "1 Main St, Dallas, TX 75001"},
		{"141239", "AAA Batteries (4-pack)", "4", "abc", "02/07/19 09:00", "1 Main St, Dallas, TX 75001"},
		{"141240", "Google Phone", "1", "600", "2019-03-01", "1 Main St, Dallas, TX 75001"},
		{"141241", "Google Phone", "1", "600", "03/01/20 10:00", "1 Main St, Dallas, TX 75001"}, // other year
		{"141242", "USB-C Charging Cable", "3", "11.95", "03/31/19 23:59", "12 Elm St, Seattle, WA 98101"},
	}
	raw := testutil.RawTable(mem, rawHeaders, rows)
	defer raw.Release()

	out, stats, err := newCleanser(&cfg).Cleanse(context.Background(), raw)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, schema.Cleansed, out.Columns())
	assert.Equal(t, cleanse.Stats{
		InputRows:  11,
		Incomplete: 2,
		Invalid:    4,
		OutOfRange: 2,
		Kept:       3,
	}, stats)
	assert.Equal(t, 8, stats.Dropped())

	assert.Equal(t, []string{"141234", "141236", "141242"}, testutil.Strings(t, out, schema.OrderID))
	assert.Equal(t, []string{"2019-01-22", "2019-01-17", "2019-03-31"}, testutil.Strings(t, out, schema.OrderDay))
	assert.Equal(t, "2019-01-22 21:25:00", testutil.Strings(t, out, schema.OrderDate)[0])
	assert.Equal(t, []int64{1, 2, 3}, testutil.Int64s(t, out, schema.QuantityOrdered))

	sales := testutil.Float64s(t, out, schema.Sales)
	qty := testutil.Int64s(t, out, schema.QuantityOrdered)
	price := testutil.Float64s(t, out, schema.PriceEach)
	for i := range sales {
		assert.Equal(t, float64(qty[i])*price[i], sales[i], "row %d", i)
	}
}

func TestCleanseInvariants(t *testing.T) {
	mem := testutil.SetupMemory(t)
	cfg := config.NewConfig()
	cfg.Year = 0

	var rows [][]string
	for i := range 60 {
		month := i%6 + 1
		qty := fmt.Sprint(i % 4)
		if i%7 == 0 {
			qty = ""
		}
		rows = append(rows, []string{
			fmt.Sprint(1000 + i), "Product", qty, "2.50",
			fmt.Sprintf("%02d/%02d/%02d 10:00", month, i%28+1, 18+i%3),
			"1 Main St, Austin, TX 73301",
		})
	}
	raw := testutil.RawTable(mem, rawHeaders, rows)
	defer raw.Release()

	out, stats, err := newCleanser(&cfg).Cleanse(context.Background(), raw)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, stats.Kept, out.Len())
	assert.Equal(t, stats.InputRows, stats.Kept+stats.Dropped())

	for _, name := range out.Columns() {
		col, _ := out.Column(name)
		for i := 0; i < col.Len(); i++ {
			assert.False(t, col.IsNull(i), "%s[%d] is null", name, i)
		}
	}
	for _, day := range testutil.Strings(t, out, schema.OrderDay) {
		assert.Contains(t, []string{"01", "02", "03"}, day[5:7])
	}
}

func TestCleanseParallelMatchesSequential(t *testing.T) {
	mem := testutil.SetupMemory(t)

	var rows [][]string
	for i := range 500 {
		qty := fmt.Sprint(i%5 + 1)
		if i%11 == 0 {
			qty = "x"
		}
		rows = append(rows, []string{
			fmt.Sprint(200000 + i), fmt.Sprintf("P%d", i%9), qty, "9.99",
			fmt.Sprintf("%02d/%02d/19 %02d:%02d", i%4+1, i%28+1, i%24, i%60),
			fmt.Sprintf("%d Oak St, City%d, ST 00000", i, i%5),
		})
	}
	raw := testutil.RawTable(mem, rawHeaders, rows)
	defer raw.Release()

	seqCfg := config.NewConfig()
	seq, seqStats, err := newCleanser(&seqCfg).Cleanse(context.Background(), raw)
	require.NoError(t, err)
	defer seq.Release()

	parCfg := config.NewConfig()
	parCfg.ParallelThreshold = 10
	parCfg.ChunkSize = 37
	parCfg.WorkerPoolSize = 4
	par, parStats, err := newCleanser(&parCfg).Cleanse(context.Background(), raw)
	require.NoError(t, err)
	defer par.Release()

	assert.Equal(t, seqStats, parStats)
	require.Equal(t, seq.Len(), par.Len())
	for i := 0; i < seq.Len(); i++ {
		assert.Equal(t, seq.Row(i), par.Row(i))
	}
}

func TestCleanseErrors(t *testing.T) {
	mem := testutil.SetupMemory(t)
	cfg := config.NewConfig()

	t.Run("missing column", func(t *testing.T) {
		raw := testutil.RawTable(mem, rawHeaders[:5], [][]string{{"1", "a", "1", "1", "01/01/19 00:00"}})
		defer raw.Release()

		_, _, err := newCleanser(&cfg).Cleanse(context.Background(), raw)
		var pe *errors.PipelineError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, schema.PurchaseAddress, pe.Column)
	})

	t.Run("typed column", func(t *testing.T) {
		cleansed := testutil.CleansedTable(mem, []testutil.Sale{
			{OrderID: "1", Product: "iPhone", Qty: 1, Price: 700, At: testutil.At("2019-01-01 10:00"), Address: "1 Main St, Dallas, TX 75001"},
		})
		defer cleansed.Release()

		_, _, err := newCleanser(&cfg).Cleanse(context.Background(), cleansed)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected utf8, got int64")
	})

	t.Run("cancelled", func(t *testing.T) {
		raw := testutil.RawTable(mem, rawHeaders, nil)
		defer raw.Release()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := newCleanser(&cfg).Cleanse(ctx, raw)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty input yields empty table", func(t *testing.T) {
		raw := testutil.RawTable(mem, rawHeaders, nil)
		defer raw.Release()

		out, stats, err := newCleanser(&cfg).Cleanse(context.Background(), raw)
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, 0, out.Len())
		assert.Equal(t, schema.Cleansed, out.Columns())
		assert.Equal(t, cleanse.Stats{}, stats)
	})
}
