package report_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	json "github.com/goccy/go-json"
	"github.com/paveg/salesframe/internal/config"
	"github.com/paveg/salesframe/internal/logging"
	"github.com/paveg/salesframe/internal/report"
	"github.com/paveg/salesframe/internal/series"
	"github.com/paveg/salesframe/internal/table"
	"github.com/paveg/salesframe/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// resultTables returns a one-row and a three-row table shaped like engine output.
func resultTables(t *testing.T, mem memory.Allocator) []table.Named {
	t.Helper()
	topCity := table.New(
		series.New("City", []string{"Boston"}, mem),
		series.New("count_of_orders", []int64{2}, mem),
	)
	peak := table.New(
		series.New("Product", []string{"ProductA", "ProductB", "ProductC"}, mem),
		series.New("Max_Order_Date", []arrow.Date32{
			testutil.Day("2019-01-10"), testutil.Day("2019-02-01"), testutil.Day("2019-03-31"),
		}, mem),
		series.New("total_sales", []float64{50, 15, 7.5}, mem),
	)
	t.Cleanup(func() {
		topCity.Release()
		peak.Release()
	})
	return []table.Named{
		{Name: "top_city", Table: topCity},
		{Name: "peak_date_by_product", Table: peak},
	}
}

func newReporter(t *testing.T, cfg config.OutputConfig, out io.Writer) report.Reporter {
	t.Helper()
	r, err := report.New(cfg, out, report.WithLogger(logging.Discard()))
	require.NoError(t, err)
	return r
}

func TestTextReporter(t *testing.T) {
	mem := testutil.SetupMemory(t)
	tables := resultTables(t, mem)

	var buf bytes.Buffer
	r := newReporter(t, config.OutputConfig{Format: config.FormatText, MaxRows: 2}, &buf)
	require.NoError(t, r.Write(context.Background(), tables))

	want := "== top_city (1 rows) ==\n" +
		"City    count_of_orders\n" +
		"----    ---------------\n" +
		"Boston  2\n" +
		"\n" +
		"== peak_date_by_product (3 rows) ==\n" +
		"Product   Max_Order_Date  total_sales\n" +
		"-------   --------------  -----------\n" +
		"ProductA  2019-01-10      50\n" +
		"ProductB  2019-02-01      15\n" +
		"... 1 more rows\n"
	assert.Equal(t, want, buf.String())
}

func TestCSVReporter(t *testing.T) {
	mem := testutil.SetupMemory(t)
	dir := t.TempDir()

	r := newReporter(t, config.OutputConfig{Format: config.FormatCSV, Dir: dir}, nil)
	require.NoError(t, r.Write(context.Background(), resultTables(t, mem)))

	data, err := os.ReadFile(filepath.Join(dir, "peak_date_by_product.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Product,Max_Order_Date,total_sales\n"+
		"ProductA,2019-01-10,50\n"+
		"ProductB,2019-02-01,15\n"+
		"ProductC,2019-03-31,7.5\n", string(data))

	assert.FileExists(t, filepath.Join(dir, "top_city.csv"))
}

func TestJSONReporter(t *testing.T) {
	mem := testutil.SetupMemory(t)
	dir := t.TempDir()

	r := newReporter(t, config.OutputConfig{Format: config.FormatJSON, Dir: dir}, nil)
	require.NoError(t, r.Write(context.Background(), resultTables(t, mem)))

	data, err := os.ReadFile(filepath.Join(dir, "top_city.json"))
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Boston", records[0]["City"])
	assert.InDelta(t, 2, records[0]["count_of_orders"], 0)
}

func TestParquetReporter(t *testing.T) {
	mem := testutil.SetupMemory(t)
	dir := t.TempDir()

	r := newReporter(t, config.OutputConfig{Format: config.FormatParquet, Dir: dir, Compression: "zstd"}, nil)
	require.NoError(t, r.Write(context.Background(), resultTables(t, mem)))

	f, err := os.Open(filepath.Join(dir, "peak_date_by_product.parquet"))
	require.NoError(t, err)
	defer f.Close()

	pool := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(context.Background(), f,
		parquet.NewReaderProperties(pool), pqarrow.ArrowReadProperties{}, pool)
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, int64(3), tbl.NumRows())
	assert.Equal(t, int64(3), tbl.NumCols())
	assert.Equal(t, "Max_Order_Date", tbl.Schema().Field(1).Name)
	assert.Equal(t, arrow.DATE32, tbl.Schema().Field(1).Type.ID())
}

func TestXLSXReporter(t *testing.T) {
	mem := testutil.SetupMemory(t)
	dir := t.TempDir()

	r := newReporter(t, config.OutputConfig{Format: config.FormatXLSX, Dir: dir}, nil)
	require.NoError(t, r.Write(context.Background(), resultTables(t, mem)))

	f, err := excelize.OpenFile(filepath.Join(dir, report.WorkbookName))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"top_city", "peak_date_by_product"}, f.GetSheetList())

	rows, err := f.GetRows("peak_date_by_product")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Product", "Max_Order_Date", "total_sales"}, rows[0])
	assert.Equal(t, []string{"ProductC", "2019-03-31", "7.5"}, rows[3])
}

func TestNewReporterErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.OutputConfig
		want string
	}{
		{"unknown format", config.OutputConfig{Format: "html"}, "unsupported output format"},
		{"unknown codec", config.OutputConfig{Format: config.FormatParquet, Dir: "out", Compression: "brotli9"}, "unsupported parquet compression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := report.New(tt.cfg, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteCancelled(t *testing.T) {
	mem := testutil.SetupMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	r := newReporter(t, config.OutputConfig{Format: config.FormatText}, &buf)
	assert.ErrorIs(t, r.Write(ctx, resultTables(t, mem)), context.Canceled)
	assert.Empty(t, buf.String())
}
