package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/salesframe/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, 2019, cfg.Year)
	assert.Equal(t, []int{1, 2, 3}, cfg.Months)
	assert.Equal(t, "01/02/06 15:04", cfg.DateLayout)
	assert.Len(t, cfg.Sources, 3)
	assert.Equal(t, ',', cfg.DelimiterRune())
	assert.Equal(t, config.FormatText, cfg.Output.Format)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"negative year", func(c *config.Config) { c.Year = -1 }, "Year"},
		{"month out of range", func(c *config.Config) { c.Months = []int{1, 13} }, "between 1 and 12"},
		{"no sources", func(c *config.Config) { c.Sources = nil }, "at least one source"},
		{"source without path", func(c *config.Config) { c.Sources[0].Path = "" }, "no path"},
		{"duplicate label", func(c *config.Config) { c.Sources[1].Label = c.Sources[0].Label }, "duplicate"},
		{"multi-char delimiter", func(c *config.Config) { c.Delimiter = ";;" }, "single character"},
		{"zero chunk size", func(c *config.Config) { c.ChunkSize = 0 }, "ChunkSize"},
		{"unknown format", func(c *config.Config) { c.Output.Format = "html" }, "unsupported output format"},
		{"csv without dir", func(c *config.Config) { c.Output.Format = config.FormatCSV }, "requires an output directory"},
		{"unknown log format", func(c *config.Config) { c.Log.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml keeps defaults for missing keys", func(t *testing.T) {
		path := filepath.Join(dir, "run.yaml")
		data := []byte(`
storage_root: /mnt/sales
sources:
  - label: jan
    path: jan.csv
output:
  format: csv
  dir: out
`)
		require.NoError(t, os.WriteFile(path, data, 0o600))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 2019, cfg.Year)
		assert.Equal(t, "/mnt/sales", cfg.StorageRoot)
		require.Len(t, cfg.Sources, 1)
		assert.Equal(t, filepath.Join("/mnt/sales", "jan.csv"), cfg.SourcePath(cfg.Sources[0]))
		assert.Equal(t, config.FormatCSV, cfg.Output.Format)
		assert.Equal(t, config.DefaultMaxRows, cfg.Output.MaxRows)
		require.NoError(t, cfg.Validate())
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "run.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"year": 0, "months": [2]}`), 0o600))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Year)
		assert.True(t, cfg.AllowsMonth(2))
		assert.False(t, cfg.AllowsMonth(1))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "run.toml")
		require.NoError(t, os.WriteFile(path, []byte(""), 0o600))
		_, err := config.LoadFromFile(path)
		assert.ErrorContains(t, err, "unsupported config file format")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadFromFile(filepath.Join(dir, "nope.yaml"))
		assert.ErrorContains(t, err, "reading config file")
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SALESFRAME_YEAR":               "2020",
		"SALESFRAME_WORKER_POOL_SIZE":   "3",
		"SALESFRAME_STORAGE_ROOT":       "/data",
		"SALESFRAME_LOG_LEVEL":          "debug",
		"SALESFRAME_METRICS_COLLECTION": "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := config.NewConfig()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, 2020, cfg.Year)
	assert.Equal(t, 3, cfg.Workers())
	assert.Equal(t, "/data", cfg.StorageRoot)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.MetricsCollection)

	t.Run("bad integer", func(t *testing.T) {
		cfg := config.NewConfig()
		err := cfg.ApplyEnv(func(k string) (string, bool) {
			if k == "SALESFRAME_CHUNK_SIZE" {
				return "many", true
			}
			return "", false
		})
		assert.ErrorContains(t, err, "SALESFRAME_CHUNK_SIZE")
	})
}

func TestLoad(t *testing.T) {
	t.Setenv("SALESFRAME_OUTPUT_FORMAT", "parquet")
	t.Setenv("SALESFRAME_OUTPUT_DIR", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.FormatParquet, cfg.Output.Format)

	require.NoError(t, cfg.Validate())

	t.Setenv("SALESFRAME_MAX_PARALLELISM", "-2")
	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, -2, cfg.MaxParallelism)
	assert.Error(t, cfg.Validate())
}

func TestLoadLeavesValidationToCaller(t *testing.T) {
	t.Setenv("SALESFRAME_OUTPUT_FORMAT", "csv")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "requires an output directory")

	cfg.Output.Dir = t.TempDir()
	assert.NoError(t, cfg.Validate())
}
