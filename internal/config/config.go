// Package config provides configuration for a salesframe run.
//
// A Config is built once at startup (defaults, then file, then environment),
// validated, and passed explicitly to the components that need it. Nothing in
// this package keeps global state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Output formats understood by the reporter
const (
	FormatText    = "text"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatXLSX    = "xlsx"
	FormatJSON    = "json"
)

// Default configuration values
const (
	DefaultYear              = 2019
	DefaultDateLayout        = "01/02/06 15:04"
	DefaultDelimiter         = ","
	DefaultParallelThreshold = 10000
	DefaultChunkSize         = 4096
	DefaultMaxParallelism    = 8
	DefaultMaxRows           = 20
	DefaultCompression       = "snappy"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"

	envPrefix = "SALESFRAME_"
)

// SourceConfig names one monthly input file
type SourceConfig struct {
	Label string `json:"label" yaml:"label"` // e.g. "january"
	Path  string `json:"path" yaml:"path"`   // relative paths resolve against StorageRoot
}

// OutputConfig controls how result tables are rendered
type OutputConfig struct {
	Format      string `json:"format" yaml:"format"`           // text, csv, json, parquet or xlsx
	Dir         string `json:"dir" yaml:"dir"`                 // target directory for file formats
	MaxRows     int    `json:"max_rows" yaml:"max_rows"`       // rows per table in text output (0 = default)
	Compression string `json:"compression" yaml:"compression"` // parquet codec
}

// LogConfig controls the logger
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // logrus level name
	Format string `json:"format" yaml:"format"` // text or json
}

// Config represents the configuration of one pipeline run
type Config struct {
	// Input
	Year        int            `json:"year" yaml:"year"`                 // target year (0 = any year)
	Months      []int          `json:"months" yaml:"months"`             // allowed order months
	DateLayout  string         `json:"date_layout" yaml:"date_layout"`   // Go layout of Order Date
	StorageRoot string         `json:"storage_root" yaml:"storage_root"` // base directory for sources
	Sources     []SourceConfig `json:"sources" yaml:"sources"`
	Delimiter   string         `json:"delimiter" yaml:"delimiter"`

	// Parallel Processing Configuration
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum rows to trigger parallel cleansing
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)
	ChunkSize         int `json:"chunk_size" yaml:"chunk_size"`                 // Rows per cleansing chunk
	MaxParallelism    int `json:"max_parallelism" yaml:"max_parallelism"`       // Concurrent aggregations

	Output OutputConfig `json:"output" yaml:"output"`
	Log    LogConfig    `json:"log" yaml:"log"`

	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection"`
}

// DefaultSources returns the three monthly extracts of the default year.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Label: "january", Path: "Sales_January_2019.csv"},
		{Label: "february", Path: "Sales_February_2019.csv"},
		{Label: "march", Path: "Sales_March_2019.csv"},
	}
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		Year:              DefaultYear,
		Months:            []int{1, 2, 3},
		DateLayout:        DefaultDateLayout,
		Sources:           DefaultSources(),
		Delimiter:         DefaultDelimiter,
		ParallelThreshold: DefaultParallelThreshold,
		WorkerPoolSize:    0, // Auto-detect
		ChunkSize:         DefaultChunkSize,
		MaxParallelism:    DefaultMaxParallelism,
		Output: OutputConfig{
			Format:      FormatText,
			MaxRows:     DefaultMaxRows,
			Compression: DefaultCompression,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// WithDefaults returns a copy with default values filled in for zero values.
// Year is left alone: an explicit zero disables the year filter.
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if len(c.Months) == 0 {
		c.Months = defaults.Months
	}
	if c.DateLayout == "" {
		c.DateLayout = defaults.DateLayout
	}
	if len(c.Sources) == 0 {
		c.Sources = defaults.Sources
	}
	if c.Delimiter == "" {
		c.Delimiter = defaults.Delimiter
	}
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = defaults.ChunkSize
	}
	if c.MaxParallelism == 0 {
		c.MaxParallelism = defaults.MaxParallelism
	}
	if c.Output.Format == "" {
		c.Output.Format = defaults.Output.Format
	}
	if c.Output.MaxRows == 0 {
		c.Output.MaxRows = defaults.Output.MaxRows
	}
	if c.Output.Compression == "" {
		c.Output.Compression = defaults.Output.Compression
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}

	return c
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.Year < 0 {
		return fmt.Errorf("Year must be non-negative, got %d", c.Year)
	}

	if len(c.Months) == 0 {
		return fmt.Errorf("Months must not be empty")
	}
	for _, m := range c.Months {
		if m < 1 || m > 12 {
			return fmt.Errorf("Months must be between 1 and 12, got %d", m)
		}
	}

	if c.DateLayout == "" {
		return fmt.Errorf("DateLayout must not be empty")
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.Path == "" {
			return fmt.Errorf("source %d has no path", i)
		}
		if src.Label == "" {
			return fmt.Errorf("source %d has no label", i)
		}
		if seen[src.Label] {
			return fmt.Errorf("duplicate source label %q", src.Label)
		}
		seen[src.Label] = true
	}

	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("Delimiter must be a single character, got %q", c.Delimiter)
	}

	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("ChunkSize must be positive, got %d", c.ChunkSize)
	}

	if c.MaxParallelism <= 0 {
		return fmt.Errorf("MaxParallelism must be positive, got %d", c.MaxParallelism)
	}

	switch c.Output.Format {
	case FormatText, FormatCSV, FormatJSON, FormatParquet, FormatXLSX:
	default:
		return fmt.Errorf("unsupported output format: %q", c.Output.Format)
	}

	if c.Output.Format != FormatText && c.Output.Dir == "" {
		return fmt.Errorf("output format %s requires an output directory", c.Output.Format)
	}

	if c.Output.MaxRows < 0 {
		return fmt.Errorf("Output.MaxRows must be non-negative, got %d", c.Output.MaxRows)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %q", c.Log.Format)
	}

	return nil
}

// DelimiterRune returns the field delimiter as a rune
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// Workers returns the worker pool size, resolving 0 to the CPU count
func (c *Config) Workers() int {
	if c.WorkerPoolSize > 0 {
		return c.WorkerPoolSize
	}
	return runtime.NumCPU()
}

// SourcePath resolves a source path against the storage root
func (c *Config) SourcePath(src SourceConfig) string {
	if c.StorageRoot == "" || filepath.IsAbs(src.Path) {
		return src.Path
	}
	return filepath.Join(c.StorageRoot, src.Path)
}

// AllowsMonth reports whether orders from month m participate in the analysis
func (c *Config) AllowsMonth(m int) bool {
	for _, allowed := range c.Months {
		if allowed == m {
			return true
		}
	}
	return false
}

// Load builds the run configuration: defaults, then the optional file, then
// environment overrides. The result is not validated; callers apply their own
// overrides first and then call Validate.
func Load(filename string) (Config, error) {
	cfg := NewConfig()
	if filename != "" {
		var err error
		cfg, err = LoadFromFile(filename)
		if err != nil {
			return Config{}, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromJSON loads configuration from JSON data. Keys absent from the
// document keep their default values.
func LoadFromJSON(data []byte) (Config, error) {
	config := NewConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromYAML loads configuration from YAML data. Keys absent from the
// document keep their default values.
func LoadFromYAML(data []byte) (Config, error) {
	config := NewConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	ext := strings.ToLower(filepath.Ext(filename))

	var config Config
	switch ext {
	case ".json":
		config, err = LoadFromJSON(data)
	case ".yaml", ".yml":
		config, err = LoadFromYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config, nil
}

// ApplyEnv overrides fields from SALESFRAME_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"YEAR":               &c.Year,
		"PARALLEL_THRESHOLD": &c.ParallelThreshold,
		"WORKER_POOL_SIZE":   &c.WorkerPoolSize,
		"CHUNK_SIZE":         &c.ChunkSize,
		"MAX_PARALLELISM":    &c.MaxParallelism,
		"OUTPUT_MAX_ROWS":    &c.Output.MaxRows,
	}
	for key, dst := range ints {
		if val, ok := lookup(envPrefix + key); ok && val != "" {
			parsed, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("parsing %s%s: %w", envPrefix, key, err)
			}
			*dst = parsed
		}
	}

	strs := map[string]*string{
		"STORAGE_ROOT":       &c.StorageRoot,
		"DATE_LAYOUT":        &c.DateLayout,
		"DELIMITER":          &c.Delimiter,
		"OUTPUT_FORMAT":      &c.Output.Format,
		"OUTPUT_DIR":         &c.Output.Dir,
		"OUTPUT_COMPRESSION": &c.Output.Compression,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
	}
	for key, dst := range strs {
		if val, ok := lookup(envPrefix + key); ok && val != "" {
			*dst = val
		}
	}

	if val, ok := lookup(envPrefix + "METRICS_COLLECTION"); ok && val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %sMETRICS_COLLECTION: %w", envPrefix, err)
		}
		c.MetricsCollection = parsed
	}

	return nil
}
