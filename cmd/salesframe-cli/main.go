package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/paveg/salesframe"
	"github.com/paveg/salesframe/internal/config"
	"github.com/paveg/salesframe/internal/logging"
	"github.com/paveg/salesframe/internal/monitoring"
	"github.com/paveg/salesframe/internal/report"
	"github.com/paveg/salesframe/internal/version"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func usage(fs *flag.FlagSet, stderr io.Writer) func() {
	return func() {
		fmt.Fprintf(stderr, "salesframe quarterly sales analysis (version %s)\n\n", version.Version)
		fmt.Fprintf(stderr, "Usage: salesframe-cli [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEnvironment variables prefixed with SALESFRAME_ override the config file.\n")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("salesframe-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs, stderr)

	configPath := fs.String("config", "", "Path to a YAML or JSON config file")
	format := fs.String("format", "", "Output format: text, csv, json, parquet or xlsx")
	outDir := fs.String("out", "", "Output directory for file formats")
	storageRoot := fs.String("storage", "", "Directory the source paths are resolved against")
	maxRows := fs.Int("rows", 0, "Rows per table in text output")
	verbose := fs.Bool("verbose", false, "Log at debug level and print stage metrics")
	versionFlag := fs.Bool("v", false, "Print version and exit")
	fs.BoolVar(versionFlag, "version", false, "Print version and exit") // alias

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	if *versionFlag {
		fmt.Fprint(stdout, version.Info().String())
		return exitOK
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *storageRoot != "" {
		cfg.StorageRoot = *storageRoot
	}
	if *maxRows > 0 {
		cfg.Output.MaxRows = *maxRows
	}
	if *verbose {
		cfg.Log.Level = "debug"
		cfg.MetricsCollection = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: invalid configuration: %v\n", err)
		return exitUsage
	}

	logger, err := logging.New(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	reporter, err := report.New(cfg.Output, stdout, report.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	var metrics *monitoring.MetricsCollector
	if cfg.MetricsCollection {
		metrics = monitoring.NewMetricsCollector(true)
	}

	rep, err := salesframe.Run(ctx, &cfg,
		salesframe.WithLogger(logger),
		salesframe.WithMetrics(metrics),
	)
	if err != nil {
		logger.WithError(err).Error("run failed")
		return exitError
	}
	defer rep.Release()

	if err := rep.Write(ctx, reporter); err != nil {
		logger.WithError(err).Error("report failed")
		return exitError
	}

	if *verbose {
		fmt.Fprintf(stderr, "\nrows: %d kept, %d dropped (%d incomplete, %d invalid, %d out of range)\n",
			rep.Stats.Kept, rep.Stats.Dropped(), rep.Stats.Incomplete, rep.Stats.Invalid, rep.Stats.OutOfRange)
		fmt.Fprint(stderr, metrics.GetSummary().String())
	}
	return exitOK
}
