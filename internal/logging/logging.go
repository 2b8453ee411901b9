// Package logging builds the structured logger shared by all pipeline stages.
package logging

import (
	"fmt"
	"io"

	"github.com/paveg/salesframe/internal/config"
	"github.com/sirupsen/logrus"
)

// New returns a logger configured from cfg that writes to out.
func New(cfg config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unsupported log format: %q", cfg.Format)
	}

	return logger, nil
}

// Discard returns a logger that drops everything. Used as the default when
// callers do not supply one.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
