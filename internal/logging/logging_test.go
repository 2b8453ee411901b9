package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/paveg/salesframe/internal/config"
	"github.com/paveg/salesframe/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json output carries fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := logging.New(config.LogConfig{Level: "debug", Format: "json"}, &buf)
		require.NoError(t, err)

		logger.WithField("stage", "cleanse").Debug("done")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "cleanse", entry["stage"])
		assert.Equal(t, "done", entry["msg"])
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := logging.New(config.LogConfig{Level: "warn", Format: "text"}, &buf)
		require.NoError(t, err)

		logger.Info("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := logging.New(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := logging.New(config.LogConfig{Level: "info", Format: "xml"}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}
