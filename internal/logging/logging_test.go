package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/gymwrap/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "gymwrap.log")
	logger, err := logging.New(logging.Options{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Debug("episode done", zap.Float64("return", 21))
	logging.Sync(logger)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"episode done"`)
	assert.Contains(t, string(data), `"return":21`)
}

func TestNewLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gymwrap.log")
	logger, err := logging.New(logging.Options{Level: "warn", File: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	logging.Sync(logger)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "loud"})
	assert.Error(t, err)
}
