package infra

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Zenithi77/sain-league/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&config.Config{LogLevel: "warn"}, &buf)

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	logger = newLogger(&config.Config{LogLevel: "bogus"}, &buf)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&config.Config{LogFormat: "json"}, &buf)

	logger.Info("repair finished", "teams", 16)

	assert.Contains(t, buf.String(), `"msg":"repair finished"`)
	assert.Contains(t, buf.String(), `"teams":16`)
}

func TestLoggerMirrorsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixencoding.log")
	var buf bytes.Buffer

	logger := newLogger(&config.Config{LogFile: path}, &buf)
	logger.Info("backup created")
	CloseLogger()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backup created")
	assert.Contains(t, buf.String(), "backup created")
}

func TestLoggerWarnsWhenFileCannotBeOpened(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "fixencoding.log")
	var buf bytes.Buffer

	logger := newLogger(&config.Config{LogFile: path}, &buf)
	logger.Info("backup created")

	assert.Contains(t, buf.String(), "Failed to open LOG_FILE")
	assert.Contains(t, buf.String(), "missing-dir")
	assert.Contains(t, buf.String(), "backup created")
	assert.NoFileExists(t, path)
}
