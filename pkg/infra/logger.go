package infra

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/Zenithi77/sain-league/internal/config"
)

var (
	logFile   *os.File
	logFileMu sync.Mutex
)

// SetupLogger builds the process logger. Logs go to stderr because stdout carries the report.
func SetupLogger(cfg *config.Config) *slog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	w := out
	var openErr error
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			openErr = err
		} else {
			logFileMu.Lock()
			if logFile != nil {
				logFile.Close()
			}
			logFile = f
			logFileMu.Unlock()
			w = io.MultiWriter(out, f)
		}
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if strings.ToUpper(cfg.LogFormat) == "JSON" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if openErr != nil {
		logger.Warn("Failed to open LOG_FILE, logging to stderr only", "path", cfg.LogFile, "error", openErr)
	}
	return logger
}

// CloseLogger releases the log file opened by SetupLogger, if any.
func CloseLogger() {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
