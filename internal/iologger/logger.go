// Package iologger provides slog-based logging initialization and configuration.
package iologger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gnames/dwca-tools/pkg/config"
)

// LogFileName is the name of the log file inside the log directory.
const LogFileName = "dwca-tools.log"

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init initializes the global slog logger with the given configuration.
// Destination "file" truncates the log file in logDir. A log file opened by
// a previous Init call is closed.
func Init(logDir string, cfg config.LogConfig) error {
	mu.Lock()
	defer mu.Unlock()

	writer, file, err := openWriter(logDir, cfg.Destination)
	if err != nil {
		return err
	}

	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text", "tint":
		handler = slog.NewTextHandler(writer, handlerOpts)
	default:
		handler = slog.NewJSONHandler(writer, handlerOpts)
	}

	slog.SetDefault(slog.New(handler))

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	return nil
}

func openWriter(logDir, destination string) (io.Writer, *os.File, error) {
	switch destination {
	case "stdout":
		return os.Stdout, nil, nil
	case "file":
		logPath := filepath.Join(logDir, LogFileName)
		file, err := os.Create(logPath)
		if err != nil {
			return nil, nil, CreateLogFileError(logPath, err)
		}
		return file, file, nil
	default:
		return os.Stderr, nil, nil
	}
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
