// Package logging builds the run logger: slog text output on stderr,
// teed into a timestamped log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Setup creates the log directory, opens a per-run log file, and returns
// a logger writing to both stderr and the file. The returned closer
// flushes and closes the file.
func Setup(logDir string, level slog.Level, now time.Time) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: create directory %s: %w", logDir, err)
	}

	path := filepath.Join(logDir, fmt.Sprintf("niftypool_%s.log", now.Format("20060102_150405")))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open %s: %w", path, err)
	}

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, f), &slog.HandlerOptions{
		Level: level,
	}))
	logger.Info("logging initialized", "file", path)

	return logger, f.Close, nil
}
