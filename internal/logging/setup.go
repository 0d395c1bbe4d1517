package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process-wide logger.
type Options struct {
	// Debug enables debug-level logging.
	Debug bool

	// File, when set, sends log output to a size-rotated file instead of
	// stderr. Stdout is never used: the stdio transport owns it.
	File string

	// MaxSizeMB is the rotation threshold for the log file (default 10).
	MaxSizeMB int

	// MaxBackups is the number of rotated files to keep (default 3).
	MaxBackups int
}

// Setup configures slog's default logger according to opts and returns it.
func Setup(opts Options) *slog.Logger {
	var out io.Writer = os.Stderr
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			Compress:   true,
		}
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
