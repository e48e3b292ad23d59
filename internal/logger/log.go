package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/truongnet3103/albion-GE/internal/config"

	"gopkg.in/lumberjack.v2"
)

// Init installs the process-wide slog logger. The returned closer flushes the
// rotating file, if one was configured.
func Init(cfg config.LogConfig) io.Closer {
	level := ParseLevel(cfg.Level)

	var writers []io.Writer
	var file *lumberjack.Logger
	if cfg.Console {
		writers = append(writers, os.Stdout)
	}
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		}
		writers = append(writers, file)
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	slog.SetDefault(slog.New(newHandler(io.MultiWriter(writers...), cfg.Format, level)))
	Info("logger initialized", "level", cfg.Level, "format", cfg.Format, "file", cfg.File)

	if file == nil {
		return nopCloser{}
	}
	return file
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Component returns a logger tagged with the subsystem name.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

func Info(msg string, args ...any)  { slog.Info(msg, args...) }
func Warn(msg string, args ...any)  { slog.Warn(msg, args...) }
func Error(msg string, args ...any) { slog.Error(msg, args...) }
func Debug(msg string, args ...any) { slog.Debug(msg, args...) }

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
