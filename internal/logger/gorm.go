package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's SQL tracing into slog. Record-not-found is not an
// error for callers here, so it is dropped.
type GormLogger struct {
	Slow  time.Duration
	Level gormlogger.LogLevel
}

func NewGormLogger(slow time.Duration) *GormLogger {
	return &GormLogger{Slow: slow, Level: gormlogger.Warn}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.Level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= gormlogger.Info {
		slog.InfoContext(ctx, "gorm", "msg", fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= gormlogger.Warn {
		slog.WarnContext(ctx, "gorm", "msg", fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= gormlogger.Error {
		slog.ErrorContext(ctx, "gorm", "msg", fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.Level >= gormlogger.Error:
		sql, rows := fc()
		slog.ErrorContext(ctx, "gorm.query_failed", "err", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case l.Slow > 0 && elapsed > l.Slow && l.Level >= gormlogger.Warn:
		sql, rows := fc()
		slog.WarnContext(ctx, "gorm.slow_query", "elapsed", elapsed, "rows", rows, "sql", sql)
	case l.Level >= gormlogger.Info:
		sql, rows := fc()
		slog.DebugContext(ctx, "gorm.query", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
