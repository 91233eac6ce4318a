package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var queryLogLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
}

// queryLogger routes gorm's statement log into zap, tagged with the request id
type queryLogger struct {
	log   *logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func newQueryLogger(log *logger.Logger, level string, slow time.Duration) *queryLogger {
	lvl, ok := queryLogLevels[level]
	if !ok {
		lvl = gormlogger.Warn
	}
	return &queryLogger{log: log, level: lvl, slow: slow}
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *queryLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.WithContext(ctx).Info(fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.WithContext(ctx).Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.WithContext(ctx).Error(fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.slow > 0 && elapsed > l.slow

	var emit func(string, ...zap.Field)
	log := l.log.WithContext(ctx)
	switch {
	case failed && l.level >= gormlogger.Error:
		emit = log.Error
	case slow && l.level >= gormlogger.Warn:
		emit = log.Warn
	case l.level >= gormlogger.Info:
		emit = log.Debug
	default:
		return
	}

	query, rows := fc()
	fields := []zap.Field{
		zap.String("sql", query),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	switch {
	case failed:
		emit("query failed", append(fields, zap.Error(err))...)
	case slow:
		emit("slow query", append(fields, zap.Duration("threshold", l.slow))...)
	default:
		emit("query", fields...)
	}
}
