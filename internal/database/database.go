// Package database handles SQL connections and the SQL-backed storage slots.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"postfarm/internal/config"
	"postfarm/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// queryLogger routes gorm's statement log into the application logger. Only
// failed and slow statements are reported unless LOG_LEVEL is debug.
type queryLogger struct {
	level         logger.LogLevel
	slowThreshold time.Duration
}

func newQueryLogger(level logger.LogLevel) *queryLogger {
	return &queryLogger{level: level, slowThreshold: 200 * time.Millisecond}
}

// gormLevel maps LOG_LEVEL onto gorm's coarser levels.
func gormLevel(appLevel string) logger.LogLevel {
	switch observability.ParseLevel(appLevel) {
	case slog.LevelDebug:
		return logger.Info
	case slog.LevelError:
		return logger.Error
	default:
		return logger.Warn
	}
}

func (l *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *queryLogger) emit(ctx context.Context, at logger.LogLevel, level slog.Level, msg string, attrs ...any) {
	if l.level < at {
		return
	}
	attrs = append(attrs, slog.String("correlation_id", observability.ExtractCorrelationID(ctx)))
	observability.GlobalLogger.Log(ctx, level, msg, attrs...)
}

func (l *queryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Info, slog.LevelInfo, fmt.Sprintf(msg, data...))
}

func (l *queryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Warn, slog.LevelWarn, fmt.Sprintf(msg, data...))
}

func (l *queryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Error, slog.LevelError, fmt.Sprintf(msg, data...))
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{slog.String("sql", sql), slog.Int64("rows", rows), slog.Duration("elapsed", elapsed)}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.emit(ctx, logger.Error, slog.LevelError, "slot query failed", append(attrs, slog.String("error", err.Error()))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		l.emit(ctx, logger.Warn, slog.LevelWarn, "slot query slow", attrs...)
	default:
		l.emit(ctx, logger.Info, slog.LevelDebug, "slot query", attrs...)
	}
}

// Dialector picks the gorm dialector for the configured SQL driver.
// The sqlite driver falls back to <STORAGE_PATH>/postfarm.db when no DSN is set.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		dsn := cfg.DatabaseDSN
		if dsn == "" {
			dsn = filepath.Join(cfg.StoragePath, "postfarm.db")
		}
		return sqlite.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DatabaseDSN), nil
	default:
		return nil, fmt.Errorf("storage driver %q is not a SQL driver", cfg.StorageDriver)
	}
}

// Connect opens a database connection for the configured SQL driver and
// migrates the slot table.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return open(dialector, gormLevel(cfg.LogLevel))
}

// Open opens the given dialector and migrates the slot table, logging
// failed and slow statements.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return open(dialector, logger.Warn)
}

func open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newQueryLogger(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Slot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(5)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	observability.GlobalLogger.Info("slot database ready",
		slog.String("dialect", db.Dialector.Name()),
		slog.String("table", Slot{}.TableName()))
	return db, nil
}
