// Package database opens the gorm connection behind the "db" binding.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/km-arc/go-ioc/framework/config"
)

// slowQuery is the latency above which a query is logged at Warn.
const slowQuery = 200 * time.Millisecond

// Open connects to cfg.Connection (sqlite | mysql | postgres) at cfg.DSN.
// Queries are logged through log; a nil log discards them.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialect(cfg.Connection, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Connection, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Close closes db's connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialect(connection, dsn string) (gorm.Dialector, error) {
	if dsn == "" {
		return nil, errors.New("database: DSN is required")
	}
	switch connection {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("database: unsupported connection %q", connection)
}

// Logger adapts zap to gorm's logger.Interface. Failed queries other than
// gorm.ErrRecordNotFound log at Error, slow ones at Warn, the rest at Debug.
type Logger struct {
	log   *zap.Logger
	level logger.LogLevel
}

func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log.Named("gorm"), level: logger.Info}
}

func (l *Logger) LogMode(level logger.LogLevel) logger.Interface {
	return &Logger{log: l.log, level: level}
}

func (l *Logger) Info(_ context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		l.log.Sugar().Infof(msg, data...)
	}
}

func (l *Logger) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		l.log.Sugar().Warnf(msg, data...)
	}
}

func (l *Logger) Error(_ context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		l.log.Sugar().Errorf(msg, data...)
	}
}

func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("duration", elapsed)}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		l.log.Error("query failed", append(fields, zap.Error(err))...)
	case elapsed > slowQuery && l.level >= logger.Warn:
		l.log.Warn("slow query", fields...)
	case l.level >= logger.Info:
		l.log.Debug("query", fields...)
	}
}
