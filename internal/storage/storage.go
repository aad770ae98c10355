// Package storage opens the connection to the hosted database. One pool is
// shared by the gorm repositories and the sqlx readers.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/budget-tracker/internal"
	budgetDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/budget"
	categoryDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/category"
	goalDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/goal"
	transactionDatamodel "github.com/frahmantamala/budget-tracker/internal/core/datamodel/transaction"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type DB struct {
	SQL    *sqlx.DB
	Gorm   *gorm.DB
	Driver string
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.SQL.PingContext(ctx)
}

// Models lists the gorm rows that make up the schema, parents first.
func Models() []interface{} {
	return []interface{}{
		&categoryDatamodel.Category{},
		&transactionDatamodel.Transaction{},
		&budgetDatamodel.Budget{},
		&goalDatamodel.Goal{},
	}
}

func gormConfig(logger *slog.Logger) *gorm.Config {
	level := gormlogger.Silent
	if logger != nil && logger.Enabled(context.Background(), slog.LevelDebug) {
		level = gormlogger.Warn
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func Open(cfg internal.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	switch cfg.DriverName() {
	case "sqlite":
		return OpenSQLite(cfg.Source, logger)
	default:
		return OpenPostgres(cfg, logger)
	}
}

// OpenPostgres connects through pgx and hands the same pool to gorm.
func OpenPostgres(cfg internal.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	const driver = "pgx"

	sqlDB, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), gormConfig(logger))
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	return &DB{SQL: sqlDB, Gorm: gdb, Driver: "postgres"}, nil
}

// OpenSQLite is for local development and tests. Foreign keys are enforced
// and an in-memory database is pinned to a single connection.
func OpenSQLite(dsn string, logger *slog.Logger) (*DB, error) {
	if !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}

	gdb, err := gorm.Open(sqlite.Open(dsn), gormConfig(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite pool: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	}

	return &DB{SQL: sqlx.NewDb(sqlDB, "sqlite3"), Gorm: gdb, Driver: "sqlite"}, nil
}

// AutoMigrate creates the schema from the gorm models. Postgres uses the SQL
// migrations instead; this is for sqlite.
func (d *DB) AutoMigrate() error {
	return d.Gorm.AutoMigrate(Models()...)
}
