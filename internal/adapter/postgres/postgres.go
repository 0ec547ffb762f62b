// Package postgres provides the PostgreSQL connection pool, migration runner
// and plan store.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql (needed by goose)
	"github.com/pressly/goose/v3"

	"github.com/Strob0t/PlanForge/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewPool creates a pgxpool connection pool from a config.Postgres struct.
func NewPool(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// withMigrationDB opens a database/sql handle for goose and closes it after fn.
func withMigrationDB(dsn string, fn func(db *sql.DB) error) error {
	goose.SetBaseFS(migrations)

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return fn(db)
}

// RunMigrations applies all pending goose migrations from the embedded SQL files.
func RunMigrations(ctx context.Context, dsn string) error {
	return withMigrationDB(dsn, func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	})
}

// RollbackMigrations rolls back the last N migrations.
func RollbackMigrations(ctx context.Context, dsn string, steps int) error {
	return withMigrationDB(dsn, func(db *sql.DB) error {
		for range steps {
			if err := goose.DownContext(ctx, db, "migrations"); err != nil {
				return fmt.Errorf("rollback: %w", err)
			}
		}
		return nil
	})
}

// MigrationVersion returns the current migration version.
func MigrationVersion(ctx context.Context, dsn string) (int64, error) {
	var version int64
	err := withMigrationDB(dsn, func(db *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("get version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}
