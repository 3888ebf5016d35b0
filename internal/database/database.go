// Package database opens the application database from configuration.
// Both dialects go through database/sql, so the rest of the service
// never needs to know which engine is underneath.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/askdb/askdb/internal/config"
)

// Open opens and pings the database described by cfg. The returned pool
// is shared by the whole process; callers must Close it on shutdown.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}

	driver, err := driverName(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func driverName(dialect config.Dialect) (string, error) {
	switch dialect {
	case config.DialectPostgres:
		return "pgx", nil
	case config.DialectDuckDB:
		return "duckdb", nil
	default:
		return "", fmt.Errorf("unsupported database dialect: %q", dialect)
	}
}

// DisplayName is the dialect name used in prompts so the model targets
// the right SQL flavor.
func DisplayName(dialect config.Dialect) string {
	switch dialect {
	case config.DialectDuckDB:
		return "DuckDB"
	default:
		return "PostgreSQL"
	}
}
