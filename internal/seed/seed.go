// Package seed installs the demo ecommerce dataset: three customers,
// four products, five orders. It is idempotent so the API can run it
// at startup without clobbering existing data.
package seed

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/askdb/askdb/internal/config"
)

//go:embed sql/*.sql
var embeddedFS embed.FS

type Runner struct {
	fsys fs.FS
}

func NewRunner() *Runner {
	return &Runner{fsys: embeddedFS}
}

// Run creates the demo tables and, when they are empty, inserts the
// sample rows. It reports whether data was inserted.
func (r *Runner) Run(ctx context.Context, db *sql.DB, dialect config.Dialect) (bool, error) {
	schemaScript, dataScript, err := loadScripts(r.fsys, dialect)
	if err != nil {
		return false, err
	}

	for _, statement := range splitStatements(schemaScript) {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return false, fmt.Errorf("create demo tables: %w", err)
		}
	}

	var existing int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&existing); err != nil {
		return false, fmt.Errorf("check existing data: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, statement := range splitStatements(dataScript) {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return false, fmt.Errorf("insert demo data: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit demo data: %w", err)
	}
	return true, nil
}

func loadScripts(fsys fs.FS, dialect config.Dialect) (string, string, error) {
	var name string
	switch dialect {
	case config.DialectPostgres:
		name = "postgres"
	case config.DialectDuckDB:
		name = "duckdb"
	default:
		return "", "", fmt.Errorf("unsupported seed dialect: %q", dialect)
	}

	schemaScript, err := fs.ReadFile(fsys, "sql/"+name+".schema.sql")
	if err != nil {
		return "", "", fmt.Errorf("read %s schema script: %w", name, err)
	}
	dataScript, err := fs.ReadFile(fsys, "sql/"+name+".data.sql")
	if err != nil {
		return "", "", fmt.Errorf("read %s data script: %w", name, err)
	}
	return string(schemaScript), string(dataScript), nil
}

// splitStatements breaks a script into single statements so it works
// with drivers that reject multi-statement Exec calls.
func splitStatements(script string) []string {
	var statements []string
	for _, chunk := range strings.Split(script, ";") {
		statement := strings.TrimSpace(chunk)
		if statement == "" {
			continue
		}
		statements = append(statements, statement)
	}
	return statements
}
