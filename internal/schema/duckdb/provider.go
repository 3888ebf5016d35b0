package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/askdb/askdb/internal/schema"
)

const tablesQuery = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = ? AND table_type = 'BASE TABLE'
ORDER BY table_name`

const tableInfoQuery = `SELECT name, type, "notnull", pk FROM pragma_table_info(?)`

// Provider introspects an embedded DuckDB database. Table listing goes
// through information_schema; column detail comes from pragma_table_info,
// which carries the primary-key flag directly.
type Provider struct {
	db         *sql.DB
	schemaName string
}

func NewProvider(db *sql.DB, schemaName string) *Provider {
	if schemaName == "" {
		schemaName = "main"
	}
	return &Provider{db: db, schemaName: schemaName}
}

func (p *Provider) Describe(ctx context.Context) (schema.Description, error) {
	rows, err := p.db.QueryContext(ctx, tablesQuery, p.schemaName)
	if err != nil {
		return nil, fmt.Errorf("list tables in schema %q: %w", p.schemaName, err)
	}
	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}
	_ = rows.Close()

	description := schema.Description{}
	for _, table := range tables {
		columns, err := p.describeTable(ctx, table)
		if err != nil {
			return nil, err
		}
		description[table] = columns
	}
	return description, nil
}

func (p *Provider) describeTable(ctx context.Context, table string) ([]schema.Column, error) {
	rows, err := p.db.QueryContext(ctx, tableInfoQuery, table)
	if err != nil {
		return nil, fmt.Errorf("introspect table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]schema.Column, 0)
	for rows.Next() {
		var column schema.Column
		var notNull, primaryKey bool
		if err := rows.Scan(&column.Name, &column.Type, &notNull, &primaryKey); err != nil {
			return nil, fmt.Errorf("scan column info for %q: %w", table, err)
		}
		column.Nullable = !notNull
		column.PrimaryKey = primaryKey
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column info for %q: %w", table, err)
	}
	return columns, nil
}
