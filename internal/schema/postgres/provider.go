package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/askdb/askdb/internal/schema"
)

const columnsQuery = `
SELECT c.table_name,
       c.column_name,
       c.data_type,
       c.is_nullable = 'YES' AS nullable,
       COALESCE(pk.is_pk, FALSE) AS primary_key
FROM information_schema.columns c
LEFT JOIN (
    SELECT kcu.table_schema, kcu.table_name, kcu.column_name, TRUE AS is_pk
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
      ON tc.constraint_name = kcu.constraint_name
     AND tc.table_schema = kcu.table_schema
    WHERE tc.constraint_type = 'PRIMARY KEY'
) pk ON pk.table_schema = c.table_schema
    AND pk.table_name = c.table_name
    AND pk.column_name = c.column_name
WHERE c.table_schema = $1
ORDER BY c.table_name, c.ordinal_position`

// Provider introspects a Postgres-family database through
// information_schema, scoped to a single namespace.
type Provider struct {
	db         *sql.DB
	schemaName string
}

func NewProvider(db *sql.DB, schemaName string) *Provider {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Provider{db: db, schemaName: schemaName}
}

func (p *Provider) Describe(ctx context.Context) (schema.Description, error) {
	rows, err := p.db.QueryContext(ctx, columnsQuery, p.schemaName)
	if err != nil {
		return nil, fmt.Errorf("introspect schema %q: %w", p.schemaName, err)
	}
	defer func() { _ = rows.Close() }()

	description := schema.Description{}
	for rows.Next() {
		var tableName string
		var column schema.Column
		if err := rows.Scan(&tableName, &column.Name, &column.Type, &column.Nullable, &column.PrimaryKey); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		description[tableName] = append(description[tableName], column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}
	return description, nil
}
