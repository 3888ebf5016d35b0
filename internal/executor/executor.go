package executor

import (
	"context"
	"database/sql"
	"fmt"
)

// Row is one result row keyed by column name, with values already
// normalized for JSON transport.
type Row map[string]any

type Executor interface {
	Execute(ctx context.Context, sqlText string) ([]Row, error)
}

// SQLExecutor runs statements against a pooled database handle. Every
// statement gets a single attempt; rows are fully materialized before
// the connection goes back to the pool.
type SQLExecutor struct {
	db *sql.DB
}

func NewSQLExecutor(db *sql.DB) *SQLExecutor {
	return &SQLExecutor{db: db}
}

func (e *SQLExecutor) Execute(ctx context.Context, sqlText string) ([]Row, error) {
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			row[column] = NormalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
