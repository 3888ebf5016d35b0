// Package nlsql turns natural-language questions into SQL and query
// results back into prose, through an injected chat-completion client.
package nlsql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/schema"
)

const generatorSystemPrompt = "You are a helpful assistant that converts natural language to SQL queries."

// Generator produces a single SQL statement for a question against a
// known schema. Dialect is the human-readable name pinned into the
// prompt and must match the connected database.
type Generator struct {
	Client      llm.Client
	Dialect     string
	Temperature float64
	MaxTokens   int
}

func (g *Generator) Generate(ctx context.Context, question string, description schema.Description) (string, error) {
	schemaJSON, err := serializeSchema(description)
	if err != nil {
		return "", fmt.Errorf("serialize schema: %w", err)
	}

	userPrompt := fmt.Sprintf(
		"You are a SQL expert. Given the following database schema:\n%s\n\nConvert the following natural language query into a SQL query:\n%q\n\nReturn ONLY the SQL query, nothing else. The query should be compatible with %s.",
		schemaJSON,
		question,
		g.Dialect,
	)

	content, err := g.Client.Complete(ctx, llm.Request{
		System:      generatorSystemPrompt,
		User:        userPrompt,
		Temperature: g.Temperature,
		MaxTokens:   g.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}

	sqlText := StripSQLFences(content)
	if sqlText == "" {
		return "", fmt.Errorf("model returned empty SQL")
	}
	return sqlText, nil
}

// serializeSchema renders the schema as JSON with tables in sorted
// order, so identical schemas always produce identical prompts.
func serializeSchema(description schema.Description) (string, error) {
	type tableSchema struct {
		Table   string          `json:"table"`
		Columns []schema.Column `json:"columns"`
	}

	tables := make([]tableSchema, 0, len(description))
	for _, name := range description.Tables() {
		tables = append(tables, tableSchema{Table: name, Columns: description[name]})
	}
	encoded, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// StripSQLFences removes a surrounding markdown code fence from model
// output. Input without fences passes through unchanged, so the call is
// idempotent.
func StripSQLFences(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
