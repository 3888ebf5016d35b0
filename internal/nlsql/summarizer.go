package nlsql

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
)

const (
	summarizerSystemPrompt = "You are a helpful data analyst that explains query results in clear, concise natural language. Focus on the key insights and patterns in the data."

	emptyResultSummary = "No results found for your query."

	// Rows included in the summary prompt; the full result set is
	// never shipped to the model.
	summarySampleRows = 5
)

// Summarizer describes query results in prose. It never fails: when the
// model call errors the summary degrades to a deterministic template
// built from local data only.
type Summarizer struct {
	Client      llm.Client
	Temperature float64
	MaxTokens   int
	Logger      *slog.Logger
}

func (s *Summarizer) Summarize(ctx context.Context, question string, rows []executor.Row) string {
	if len(rows) == 0 {
		return emptyResultSummary
	}

	columns := columnNames(rows[0])
	prompt, err := buildSummaryPrompt(question, rows)
	if err != nil {
		return s.fallback(ctx, err, len(rows), columns)
	}

	content, err := s.Client.Complete(ctx, llm.Request{
		System:      summarizerSystemPrompt,
		User:        prompt,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	})
	if err != nil {
		return s.fallback(ctx, err, len(rows), columns)
	}
	summary := strings.TrimSpace(content)
	if summary == "" {
		return s.fallback(ctx, fmt.Errorf("model returned empty summary"), len(rows), columns)
	}
	return summary
}

func (s *Summarizer) fallback(ctx context.Context, cause error, rowCount int, columns []string) string {
	observability.IncrementSummaryFallback()
	if s.Logger != nil {
		s.Logger.WarnContext(ctx, "summary degraded to fallback", slog.Any("error", cause))
	}
	return fmt.Sprintf("Found %d results with columns: %s.", rowCount, strings.Join(columns, ", "))
}

func buildSummaryPrompt(question string, rows []executor.Row) (string, error) {
	sampleCount := len(rows)
	if sampleCount > summarySampleRows {
		sampleCount = summarySampleRows
	}

	sample := make([]map[string]any, 0, sampleCount)
	for _, row := range rows[:sampleCount] {
		safeRow := make(map[string]any, len(row))
		for column, value := range row {
			if isEmbeddingColumn(column) {
				continue
			}
			safeRow[column] = value
		}
		sample = append(sample, safeRow)
	}

	sampleJSON, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result sample: %w", err)
	}

	return fmt.Sprintf(
		"You are a data analyst. Given the following query and its results, provide a concise, natural language summary of what the data shows. Be specific about the numbers and any important patterns or insights. Keep it to 2-3 sentences maximum.\n\nQuery: %s\n\nResults (showing %d of %d rows):\n%s",
		question,
		sampleCount,
		len(rows),
		string(sampleJSON),
	), nil
}

// isEmbeddingColumn filters columns whose payloads are large vector
// blobs with no value to a prose summary.
func isEmbeddingColumn(column string) bool {
	lower := strings.ToLower(column)
	return strings.Contains(lower, "vector") || strings.Contains(lower, "embedding")
}

func columnNames(row executor.Row) []string {
	columns := make([]string, 0, len(row))
	for column := range row {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
