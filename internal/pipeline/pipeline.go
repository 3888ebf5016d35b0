// Package pipeline orchestrates one natural-language query from question
// to response: schema introspection, SQL generation, policy validation,
// execution, and summarization, in that fixed order. Each stage is a
// terminal failure point except summarization, which only degrades.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/nlsql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlpolicy"
)

// Response is the unit returned to the caller on success. It is built
// once per request and never mutated afterward.
type Response struct {
	Success bool           `json:"success"`
	Query   string         `json:"query"`
	SQL     string         `json:"sql"`
	Results []executor.Row `json:"results"`
	Summary string         `json:"summary"`
}

type Pipeline struct {
	Schema     schema.Provider
	Generator  *nlsql.Generator
	Validator  sqlpolicy.Validator
	Executor   executor.Executor
	Summarizer *nlsql.Summarizer
	Logger     *slog.Logger
}

// Run executes the full pipeline for one question. Failures come back
// as *Error; no stage is retried.
func (p *Pipeline) Run(ctx context.Context, question string) (Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return p.fail(&Error{Kind: KindBadRequest, Message: "No query provided"})
	}

	description, err := p.runDescribe(ctx)
	if err != nil {
		return p.fail(&Error{
			Kind:    KindSchemaUnavailable,
			Message: fmt.Sprintf("failed to describe database schema: %v", err),
			cause:   err,
		})
	}

	sqlText, err := p.runGenerate(ctx, question, description)
	if err != nil {
		return p.fail(&Error{
			Kind:    KindGenerationFailed,
			Message: fmt.Sprintf("Error generating SQL: %v", err),
			cause:   err,
		})
	}
	p.debug(ctx, "sql generated", slog.String("sql", sqlText))

	if result := p.Validator.Validate(sqlText, description); !result.Accepted {
		return p.fail(&Error{
			Kind:         KindValidationRejected,
			Message:      fmt.Sprintf("Invalid SQL query: %s", result.Reason),
			GeneratedSQL: sqlText,
		})
	}

	rows, err := p.runExecute(ctx, sqlText)
	if err != nil {
		return p.fail(&Error{
			Kind:         KindExecutionFailed,
			Message:      fmt.Sprintf("Error executing query: %v", err),
			GeneratedSQL: sqlText,
			cause:        err,
		})
	}

	summary := p.runSummarize(ctx, question, rows)

	observability.ObservePipelineRun("success")
	p.debug(ctx, "pipeline completed", slog.Int("rows", len(rows)))
	return Response{
		Success: true,
		Query:   question,
		SQL:     sqlText,
		Results: rows,
		Summary: summary,
	}, nil
}

func (p *Pipeline) runDescribe(ctx context.Context) (schema.Description, error) {
	start := time.Now()
	description, err := p.Schema.Describe(ctx)
	observability.ObservePipelineStage("describe_schema", time.Since(start))
	return description, err
}

func (p *Pipeline) runGenerate(ctx context.Context, question string, description schema.Description) (string, error) {
	start := time.Now()
	sqlText, err := p.Generator.Generate(ctx, question, description)
	observability.ObservePipelineStage("generate_sql", time.Since(start))
	return sqlText, err
}

func (p *Pipeline) runExecute(ctx context.Context, sqlText string) ([]executor.Row, error) {
	start := time.Now()
	rows, err := p.Executor.Execute(ctx, sqlText)
	observability.ObservePipelineStage("execute_sql", time.Since(start))
	return rows, err
}

func (p *Pipeline) runSummarize(ctx context.Context, question string, rows []executor.Row) string {
	start := time.Now()
	summary := p.Summarizer.Summarize(ctx, question, rows)
	observability.ObservePipelineStage("summarize", time.Since(start))
	return summary
}

func (p *Pipeline) fail(pipelineErr *Error) (Response, error) {
	observability.ObservePipelineRun(string(pipelineErr.Kind))
	if p.Logger != nil {
		p.Logger.Warn("pipeline failed",
			slog.String("kind", string(pipelineErr.Kind)),
			slog.String("error", pipelineErr.Message),
		)
	}
	return Response{}, pipelineErr
}

func (p *Pipeline) debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if p.Logger == nil {
		return
	}
	p.Logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}
