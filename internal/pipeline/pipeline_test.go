package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/nlsql"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlpolicy"
)

type fakeProvider struct {
	description schema.Description
	err         error
	calls       int
}

func (f *fakeProvider) Describe(_ context.Context) (schema.Description, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.description, nil
}

type fakeLLM struct {
	content string
	err     error
	calls   int
}

func (f *fakeLLM) Complete(_ context.Context, _ llm.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

type fakeExecutor struct {
	rows  []executor.Row
	err   error
	calls int
	sql   string
}

func (f *fakeExecutor) Execute(_ context.Context, sqlText string) ([]executor.Row, error) {
	f.calls++
	f.sql = sqlText
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

var customersSchema = schema.Description{
	"customers": {
		{Name: "id", Type: "integer", PrimaryKey: true},
		{Name: "name", Type: "character varying"},
	},
}

func newPipeline(provider *fakeProvider, genClient, sumClient llm.Client, exec *fakeExecutor, tableCheck bool) *Pipeline {
	return &Pipeline{
		Schema:     provider,
		Generator:  &nlsql.Generator{Client: genClient, Dialect: "PostgreSQL", Temperature: 0.3, MaxTokens: 500},
		Validator:  sqlpolicy.Validator{TableCheck: tableCheck},
		Executor:   exec,
		Summarizer: &nlsql.Summarizer{Client: sumClient, Temperature: 0.3, MaxTokens: 200},
	}
}

func TestRunHappyPath(t *testing.T) {
	provider := &fakeProvider{description: customersSchema}
	gen := &fakeLLM{content: "SELECT COUNT(*) AS count FROM customers"}
	sum := &fakeLLM{content: "There are 3 customers."}
	exec := &fakeExecutor{rows: []executor.Row{{"count": int64(3)}}}

	p := newPipeline(provider, gen, sum, exec, false)
	response, err := p.Run(context.Background(), "How many customers do we have?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !response.Success {
		t.Fatal("Success = false")
	}
	if !strings.HasPrefix(response.SQL, "SELECT") {
		t.Fatalf("SQL = %q", response.SQL)
	}
	if len(response.Results) != 1 {
		t.Fatalf("Results = %d rows", len(response.Results))
	}
	if response.Summary != "There are 3 customers." {
		t.Fatalf("Summary = %q", response.Summary)
	}
	if response.Query != "How many customers do we have?" {
		t.Fatalf("Query = %q", response.Query)
	}
}

func TestRunEmptyQuestionFailsBeforeAnyCall(t *testing.T) {
	provider := &fakeProvider{description: customersSchema}
	gen := &fakeLLM{content: "SELECT 1"}
	exec := &fakeExecutor{}

	p := newPipeline(provider, gen, gen, exec, false)
	_, err := p.Run(context.Background(), "   ")
	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if pipelineErr.Kind != KindBadRequest {
		t.Fatalf("Kind = %q", pipelineErr.Kind)
	}
	if pipelineErr.Message != "No query provided" {
		t.Fatalf("Message = %q", pipelineErr.Message)
	}
	if provider.calls != 0 || gen.calls != 0 || exec.calls != 0 {
		t.Fatal("no external call should be made for an empty question")
	}
}

func TestRunSchemaFailureAbortsBeforeModelCall(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	gen := &fakeLLM{content: "SELECT 1"}
	exec := &fakeExecutor{}

	p := newPipeline(provider, gen, gen, exec, false)
	_, err := p.Run(context.Background(), "how many customers?")
	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if pipelineErr.Kind != KindSchemaUnavailable {
		t.Fatalf("Kind = %q", pipelineErr.Kind)
	}
	if pipelineErr.GeneratedSQL != "" {
		t.Fatalf("GeneratedSQL = %q, want empty", pipelineErr.GeneratedSQL)
	}
	if gen.calls != 0 {
		t.Fatal("model must not be called when schema introspection fails")
	}
}

func TestRunGenerationFailure(t *testing.T) {
	provider := &fakeProvider{description: customersSchema}
	gen := &fakeLLM{err: errors.New("model unavailable")}
	exec := &fakeExecutor{}

	p := newPipeline(provider, gen, gen, exec, false)
	_, err := p.Run(context.Background(), "how many customers?")
	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if pipelineErr.Kind != KindGenerationFailed {
		t.Fatalf("Kind = %q", pipelineErr.Kind)
	}
	if pipelineErr.GeneratedSQL != "" {
		t.Fatalf("GeneratedSQL = %q, want empty", pipelineErr.GeneratedSQL)
	}
	if exec.calls != 0 {
		t.Fatal("executor must not run after generation failure")
	}
}

func TestRunValidationRejectionCarriesSQL(t *testing.T) {
	provider := &fakeProvider{description: customersSchema}
	gen := &fakeLLM{content: "UPDATE customers SET name='x'"}
	exec := &fakeExecutor{}

	p := newPipeline(provider, gen, gen, exec, false)
	_, err := p.Run(context.Background(), "rename everyone")
	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if pipelineErr.Kind != KindValidationRejected {
		t.Fatalf("Kind = %q", pipelineErr.Kind)
	}
	if pipelineErr.GeneratedSQL != "UPDATE customers SET name='x'" {
		t.Fatalf("GeneratedSQL = %q", pipelineErr.GeneratedSQL)
	}
	if exec.calls != 0 {
		t.Fatal("database must never be touched for rejected SQL")
	}
}

func TestRunExecutionFailureCarriesSQL(t *testing.T) {
	provider := &fakeProvider{description: customersSchema}
	gen := &fakeLLM{content: "SELECT * FROM nonexistent_table"}
	exec := &fakeExecutor{err: errors.New(`relation "nonexistent_table" does not exist`)}

	p := newPipeline(provider, gen, gen, exec, false)
	_, err := p.Run(context.Background(), "show me the data")
	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if pipelineErr.Kind != KindExecutionFailed {
		t.Fatalf("Kind = %q", pipelineErr.Kind)
	}
	if pipelineErr.GeneratedSQL != "SELECT * FROM nonexistent_table" {
		t.Fatalf("GeneratedSQL = %q", pipelineErr.GeneratedSQL)
	}
	if !strings.Contains(pipelineErr.Message, "nonexistent_table") {
		t.Fatalf("Message = %q, want database error text", pipelineErr.Message)
	}
}

func TestRunSummaryDegradationDoesNotFailPipeline(t *testing.T) {
	provider := &fakeProvider{description: customersSchema}
	gen := &fakeLLM{content: "SELECT id, name FROM customers"}
	sum := &fakeLLM{err: errors.New("summary model down")}
	exec := &fakeExecutor{rows: []executor.Row{
		{"id": int64(1), "name": "John Doe"},
		{"id": int64(2), "name": "Jane Smith"},
	}}

	p := newPipeline(provider, gen, sum, exec, false)
	response, err := p.Run(context.Background(), "list customers")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !response.Success {
		t.Fatal("Success = false, want degraded success")
	}
	if response.Summary != "Found 2 results with columns: id, name." {
		t.Fatalf("Summary = %q", response.Summary)
	}
}

func TestRunTableCheckRejectsUnknownTable(t *testing.T) {
	provider := &fakeProvider{description: customersSchema}
	gen := &fakeLLM{content: "SELECT * FROM unknown_things"}
	exec := &fakeExecutor{}

	p := newPipeline(provider, gen, gen, exec, true)
	_, err := p.Run(context.Background(), "show unknown things")
	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if pipelineErr.Kind != KindValidationRejected {
		t.Fatalf("Kind = %q", pipelineErr.Kind)
	}
}
