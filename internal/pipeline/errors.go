package pipeline

// Kind classifies a terminal pipeline failure. Every kind maps to a
// client-visible error; summary degradation is not a kind because it
// never terminates a run.
type Kind string

const (
	KindBadRequest         Kind = "bad_request"
	KindSchemaUnavailable  Kind = "schema_unavailable"
	KindGenerationFailed   Kind = "generation_failed"
	KindValidationRejected Kind = "validation_rejected"
	KindExecutionFailed    Kind = "execution_failed"
)

// Error is a terminal pipeline failure. GeneratedSQL is populated only
// for stages that run after SQL generation, so callers can show what
// was attempted.
type Error struct {
	Kind         Kind
	Message      string
	GeneratedSQL string
	cause        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}
