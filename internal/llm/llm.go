package llm

import "context"

// Request is one chat completion: a system/user message pair with
// sampling and length bounds chosen by the caller.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
