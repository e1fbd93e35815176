package domain

import "context"

// Prompt is a single LLM request.
type Prompt struct {
	System string
	User   string
	// JSON asks the provider for a machine-parseable JSON object reply.
	JSON bool
	// Temperature is passed through when non-zero.
	Temperature float32
}

// Completion carries the generated text and token usage through the decorator chain.
type Completion struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}

// Completer is the shared LLM gateway contract between layers.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (Completion, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
