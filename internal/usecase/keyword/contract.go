package keyword

import (
	"context"

	"github.com/kailas-cloud/recollect/internal/domain"
)

// Completer sends a prompt to the LLM gateway.
type Completer interface {
	Complete(ctx context.Context, p domain.Prompt) (domain.Completion, error)
}
