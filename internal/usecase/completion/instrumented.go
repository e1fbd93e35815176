package completion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/domain"
)

// InstrumentedCompleter wraps a Completer with per-request usage accounting and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
// This layer owns the request-scoped usage collector only.
type InstrumentedCompleter struct {
	inner    domain.Completer
	provider string
	model    string
	logger   *zap.Logger
}

// NewInstrumentedCompleter wraps a completer with usage tracking and observability.
func NewInstrumentedCompleter(
	inner domain.Completer, provider, model string, logger *zap.Logger,
) *InstrumentedCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedCompleter{
		inner:    inner,
		provider: provider,
		model:    model,
		logger:   logger,
	}
}

// Complete delegates to the inner completer and records usage on the request context.
func (c *InstrumentedCompleter) Complete(
	ctx context.Context, p domain.Prompt,
) (domain.Completion, error) {
	start := time.Now()

	result, err := c.inner.Complete(ctx, p)

	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Completion request failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Completion{}, fmt.Errorf("complete: %w", err)
	}

	domain.UsageFromContext(ctx).Record(result.TotalTokens)

	c.logger.Debug("Completion request completed",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("reply_len", len(result.Text)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
