package keyword

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/domain"
	domkw "github.com/kailas-cloud/recollect/internal/domain/keyword"
	"github.com/kailas-cloud/recollect/internal/logger"
)

// Service extracts categorized search keywords from free text.
// Extraction never fails: any gateway or parse problem yields an empty set.
type Service struct {
	llm         Completer
	temperature float32
}

// New creates a keyword extraction service.
func New(llm Completer, temperature float32) *Service {
	return &Service{llm: llm, temperature: temperature}
}

// Extract classifies the query's terms into facets.
func (s *Service) Extract(ctx context.Context, query string) domkw.Set {
	return s.run(ctx, "extract", query, domain.Prompt{
		System:      extractSystemPrompt,
		User:        extractUserPrompt(query),
		JSON:        true,
		Temperature: s.temperature,
	})
}

// ExtractBroader asks for shorter, more generic terms than previous.
func (s *Service) ExtractBroader(ctx context.Context, query string, previous domkw.Set) domkw.Set {
	return s.run(ctx, "broaden", query, domain.Prompt{
		System:      broaderSystemPrompt,
		User:        broaderUserPrompt(query, previous),
		JSON:        true,
		Temperature: s.temperature,
	})
}

func (s *Service) run(ctx context.Context, op, query string, p domain.Prompt) domkw.Set {
	log := logger.FromContext(ctx).With(zap.String("op", "keyword."+op))

	if strings.TrimSpace(query) == "" {
		return domkw.Empty()
	}

	completion, err := s.llm.Complete(ctx, p)
	if err != nil {
		log.Warn("Keyword extraction failed", zap.Error(err))
		return domkw.Empty()
	}

	set, err := Parse(completion.Text)
	if err != nil {
		log.Warn("Keyword reply unparseable",
			zap.Error(err),
			zap.Int("reply_len", len(completion.Text)),
		)
		return domkw.Empty()
	}

	log.Debug("Keywords extracted", zap.Strings("terms", set.All()))
	return set
}
