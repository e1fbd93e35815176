package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/domain"
	"github.com/kailas-cloud/recollect/internal/domain/keyword"
	"github.com/kailas-cloud/recollect/internal/domain/ranked"
	"github.com/kailas-cloud/recollect/internal/domain/search/mode"
	"github.com/kailas-cloud/recollect/internal/domain/search/request"
	"github.com/kailas-cloud/recollect/internal/logger"
	"github.com/kailas-cloud/recollect/internal/metrics"
)

// NotFoundMessage is returned alongside an empty result list.
const NotFoundMessage = "作品が見つかりませんでした。"

// Response is the outcome of one search.
// Message is set iff Results is empty.
type Response struct {
	Results  []ranked.Result
	Keywords keyword.Set
	Message  string
}

// Config tunes the orchestration.
type Config struct {
	ResultLimit    int
	BroadenOnEmpty bool
}

// Service routes a validated request to retrieval or fictitious generation.
type Service struct {
	extractor KeywordExtractor
	retriever Retriever
	generator FictitiousGenerator
	cfg       Config
}

// New creates a search service.
func New(extractor KeywordExtractor, retriever Retriever, generator FictitiousGenerator, cfg Config) *Service {
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = DefaultResultLimit
	}
	return &Service{extractor: extractor, retriever: retriever, generator: generator, cfg: cfg}
}

// Handle executes the search. Only request validation problems and
// unexpected internal failures are returned as errors; upstream outages
// degrade to an empty response.
func (s *Service) Handle(ctx context.Context, req *request.Request) (Response, error) {
	var (
		resp Response
		err  error
	)

	switch req.Mode() {
	case mode.Retrieval:
		resp, err = s.retrieve(ctx, req)
	case mode.Fictitious:
		resp = s.fictitious(ctx, req)
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnknownMode, req.Mode())
	}
	if err != nil {
		metrics.SearchOutcomesTotal.WithLabelValues(string(req.Mode()), "error").Inc()
		return Response{}, err
	}

	outcome := "results"
	if len(resp.Results) == 0 {
		outcome = "empty"
		resp.Message = NotFoundMessage
	}
	metrics.SearchOutcomesTotal.WithLabelValues(string(req.Mode()), outcome).Inc()
	return resp, nil
}

func (s *Service) retrieve(ctx context.Context, req *request.Request) (Response, error) {
	if !s.retriever.Supports(req.Provider()) {
		return Response{}, fmt.Errorf("%w: %q is not configured", domain.ErrUnknownProvider, req.Provider())
	}
	log := logger.FromContext(ctx)

	set := s.extractor.Extract(ctx, req.Query())
	if set.IsEmpty() {
		log.Info("No keywords extracted; skipping retrieval")
		return Response{Keywords: set}, nil
	}

	results, err := s.retrieveAndScore(ctx, req, set)
	if err != nil {
		return Response{}, err
	}
	if len(results) > 0 || !s.cfg.BroadenOnEmpty {
		return Response{Results: results, Keywords: set}, nil
	}

	broader := s.extractor.ExtractBroader(ctx, req.Query(), set)
	if broader.IsEmpty() {
		return Response{Keywords: set}, nil
	}
	log.Info("Retrying with broader keywords",
		zap.Strings("previous", set.All()),
		zap.Strings("broader", broader.All()),
	)

	results, err = s.retrieveAndScore(ctx, req, broader)
	if err != nil {
		return Response{}, err
	}
	return Response{Results: results, Keywords: broader}, nil
}

func (s *Service) retrieveAndScore(
	ctx context.Context, req *request.Request, set keyword.Set,
) ([]ranked.Result, error) {
	matches, total, err := s.retriever.Retrieve(ctx, req.Provider(), set)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	results := Score(matches, total, s.cfg.ResultLimit)
	logger.FromContext(ctx).Debug("Scored catalog matches",
		zap.String("provider", string(req.Provider())),
		zap.Int("matches", len(matches)),
		zap.Int("pairs", total),
		zap.Int("results", len(results)),
	)
	return results, nil
}

func (s *Service) fictitious(ctx context.Context, req *request.Request) Response {
	return Response{Results: s.generator.Generate(ctx, req.Query()), Keywords: keyword.Empty()}
}
