package retrieval

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/recollect/internal/domain"
	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/keyword"
	"github.com/kailas-cloud/recollect/internal/domain/match"
	"github.com/kailas-cloud/recollect/internal/logger"
)

const defaultMaxConcurrency = 8

// Service fans a keyword set out to a catalog provider, one call per distinct (facet, term).
type Service struct {
	clients        map[catalog.Provider]Searcher
	hits           int
	maxConcurrency int64
}

// New creates a retrieval service over the configured providers.
// hits is clamped per call; maxConcurrency <= 0 means 8.
func New(clients map[catalog.Provider]Searcher, hits, maxConcurrency int) *Service {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	return &Service{
		clients:        clients,
		hits:           catalog.ClampHits(hits),
		maxConcurrency: int64(maxConcurrency),
	}
}

// Supports reports whether a client is configured for p.
func (s *Service) Supports(p catalog.Provider) bool {
	_, ok := s.clients[p]
	return ok
}

// Retrieve runs every pair concurrently and returns the flattened matches plus
// the number of distinct pairs dispatched. Output is grouped by pair in dispatch
// order with provider item order preserved; a failed call contributes nothing.
func (s *Service) Retrieve(
	ctx context.Context, p catalog.Provider, set keyword.Set,
) ([]match.Record, int, error) {
	client, ok := s.clients[p]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, p)
	}

	// Set already dedupes per facet; Pairs yields each distinct pair once.
	pairs := set.Pairs()
	if len(pairs) == 0 {
		return nil, 0, nil
	}

	log := logger.FromContext(ctx)
	perPair := make([][]catalog.Item, len(pairs))
	sem := semaphore.NewWeighted(s.maxConcurrency)

	var wg sync.WaitGroup
	for i, pair := range pairs {
		i, pair := i, pair
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				log.Debug("Catalog call skipped",
					zap.String("facet", string(pair.Facet)), zap.String("term", pair.Term), zap.Error(err))
				return
			}
			defer sem.Release(1)

			perPair[i] = client.Search(ctx, pair.Facet, pair.Term, s.hits)
		}()
	}
	wg.Wait()

	var out []match.Record
	for i, items := range perPair {
		for _, item := range items {
			out = append(out, match.New(item, pairs[i]))
		}
	}

	log.Debug("Catalog fan-out settled",
		zap.String("provider", string(p)),
		zap.Int("pairs", len(pairs)),
		zap.Int("matches", len(out)),
	)
	return out, len(pairs), nil
}
