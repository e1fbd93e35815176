package retrieval

import (
	"context"

	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/facet"
)

// Searcher queries one catalog provider for a single (facet, term).
// Implementations absorb upstream failures and return an empty slice.
type Searcher interface {
	Search(ctx context.Context, f facet.Facet, term string, hits int) []catalog.Item
}
