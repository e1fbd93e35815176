package search

import (
	"context"

	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/keyword"
	"github.com/kailas-cloud/recollect/internal/domain/match"
	"github.com/kailas-cloud/recollect/internal/domain/ranked"
)

// KeywordExtractor turns a free-text memory into categorized search terms.
// Failures surface as an empty Set.
type KeywordExtractor interface {
	Extract(ctx context.Context, query string) keyword.Set
	ExtractBroader(ctx context.Context, query string, previous keyword.Set) keyword.Set
}

// Retriever fans a keyword set out to one catalog provider.
type Retriever interface {
	Supports(p catalog.Provider) bool
	Retrieve(ctx context.Context, p catalog.Provider, set keyword.Set) ([]match.Record, int, error)
}

// FictitiousGenerator invents plausible catalog entries without retrieval.
type FictitiousGenerator interface {
	Generate(ctx context.Context, query string) []ranked.Result
}
