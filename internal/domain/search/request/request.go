package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/recollect/internal/domain"
	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in characters.
	MaxQueryLength = 1000
	// DefaultQuery replaces a blank user query.
	DefaultQuery = "新人"
)

// Request is a validated search request.
type Request struct {
	query      string
	searchMode mode.Mode
	provider   catalog.Provider
}

// New validates and normalizes search parameters.
// Defaults: query=DefaultQuery when blank, mode=retrieval, provider=dmm.
// The provider is only validated in retrieval mode.
func New(query string, m mode.Mode, p catalog.Provider) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		query = DefaultQuery
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if m == "" {
		m = mode.Retrieval
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: %q", domain.ErrUnknownMode, m)
	}
	if m == mode.Retrieval {
		if p == "" {
			p = catalog.DMM
		}
		if !p.IsValid() {
			return Request{}, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, p)
		}
	}

	return Request{query: query, searchMode: m, provider: p}, nil
}

// Query returns the user's free-text memory.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Provider returns the catalog backend for retrieval mode.
func (r *Request) Provider() catalog.Provider { return r.provider }
