package ranked

import "github.com/kailas-cloud/recollect/internal/domain/catalog"

// Result is a scored catalog item returned to the caller (immutable value object).
type Result struct {
	item   catalog.Item
	score  int
	reason string
}

// New creates a ranked result. Score is clamped to [0, 100].
func New(item catalog.Item, score int, reason string) Result {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return Result{item: item, score: score, reason: reason}
}

// ID returns the canonical catalog identifier.
func (r *Result) ID() string { return r.item.ID }

// Item returns the underlying catalog item.
func (r *Result) Item() catalog.Item { return r.item }

// Score returns the relevance percentage (0-100).
func (r *Result) Score() int { return r.score }

// Reason returns the human-readable match explanation.
func (r *Result) Reason() string { return r.reason }
