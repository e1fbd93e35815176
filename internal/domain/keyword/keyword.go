package keyword

import (
	"strings"

	"github.com/kailas-cloud/recollect/internal/domain/facet"
)

// Pair is a single (facet, term) search unit.
type Pair struct {
	Facet facet.Facet
	Term  string
}

// Set is the categorized search vocabulary extracted from one query (immutable value object).
type Set struct {
	terms map[facet.Facet][]string
}

// Builder accumulates terms and produces a normalized Set.
type Builder struct {
	terms map[facet.Facet][]string
	seen  map[Pair]struct{}
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		terms: make(map[facet.Facet][]string),
		seen:  make(map[Pair]struct{}),
	}
}

// Add appends a term under a facet. Blank terms and duplicates within the facet are ignored.
// Invalid facets are folded into facet.Keyword so no term is lost.
func (b *Builder) Add(f facet.Facet, term string) *Builder {
	term = strings.TrimSpace(term)
	if term == "" {
		return b
	}
	if !f.IsValid() {
		f = facet.Keyword
	}
	p := Pair{Facet: f, Term: term}
	if _, dup := b.seen[p]; dup {
		return b
	}
	b.seen[p] = struct{}{}
	b.terms[f] = append(b.terms[f], term)
	return b
}

// Build returns the accumulated Set.
func (b *Builder) Build() Set {
	out := make(map[facet.Facet][]string, len(b.terms))
	for f, ts := range b.terms {
		out[f] = append([]string(nil), ts...)
	}
	return Set{terms: out}
}

// Empty returns a Set with no terms.
func Empty() Set { return Set{} }

// Of builds a Set from a facet→terms map.
func Of(terms map[facet.Facet][]string) Set {
	b := NewBuilder()
	for _, f := range facet.All {
		for _, t := range terms[f] {
			b.Add(f, t)
		}
	}
	return b.Build()
}

// Terms returns a copy of the terms recorded under f.
func (s Set) Terms(f facet.Facet) []string {
	return append([]string(nil), s.terms[f]...)
}

// IsEmpty reports whether every facet is empty.
func (s Set) IsEmpty() bool {
	for _, ts := range s.terms {
		if len(ts) > 0 {
			return false
		}
	}
	return true
}

// Pairs returns every distinct (facet, term) pair in canonical facet order.
func (s Set) Pairs() []Pair {
	var pairs []Pair
	for _, f := range facet.All {
		for _, t := range s.terms[f] {
			pairs = append(pairs, Pair{Facet: f, Term: t})
		}
	}
	return pairs
}

// Len returns the number of distinct pairs.
func (s Set) Len() int {
	n := 0
	for _, ts := range s.terms {
		n += len(ts)
	}
	return n
}

// All returns every term across facets, in canonical facet order.
func (s Set) All() []string {
	pairs := s.Pairs()
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Term
	}
	return out
}
