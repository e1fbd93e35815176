package search

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/recollect/internal/domain/keyword"
	"github.com/kailas-cloud/recollect/internal/domain/match"
	"github.com/kailas-cloud/recollect/internal/domain/ranked"
)

// DefaultResultLimit caps the ranked list when no limit is configured.
const DefaultResultLimit = 50

// aggregate accumulates every distinct pair one item matched.
type aggregate struct {
	rec        match.Record
	order      int
	pairs      []keyword.Pair
	seen       map[keyword.Pair]struct{}
	promotedBy string // first identity-facet term that matched
}

// Score dedupes matches by item id and ranks them.
// score = round(100 * distinctPairs / totalFacetCount). Items matched on an
// identity facet (actor) rank first, then by distinct pair count, then by
// first-seen order. totalFacetCount <= 0 yields nil.
func Score(matches []match.Record, totalFacetCount, limit int) []ranked.Result {
	if totalFacetCount <= 0 || len(matches) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	byID := make(map[string]*aggregate)
	var groups []*aggregate

	for _, m := range matches {
		g, ok := byID[m.Item.ID]
		if !ok {
			g = &aggregate{rec: m, order: len(groups), seen: make(map[keyword.Pair]struct{})}
			byID[m.Item.ID] = g
			groups = append(groups, g)
		}
		if _, dup := g.seen[m.Pair]; dup {
			continue
		}
		g.seen[m.Pair] = struct{}{}
		g.pairs = append(g.pairs, m.Pair)
		if m.Pair.Facet.IsIdentity() && g.promotedBy == "" {
			g.promotedBy = m.Pair.Term
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		ap, bp := a.promotedBy != "", b.promotedBy != ""
		if ap != bp {
			return ap
		}
		if len(a.pairs) != len(b.pairs) {
			return len(a.pairs) > len(b.pairs)
		}
		return a.order < b.order
	})

	if len(groups) > limit {
		groups = groups[:limit]
	}

	out := make([]ranked.Result, 0, len(groups))
	for _, g := range groups {
		n := len(g.pairs)
		score := int(math.Round(100 * float64(n) / float64(totalFacetCount)))
		out = append(out, ranked.New(g.rec.Item, score, reason(g, totalFacetCount)))
	}
	return out
}

func reason(g *aggregate, total int) string {
	labels := make([]string, len(g.pairs))
	for i, p := range g.pairs {
		labels[i] = fmt.Sprintf("%s「%s」", p.Facet.Label(), p.Term)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "検索条件 %d/%d 件に一致 (%s)", len(g.pairs), total, strings.Join(labels, ", "))
	if g.promotedBy != "" {
		fmt.Fprintf(&b, " / 出演者「%s」に一致", g.promotedBy)
	}
	return b.String()
}
