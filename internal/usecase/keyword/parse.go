package keyword

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/recollect/internal/domain"
	"github.com/kailas-cloud/recollect/internal/domain/facet"
	domkw "github.com/kailas-cloud/recollect/internal/domain/keyword"
)

// wrapperKeys are object keys LLMs commonly nest the facet map under.
var wrapperKeys = []string{"keywords", "result", "data"}

// Parse turns an LLM reply into a keyword set.
// Accepted shapes: a facet object, the same object nested under a wrapper key,
// or a flat array of terms (unclassified). Markdown fences and surrounding prose are ignored.
func Parse(text string) (domkw.Set, error) {
	payload := extractJSON(text)
	if payload == "" {
		return domkw.Empty(), fmt.Errorf("no JSON in reply: %w", domain.ErrMalformedResponse)
	}

	var raw any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return domkw.Empty(), fmt.Errorf("decode reply: %w: %w", domain.ErrMalformedResponse, err)
	}

	b := domkw.NewBuilder()
	switch v := raw.(type) {
	case []any:
		addValue(b, facet.Keyword, v)
	case map[string]any:
		addFacets(b, unwrap(v))
	default:
		return domkw.Empty(), fmt.Errorf("unexpected reply type %T: %w", raw, domain.ErrMalformedResponse)
	}
	return b.Build(), nil
}

// unwrap descends into a lone wrapper key holding the facet object.
func unwrap(m map[string]any) map[string]any {
	for _, k := range wrapperKeys {
		inner, ok := m[k].(map[string]any)
		if ok && len(m) == 1 {
			return unwrap(inner)
		}
	}
	return m
}

func addFacets(b *domkw.Builder, m map[string]any) {
	for _, k := range sortedKeys(m) {
		addValue(b, facet.Parse(strings.ToLower(strings.TrimSpace(k))), m[k])
	}
}

// termKeys name the field holding the term when a reply wraps terms in objects.
var termKeys = []string{"name", "term", "value"}

// addValue adds every term found in v under f. Numbers are kept as text;
// a nested object contributes its values to the same facet.
func addValue(b *domkw.Builder, f facet.Facet, v any) {
	switch t := v.(type) {
	case string:
		b.Add(f, t)
	case float64:
		b.Add(f, fmt.Sprint(t))
	case []any:
		for _, e := range t {
			addElement(b, f, e)
		}
	case map[string]any:
		if term, ok := namedTerm(t); ok {
			b.Add(f, term)
			return
		}
		for _, k := range sortedKeys(t) {
			addElement(b, f, t[k])
		}
	}
}

// addElement handles one list entry. An object without a recognizable term
// field is kept as unclassified terms.
func addElement(b *domkw.Builder, f facet.Facet, v any) {
	m, ok := v.(map[string]any)
	if !ok {
		addValue(b, f, v)
		return
	}
	if term, ok := namedTerm(m); ok {
		b.Add(f, term)
		return
	}
	for _, k := range sortedKeys(m) {
		addValue(b, facet.Keyword, m[k])
	}
}

func namedTerm(m map[string]any) (string, bool) {
	for _, k := range termKeys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

// sortedKeys keeps term order stable when synonyms fold into one facet.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// extractJSON strips code fences and returns the outermost JSON object or array.
// When prose around the payload contains brackets, the span that decodes wins.
func extractJSON(text string) string {
	s := stripFence(text)

	openers := []byte{'{', '['}
	if o, a := strings.IndexByte(s, '{'), strings.IndexByte(s, '['); a >= 0 && (o < 0 || a < o) {
		openers = []byte{'[', '{'}
	}

	var fallback string
	for _, opener := range openers {
		span := spanFrom(s, opener)
		if span == "" {
			continue
		}
		if json.Valid([]byte(span)) {
			return span
		}
		if fallback == "" {
			fallback = span
		}
	}
	return fallback
}

func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// spanFrom returns text from the first opener to the last matching closer.
func spanFrom(s string, opener byte) string {
	closer := byte('}')
	if opener == '[' {
		closer = ']'
	}
	start := strings.IndexByte(s, opener)
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return ""
	}
	return s[start : end+1]
}

// Cacheable reports whether a reply yields at least one term. Refusals and
// malformed or empty replies should be retried, not replayed from a cache.
func Cacheable(text string) bool {
	set, err := Parse(text)
	return err == nil && !set.IsEmpty()
}
