package facet

// Facet is a named category of search term.
type Facet string

// Facet constants.
const (
	Title  Facet = "title"
	Genre  Facet = "genre"
	Series Facet = "series"
	// Actor is the explicit-identity facet; matches on it are promoted in ranking.
	Actor Facet = "actor"
	// Keyword holds terms the extractor could not classify.
	Keyword Facet = "keyword"
)

// All lists every facet in canonical order.
var All = []Facet{Title, Genre, Series, Actor, Keyword}

// IsValid checks if the facet is one of the supported values.
func (f Facet) IsValid() bool {
	switch f {
	case Title, Genre, Series, Actor, Keyword:
		return true
	}
	return false
}

// IsIdentity reports whether a match on this facet names a specific person.
func (f Facet) IsIdentity() bool { return f == Actor }

// Label returns the Japanese display label used in ranking reasons.
func (f Facet) Label() string {
	switch f {
	case Title:
		return "タイトル"
	case Genre:
		return "ジャンル"
	case Series:
		return "シリーズ"
	case Actor:
		return "出演者"
	default:
		return "キーワード"
	}
}

// Parse maps a facet name as produced by the LLM to a Facet.
// Synonyms are folded; unknown names map to Keyword.
func Parse(name string) Facet {
	switch name {
	case "title", "titles":
		return Title
	case "genre", "genres", "category", "tag", "tags":
		return Genre
	case "series":
		return Series
	case "actor", "actors", "actress", "actresses", "performer", "performers", "cast":
		return Actor
	default:
		return Keyword
	}
}
