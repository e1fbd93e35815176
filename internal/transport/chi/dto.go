package chi

import (
	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/facet"
	"github.com/kailas-cloud/recollect/internal/domain/keyword"
	"github.com/kailas-cloud/recollect/internal/domain/ranked"
	"github.com/kailas-cloud/recollect/internal/domain/search/mode"
	searchuc "github.com/kailas-cloud/recollect/internal/usecase/search"
)

// searchRequestBody is the POST /api/search payload.
type searchRequestBody struct {
	UserQuery string `json:"userQuery"`
	Type      string `json:"type,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

// searchResponseBody is the POST /api/search reply.
type searchResponseBody struct {
	Results  []resultItem        `json:"results"`
	Keywords map[string][]string `json:"keywords"`
	Message  string              `json:"message,omitempty"`
}

// resultItem carries the normalized catalog fields plus the legacy
// affiliateURL / imageURL / iteminfo shape the existing web page reads.
type resultItem struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	DetailURL     string   `json:"detailUrl"`
	ThumbnailURL  string   `json:"thumbnailUrl"`
	LargeImageURL string   `json:"largeImageUrl,omitempty"`
	MakerName     string   `json:"makerName,omitempty"`
	Performers    []string `json:"performers"`
	Genres        []string `json:"genres"`
	Score         int      `json:"score"`
	Reason        string   `json:"reason"`

	AffiliateURL string       `json:"affiliateURL"`
	ImageURL     imageURLs    `json:"imageURL"`
	ItemInfo     itemInfoBody `json:"iteminfo"`
}

type imageURLs struct {
	List  string `json:"list,omitempty"`
	Large string `json:"large,omitempty"`
}

type itemInfoBody struct {
	Actress []namedBody `json:"actress"`
	Genre   []namedBody `json:"genre"`
}

type namedBody struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// modeAndProvider resolves the body's type/mode pair.
// type "fictitious" is shorthand for fictitious mode.
func (b *searchRequestBody) modeAndProvider() (mode.Mode, catalog.Provider) {
	m := mode.Mode(b.Mode)
	p := catalog.Provider(b.Type)
	if b.Type == string(mode.Fictitious) {
		if m == "" {
			m = mode.Fictitious
		}
		p = ""
	}
	return m, p
}

func searchResponseFromDomain(resp *searchuc.Response) searchResponseBody {
	items := make([]resultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = resultItemFromDomain(&resp.Results[i])
	}
	return searchResponseBody{
		Results:  items,
		Keywords: keywordsFromDomain(resp.Keywords),
		Message:  resp.Message,
	}
}

func resultItemFromDomain(r *ranked.Result) resultItem {
	item := r.Item()
	large := item.LargeImageURL
	if large == "" {
		large = item.ThumbnailURL
	}

	out := resultItem{
		ID:            item.ID,
		Title:         item.Title,
		DetailURL:     item.DetailURL,
		ThumbnailURL:  item.ThumbnailURL,
		LargeImageURL: item.LargeImageURL,
		MakerName:     item.MakerName,
		Performers:    nonNil(item.Performers),
		Genres:        nonNil(item.Genres),
		Score:         r.Score(),
		Reason:        r.Reason(),
		AffiliateURL:  item.DetailURL,
		ImageURL:      imageURLs{List: item.ThumbnailURL, Large: large},
		ItemInfo: itemInfoBody{
			Actress: named(item.Performers),
			Genre:   named(item.Genres),
		},
	}
	return out
}

// keywordsFromDomain always reports the four classified facets; the
// unclassified bucket only when it holds terms.
func keywordsFromDomain(set keyword.Set) map[string][]string {
	out := make(map[string][]string, len(facet.All))
	for _, f := range facet.All {
		terms := set.Terms(f)
		if f == facet.Keyword && len(terms) == 0 {
			continue
		}
		out[string(f)] = nonNil(terms)
	}
	return out
}

func named(names []string) []namedBody {
	out := make([]namedBody, len(names))
	for i, n := range names {
		out[i] = namedBody{Name: n}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
