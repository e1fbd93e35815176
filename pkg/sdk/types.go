package recollect

// Provider selects the catalog backend.
type Provider string

// Provider constants.
const (
	ProviderDMM    Provider = "dmm"
	ProviderSokmil Provider = "sokmil"
	ProviderDLsite Provider = "dlsite"
	ProviderFC2    Provider = "fc2"
)

// SearchMode selects retrieval or LLM invention.
type SearchMode string

// Search mode constants.
const (
	ModeRetrieval  SearchMode = "retrieval"
	ModeFictitious SearchMode = "fictitious"
)

// SearchRequest is one search. Empty fields use server defaults
// (provider dmm, mode retrieval).
type SearchRequest struct {
	Query    string
	Provider Provider
	Mode     SearchMode
}

// Result is one ranked catalog item.
type Result struct {
	ID            string
	Title         string
	DetailURL     string
	ThumbnailURL  string
	LargeImageURL string
	MakerName     string
	Performers    []string
	Genres        []string
	Score         int // 0-100
	Reason        string
}

// SearchResponse is the outcome of a search.
type SearchResponse struct {
	Results  []Result
	Keywords map[string][]string // facet → terms
	Message  string              // set when Results is empty

	RequestID string
	LLMTokens int // 0 when the server did not report usage
}

// HealthStatus represents the aggregated service health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// wire shapes

type searchBody struct {
	UserQuery string `json:"userQuery"`
	Type      string `json:"type,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

type searchReply struct {
	Results  []resultReply       `json:"results"`
	Keywords map[string][]string `json:"keywords"`
	Message  string              `json:"message"`
}

type resultReply struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	DetailURL     string   `json:"detailUrl"`
	ThumbnailURL  string   `json:"thumbnailUrl"`
	LargeImageURL string   `json:"largeImageUrl"`
	MakerName     string   `json:"makerName"`
	Performers    []string `json:"performers"`
	Genres        []string `json:"genres"`
	Score         int      `json:"score"`
	Reason        string   `json:"reason"`
}

type errorReply struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type healthReply struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
