package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/recollect/internal/domain"
	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/facet"
	"github.com/kailas-cloud/recollect/internal/domain/keyword"
	"github.com/kailas-cloud/recollect/internal/domain/ranked"
	"github.com/kailas-cloud/recollect/internal/domain/search/mode"
	"github.com/kailas-cloud/recollect/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/recollect/internal/usecase/health"
	searchuc "github.com/kailas-cloud/recollect/internal/usecase/search"
)

// --- Mocks ---

type mockSearch struct {
	resp     searchuc.Response
	err      error
	panicMsg string
	tokens   int
	calls    int
	last     request.Request
}

func (m *mockSearch) Handle(ctx context.Context, req *request.Request) (searchuc.Response, error) {
	m.calls++
	m.last = *req
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.tokens > 0 {
		domain.UsageFromContext(ctx).Record(m.tokens)
	}
	return m.resp, m.err
}

// slowSearch waits for the request deadline, then answers with what it has.
type slowSearch struct {
	hadDeadline bool
}

func (m *slowSearch) Handle(ctx context.Context, _ *request.Request) (searchuc.Response, error) {
	_, m.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return searchuc.Response{Keywords: keyword.Empty(), Message: searchuc.NotFoundMessage}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(search *mockSearch, health *mockHealth) http.Handler {
	if health == nil {
		health = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}}
	}
	return NewRouter(NewServer(search, health), RouterConfig{})
}

func postSearch(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func sampleResponse() searchuc.Response {
	item := catalog.Item{
		ID:            "abc00123",
		Title:         "夏の日",
		DetailURL:     "https://al.example.com/abc00123",
		ThumbnailURL:  "https://pics.example.com/abc00123ps.jpg",
		LargeImageURL: "https://pics.example.com/abc00123pl.jpg",
		MakerName:     "メーカー",
		Performers:    []string{"女優X"},
	}
	return searchuc.Response{
		Results:  []ranked.Result{ranked.New(item, 100, "検索条件 1/1 件に一致")},
		Keywords: keyword.NewBuilder().Add(facet.Actor, "女優X").Build(),
	}
}

// --- Tests ---

func TestSearch_Success(t *testing.T) {
	search := &mockSearch{resp: sampleResponse(), tokens: 120}
	rr := postSearch(t, newTestRouter(search, nil), SearchPath, `{"userQuery":"女優Xの夏","type":"sokmil"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if search.last.Provider() != catalog.Sokmil || search.last.Mode() != mode.Retrieval {
		t.Errorf("handler got provider=%s mode=%s", search.last.Provider(), search.last.Mode())
	}
	if got := rr.Header().Get("X-LLM-Tokens"); got != "120" {
		t.Errorf("X-LLM-Tokens = %q, want 120", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var body searchResponseBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 1 {
		t.Fatalf("results = %d", len(body.Results))
	}
	r := body.Results[0]
	if r.ID != "abc00123" || r.Score != 100 {
		t.Errorf("result = %+v", r)
	}
	if r.AffiliateURL != r.DetailURL || r.ImageURL.Large != "https://pics.example.com/abc00123pl.jpg" {
		t.Errorf("legacy fields not filled: %+v", r)
	}
	if len(r.ItemInfo.Actress) != 1 || r.ItemInfo.Actress[0].Name != "女優X" {
		t.Errorf("iteminfo.actress = %+v", r.ItemInfo.Actress)
	}
	if got := body.Keywords["actor"]; len(got) != 1 || got[0] != "女優X" {
		t.Errorf("keywords.actor = %v", got)
	}
	if _, ok := body.Keywords["keyword"]; ok {
		t.Error("empty keyword bucket should be omitted")
	}
	if body.Message != "" {
		t.Errorf("unexpected message %q", body.Message)
	}
}

func TestSearch_EmptyResultHasMessage(t *testing.T) {
	search := &mockSearch{resp: searchuc.Response{Message: searchuc.NotFoundMessage}}
	rr := postSearch(t, newTestRouter(search, nil), SearchPath, `{"userQuery":"?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-LLM-Tokens") != "" {
		t.Error("X-LLM-Tokens should be absent when no LLM call was made")
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["results"]) != "[]" {
		t.Errorf("results = %s, want []", raw["results"])
	}
	var msg string
	_ = json.Unmarshal(raw["message"], &msg)
	if msg != searchuc.NotFoundMessage {
		t.Errorf("message = %q", msg)
	}
}

func TestSearch_NetlifyAlias(t *testing.T) {
	search := &mockSearch{resp: sampleResponse()}
	rr := postSearch(t, newTestRouter(search, nil), NetlifySearchPath, `{"userQuery":"夏"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if search.last.Provider() != catalog.DMM {
		t.Errorf("default provider = %s, want dmm", search.last.Provider())
	}
}

func TestSearch_FictitiousShorthand(t *testing.T) {
	search := &mockSearch{resp: sampleResponse()}
	rr := postSearch(t, newTestRouter(search, nil), SearchPath, `{"userQuery":"still water","type":"fictitious"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if search.last.Mode() != mode.Fictitious {
		t.Errorf("mode = %s, want fictitious", search.last.Mode())
	}
}

func TestSearch_ExplicitMode(t *testing.T) {
	search := &mockSearch{resp: sampleResponse()}
	rr := postSearch(t, newTestRouter(search, nil), SearchPath, `{"userQuery":"q","type":"dlsite","mode":"fictitious"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if search.last.Mode() != mode.Fictitious {
		t.Errorf("mode = %s", search.last.Mode())
	}
}

func TestSearch_BlankQueryUsesDefault(t *testing.T) {
	search := &mockSearch{resp: sampleResponse()}
	postSearch(t, newTestRouter(search, nil), SearchPath, `{"userQuery":"  "}`)

	if search.last.Query() != request.DefaultQuery {
		t.Errorf("query = %q, want %q", search.last.Query(), request.DefaultQuery)
	}
}

func TestSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"userQuery":`, codeBadRequest},
		{"not an object", `"hello"`, codeBadRequest},
		{"unknown type", `{"userQuery":"q","type":"fanza"}`, codeUnknownProvider},
		{"unknown mode", `{"userQuery":"q","mode":"hybrid"}`, codeUnknownMode},
		{"query too long", fmt.Sprintf(`{"userQuery":%q}`, strings.Repeat("あ", request.MaxQueryLength+1)), codeInvalidRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			search := &mockSearch{}
			rr := postSearch(t, newTestRouter(search, nil), SearchPath, tc.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if e := decodeError(t, rr); e.Code != tc.code || e.Error == "" {
				t.Errorf("error = %+v, want code %s", e, tc.code)
			}
			if search.calls != 0 {
				t.Error("search handler should not run")
			}
		})
	}
}

func TestSearch_UnconfiguredProviderIs400(t *testing.T) {
	search := &mockSearch{err: fmt.Errorf("%w: \"sokmil\" is not configured", domain.ErrUnknownProvider)}
	rr := postSearch(t, newTestRouter(search, nil), SearchPath, `{"userQuery":"q","type":"sokmil"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	e := decodeError(t, rr)
	if e.Code != codeUnknownProvider {
		t.Errorf("code = %s", e.Code)
	}
	if strings.Contains(e.Error, "configured") {
		t.Errorf("error message leaks detail: %q", e.Error)
	}
}

func TestSearch_InternalErrorIsOpaque(t *testing.T) {
	search := &mockSearch{err: errors.New("redis: connection pool exhausted at 10.0.0.3")}
	rr := postSearch(t, newTestRouter(search, nil), SearchPath, `{"userQuery":"q"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	e := decodeError(t, rr)
	if e.Code != codeInternalError || e.Error != "internal error" {
		t.Errorf("error = %+v", e)
	}
}

func TestSearch_PanicRecovered(t *testing.T) {
	search := &mockSearch{panicMsg: "boom"}
	rr := postSearch(t, newTestRouter(search, nil), SearchPath, `{"userQuery":"q"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if e := decodeError(t, rr); e.Code != codeInternalError {
		t.Errorf("code = %s", e.Code)
	}
}

func TestSearch_MethodNotAllowed(t *testing.T) {
	h := newTestRouter(&mockSearch{}, nil)

	for _, path := range []string{SearchPath, NetlifySearchPath} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status = %d, want 405", path, rr.Code)
			continue
		}
		if e := decodeError(t, rr); e.Code != codeMethodNotAllowed {
			t.Errorf("%s: code = %s", path, e.Code)
		}
	}
}

func TestNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nope", http.NoBody)
	rr := httptest.NewRecorder()
	newTestRouter(&mockSearch{}, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		want   int
	}{
		{"healthy", healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"llm": healthuc.CheckOK}}, http.StatusOK},
		{"degraded", healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{"llm": healthuc.CheckOK, "cache": healthuc.CheckError}}, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, HealthPath, http.NoBody)
			rr := httptest.NewRecorder()
			newTestRouter(&mockSearch{}, &mockHealth{report: tc.report}).ServeHTTP(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			var body healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != string(tc.report.Status) {
				t.Errorf("status = %s", body.Status)
			}
			if len(body.Checks) != len(tc.report.Checks) {
				t.Errorf("checks = %v", body.Checks)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(&mockSearch{resp: sampleResponse()}, nil)
	postSearch(t, h, SearchPath, `{"userQuery":"q"}`)

	req := httptest.NewRequest(http.MethodGet, MetricsPath, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "recollect_http_requests_total") {
		t.Error("expected HTTP request counter in exposition")
	}
}

func TestRouter_AuthGuardsSearchOnly(t *testing.T) {
	h := NewRouter(NewServer(&mockSearch{resp: sampleResponse()}, &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}),
		RouterConfig{APIKeys: []string{"secret"}})

	rr := postSearch(t, h, SearchPath, `{"userQuery":"q"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("search without token: status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, HealthPath, http.NoBody)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", rr.Code)
	}
}

func TestSearch_RequestTimeoutBoundsHandler(t *testing.T) {
	search := &slowSearch{}
	health := &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	h := NewRouter(NewServer(search, health, WithRequestTimeout(50*time.Millisecond)), RouterConfig{})

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- postSearch(t, h, SearchPath, `{"userQuery":"q"}`) }()

	select {
	case rr := <-done:
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var body searchResponseBody
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Message != searchuc.NotFoundMessage {
			t.Errorf("message = %q", body.Message)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not return after the request deadline")
	}
	if !search.hadDeadline {
		t.Error("search context must carry a deadline")
	}
}
