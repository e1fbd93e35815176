package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/recollect/internal/domain"
	logpkg "github.com/kailas-cloud/recollect/internal/logger"
	"github.com/kailas-cloud/recollect/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterCatalogMetrics()
	os.Exit(m.Run())
}

func TestGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected User-Agent header")
		}
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	f := New(Config{Provider: "fetch-ok"})
	body, err := f.Get(context.Background(), "Items", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q", body)
	}
	if got := testutil.ToFloat64(metrics.CatalogRequestsTotal.WithLabelValues("fetch-ok", "Items", "success")); got != 1 {
		t.Errorf("success counter = %f, want 1", got)
	}
}

func TestGet_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := New(Config{Provider: "fetch-503"})
	_, err := f.Get(context.Background(), "Items", server.URL)

	var statusErr *domain.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if !errors.Is(err, domain.ErrCatalogProviderError) {
		t.Errorf("expected ErrCatalogProviderError in chain, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.CatalogRequestsTotal.WithLabelValues("fetch-503", "Items", "http_503")); got != 1 {
		t.Errorf("status counter = %f, want 1", got)
	}
}

func TestGet_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	f := New(Config{Provider: "fetch-slow", Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := f.Get(context.Background(), "Items", server.URL)
	if !errors.Is(err, domain.ErrCatalogProviderError) {
		t.Fatalf("expected ErrCatalogProviderError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded in chain, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout not honored: %v", elapsed)
	}
}

func TestGetJSON_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	var dst struct{}
	err := New(Config{Provider: "fetch-bad"}).GetJSON(context.Background(), "Items", server.URL, &dst)
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestGetJSON_Decodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	var dst struct {
		Name string `json:"name"`
	}
	if err := New(Config{Provider: "fetch-json"}).GetJSON(context.Background(), "Items", server.URL, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Name != "ok" {
		t.Errorf("Name = %q", dst.Name)
	}
}

func TestGet_ThrottleRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	// One token per 10s: the second call cannot get a token before its deadline.
	f := New(Config{Provider: "fetch-throttle", RequestsPerSec: 0.1, Timeout: 100 * time.Millisecond})

	if _, err := f.Get(context.Background(), "Items", server.URL); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := f.Get(context.Background(), "Items", server.URL); !errors.Is(err, domain.ErrCatalogProviderError) {
		t.Fatalf("expected throttled call to fail, got %v", err)
	}
}

func TestLogger_PrefersRequestLogger(t *testing.T) {
	ownCore, ownLogs := observer.New(zap.DebugLevel)
	reqCore, reqLogs := observer.New(zap.DebugLevel)
	f := New(Config{Provider: "dmm", Logger: zap.New(ownCore)})

	ctx := logpkg.ContextWithLogger(context.Background(),
		zap.New(reqCore).With(zap.String("request_id", "req-1")))
	f.Logger(ctx).Warn("search failed")

	if ownLogs.Len() != 0 {
		t.Errorf("fetcher logger got %d entries, want 0", ownLogs.Len())
	}
	entries := reqLogs.All()
	if len(entries) != 1 {
		t.Fatalf("request logger got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" || fields["catalog"] != "dmm" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestLogger_FallsBackWithoutRequestLogger(t *testing.T) {
	ownCore, ownLogs := observer.New(zap.DebugLevel)
	f := New(Config{Provider: "dmm", Logger: zap.New(ownCore)})

	f.Logger(context.Background()).Warn("search failed")

	if ownLogs.Len() != 1 {
		t.Errorf("fetcher logger got %d entries, want 1", ownLogs.Len())
	}
}
