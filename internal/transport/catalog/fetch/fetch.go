// Package fetch is the shared HTTP layer under every catalog client:
// per-call timeout, outbound throttle, status mapping and request metrics.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/recollect/internal/domain"
	logpkg "github.com/kailas-cloud/recollect/internal/logger"
	"github.com/kailas-cloud/recollect/internal/metrics"
)

const (
	defaultTimeout = 5 * time.Second
	// maxBodyBytes caps how much of an upstream response is read.
	maxBodyBytes = 8 << 20
	userAgent    = "Mozilla/5.0 (compatible; recollect/1.0)"
)

// Config holds fetcher settings for one provider.
type Config struct {
	Provider string
	// Timeout bounds each outbound call. Zero means 5s.
	Timeout time.Duration
	// RequestsPerSec throttles outbound calls. Zero or negative means unlimited.
	RequestsPerSec float64
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Fetcher issues throttled, time-bounded GET requests against one provider.
type Fetcher struct {
	provider string
	timeout  time.Duration
	limiter  *rate.Limiter
	client   *http.Client
	logger   *zap.Logger
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
		burst = max(1, int(cfg.RequestsPerSec))
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		provider: cfg.Provider,
		timeout:  timeout,
		limiter:  rate.NewLimiter(limit, burst),
		client:   client,
		logger:   logger,
	}
}

// Provider returns the provider label used in metrics and logs.
func (f *Fetcher) Provider() string { return f.provider }

// Logger returns the request-scoped logger tagged with the provider,
// or the fetcher's own logger when ctx carries none.
func (f *Fetcher) Logger(ctx context.Context) *zap.Logger {
	if l, ok := logpkg.Lookup(ctx); ok {
		return l.With(zap.String("catalog", f.provider))
	}
	return f.logger
}

// Get fetches rawURL and returns the response body.
// endpoint is a short, bounded label for metrics (e.g. "ItemList").
func (f *Fetcher) Get(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		f.record(endpoint, "throttled", 0)
		return nil, fmt.Errorf("%s %s throttle: %w: %w", f.provider, endpoint, domain.ErrCatalogProviderError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		f.record(endpoint, status, duration)
		return nil, fmt.Errorf("%s %s: %w: %w", f.provider, endpoint, domain.ErrCatalogProviderError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.record(endpoint, "http_"+strconv.Itoa(resp.StatusCode), duration)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%s %s: %w", f.provider, endpoint, &domain.StatusError{StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		f.record(endpoint, "error", duration)
		return nil, fmt.Errorf("%s %s read body: %w: %w", f.provider, endpoint, domain.ErrCatalogProviderError, err)
	}

	f.record(endpoint, "success", duration)
	return body, nil
}

// GetJSON fetches rawURL and decodes the JSON body into dst.
func (f *Fetcher) GetJSON(ctx context.Context, endpoint, rawURL string, dst any) error {
	body, err := f.Get(ctx, endpoint, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%s %s decode: %w: %w", f.provider, endpoint, domain.ErrMalformedResponse, err)
	}
	return nil
}

func (f *Fetcher) record(endpoint, status string, d time.Duration) {
	metrics.CatalogRequestsTotal.WithLabelValues(f.provider, endpoint, status).Inc()
	if d > 0 {
		metrics.CatalogRequestDuration.WithLabelValues(f.provider, endpoint).Observe(d.Seconds())
	}
}
