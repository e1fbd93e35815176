package recollect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "recollect-go-sdk"
	maxReplyBytes    = 8 << 20

	searchPath = "/api/search"
	healthPath = "/health"

	requestIDHeader = "X-Request-Id"
)

// Client is the recollect SDK entry point. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	apiKey    string
	userAgent string
	obs       *observer
}

// New creates a Client for the service at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("recollect: base URL required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("recollect: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("recollect: unsupported scheme %q", u.Scheme)
	}

	cfg := &clientConfig{timeout: defaultTimeout, userAgent: defaultUserAgent}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   u,
		http:      hc,
		apiKey:    cfg.apiKey,
		userAgent: cfg.userAgent,
		obs:       obs,
	}, nil
}

// Search runs one search. A result-less search is not an error: the
// response carries a Message instead.
func (c *Client) Search(ctx context.Context, req SearchRequest) (resp SearchResponse, err error) {
	requestID := uuid.NewString()
	start := time.Now()
	defer func() { c.obs.observe("search", requestID, start, err) }()

	payload, err := json.Marshal(searchBody{
		UserQuery: req.Query,
		Type:      string(req.Provider),
		Mode:      string(req.Mode),
	})
	if err != nil {
		return SearchResponse{}, fmt.Errorf("recollect: encode request: %w", err)
	}

	var reply searchReply
	header, err := c.do(ctx, http.MethodPost, searchPath, requestID, payload, &reply)
	if err != nil {
		return SearchResponse{}, err
	}

	resp = SearchResponse{
		Results:   make([]Result, len(reply.Results)),
		Keywords:  reply.Keywords,
		Message:   reply.Message,
		RequestID: requestID,
	}
	if echoed := header.Get(requestIDHeader); echoed != "" {
		resp.RequestID = echoed
	}
	if tokens, convErr := strconv.Atoi(header.Get("X-LLM-Tokens")); convErr == nil {
		resp.LLMTokens = tokens
	}
	for i, r := range reply.Results {
		resp.Results[i] = Result(r)
	}
	return resp, nil
}

// Health returns the service health. A degraded service answers 503 with a
// health body; that is reported as a status, not an error.
func (c *Client) Health(ctx context.Context) (status HealthStatus, err error) {
	requestID := uuid.NewString()
	start := time.Now()
	defer func() { c.obs.observe("health", requestID, start, err) }()

	var reply healthReply
	_, err = c.do(ctx, http.MethodGet, healthPath, requestID, nil, &reply)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable && reply.Status != "" {
		err = nil
	}
	if err != nil {
		return HealthStatus{}, err
	}
	return HealthStatus(reply), nil
}

// do sends one request and decodes a JSON reply into out. On non-2xx the
// body is still decoded into out when possible and an *APIError is returned.
func (c *Client) do(
	ctx context.Context, method, path, requestID string, body []byte, out any,
) (http.Header, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("recollect: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recollect: %s %s: %w", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxReplyBytes))
	if err != nil {
		return nil, fmt.Errorf("recollect: read reply: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode, Message: http.StatusText(res.StatusCode)}
		var e errorReply
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Code = e.Code
			apiErr.Message = e.Error
		}
		_ = json.Unmarshal(data, out)
		return res.Header, apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("recollect: decode reply: %w", err)
	}
	return res.Header, nil
}
