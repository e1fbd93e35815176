// Package fc2 is the catalog client for the FC2 Live channel search API.
package fc2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/facet"
	"github.com/kailas-cloud/recollect/internal/metrics"
	"github.com/kailas-cloud/recollect/internal/transport/catalog/fetch"
)

const (
	// DefaultBaseURL is the FC2 Live API root.
	DefaultBaseURL = "https://live.fc2.com/api"
	// ChannelURL prefixes a channel id to form its page link.
	ChannelURL = "https://live.fc2.com/"
	apiVersion = "2.0"
)

// Config holds FC2 developer credentials.
type Config struct {
	DevID     string
	DevSecret string
	BaseURL   string // default DefaultBaseURL
}

// Client searches FC2 Live channels. The API takes a single keyword,
// so every facet is sent as one.
type Client struct {
	cfg     Config
	fetcher *fetch.Fetcher
}

// New creates an FC2 client.
func New(cfg Config, f *fetch.Fetcher) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, fetcher: f}
}

type searchResponse struct {
	Channel []channelDTO `json:"channel"`
}

type channelDTO struct {
	ChannelID flexString `json:"channelid"`
	Title     string     `json:"title"`
	Image     string     `json:"image"`
	Name      string     `json:"name"`
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("channelid: %w", err)
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("channelid: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

// Search queries channels for a single term. Failures yield nil and are logged.
func (c *Client) Search(ctx context.Context, f facet.Facet, term string, hits int) []catalog.Item {
	hits = catalog.ClampHits(hits)

	q := url.Values{}
	q.Set("version", apiVersion)
	q.Set("type", "channel")
	q.Set("devid", c.cfg.DevID)
	q.Set("devkey", c.cfg.DevSecret)
	q.Set("keyword", term)
	q.Set("limit", strconv.Itoa(hits))

	var resp searchResponse
	if err := c.fetcher.GetJSON(ctx, "search", c.cfg.BaseURL+"/search.fc2?"+q.Encode(), &resp); err != nil {
		c.fetcher.Logger(ctx).Warn("FC2 channel search failed",
			zap.String("facet", string(f)), zap.String("term", term), zap.Error(err))
		return nil
	}

	items := make([]catalog.Item, 0, len(resp.Channel))
	for i := range resp.Channel {
		item := normalize(&resp.Channel[i])
		if !item.Valid() {
			continue
		}
		items = append(items, item)
		if len(items) == hits {
			break
		}
	}

	metrics.CatalogItemsTotal.WithLabelValues(c.fetcher.Provider(), string(f)).Add(float64(len(items)))
	return items
}

// normalize maps an FC2 channel onto catalog.Item. The broadcaster is the performer.
func normalize(d *channelDTO) catalog.Item {
	id := strings.TrimSpace(string(d.ChannelID))
	if id == "" {
		return catalog.Item{}
	}

	var performers []string
	if d.Name != "" {
		performers = []string{d.Name}
	}

	return catalog.Item{
		ID:            id,
		Title:         d.Title,
		DetailURL:     ChannelURL + url.PathEscape(id),
		ThumbnailURL:  d.Image,
		LargeImageURL: d.Image,
		Performers:    performers,
	}
}
