// Package sokmil is the catalog client for the Sokmil affiliate API.
package sokmil

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/facet"
	"github.com/kailas-cloud/recollect/internal/metrics"
	"github.com/kailas-cloud/recollect/internal/transport/catalog/fetch"
)

// DefaultBaseURL is the Sokmil affiliate API root.
const DefaultBaseURL = "https://sokmil-ad.com/api/v1"

// Config holds Sokmil credentials.
type Config struct {
	APIKey      string
	AffiliateID string
	BaseURL     string // default DefaultBaseURL
}

// Client searches the Sokmil catalog. Performer names are resolved to ids;
// genre and series terms are sent as keywords.
type Client struct {
	cfg     Config
	fetcher *fetch.Fetcher
}

// New creates a Sokmil client.
func New(cfg Config, f *fetch.Fetcher) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, fetcher: f}
}

type named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type itemResponse struct {
	Result struct {
		Items []itemDTO `json:"items"`
	} `json:"result"`
}

type itemDTO struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	AffiliateURL string `json:"affiliateURL"`
	ImageURL     struct {
		List  string `json:"list"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"imageURL"`
	ItemInfo struct {
		Actor  []named `json:"actor"`
		Genre  []named `json:"genre"`
		Maker  []named `json:"maker"`
		Series []named `json:"series"`
	} `json:"iteminfo"`
}

type actorResponse struct {
	Result struct {
		Actors []named `json:"actors"`
	} `json:"result"`
}

// Search queries items for a single (facet, term). Failures yield nil and are logged.
func (c *Client) Search(ctx context.Context, f facet.Facet, term string, hits int) []catalog.Item {
	hits = catalog.ClampHits(hits)

	q := c.baseQuery()
	q.Set("hits", strconv.Itoa(hits))
	if f == facet.Actor {
		if id := c.resolveActor(ctx, term); id != "" {
			q.Set("article", "actor")
			q.Set("article_id", id)
		}
	}
	if q.Get("article_id") == "" {
		q.Set("keyword", term)
	}

	var resp itemResponse
	if err := c.fetcher.GetJSON(ctx, "Item", c.cfg.BaseURL+"/Item?"+q.Encode(), &resp); err != nil {
		c.fetcher.Logger(ctx).Warn("Sokmil item search failed",
			zap.String("facet", string(f)), zap.String("term", term), zap.Error(err))
		return nil
	}

	items := make([]catalog.Item, 0, len(resp.Result.Items))
	for i := range resp.Result.Items {
		item := normalize(&resp.Result.Items[i])
		if !item.Valid() {
			continue
		}
		items = append(items, item)
	}

	metrics.CatalogItemsTotal.WithLabelValues(c.fetcher.Provider(), string(f)).Add(float64(len(items)))
	return items
}

func (c *Client) baseQuery() url.Values {
	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	q.Set("affiliate_id", c.cfg.AffiliateID)
	q.Set("output", "json")
	return q
}

// resolveActor maps a performer name to an actor id: exact name first, then substring.
func (c *Client) resolveActor(ctx context.Context, name string) string {
	q := c.baseQuery()
	q.Set("keyword", name)
	q.Set("hits", "10")

	var resp actorResponse
	if err := c.fetcher.GetJSON(ctx, "Actor", c.cfg.BaseURL+"/Actor?"+q.Encode(), &resp); err != nil {
		c.fetcher.Logger(ctx).Debug("Sokmil actor lookup failed", zap.String("name", name), zap.Error(err))
		return ""
	}

	for _, a := range resp.Result.Actors {
		if a.ID != "" && a.Name == name {
			return a.ID
		}
	}
	for _, a := range resp.Result.Actors {
		if a.ID != "" && a.Name != "" && strings.Contains(a.Name, name) {
			return a.ID
		}
	}
	return ""
}

// normalize maps a Sokmil item onto catalog.Item.
func normalize(d *itemDTO) catalog.Item {
	detail := d.AffiliateURL
	if detail == "" {
		detail = d.URL
	}
	thumb := d.ImageURL.List
	if thumb == "" {
		thumb = d.ImageURL.Small
	}

	var maker string
	if len(d.ItemInfo.Maker) > 0 {
		maker = d.ItemInfo.Maker[0].Name
	}

	return catalog.Item{
		ID:            d.ID,
		Title:         d.Title,
		DetailURL:     detail,
		ThumbnailURL:  thumb,
		LargeImageURL: d.ImageURL.Large,
		MakerName:     maker,
		Performers:    names(d.ItemInfo.Actor),
		Genres:        names(d.ItemInfo.Genre),
	}
}

func names(ns []named) []string {
	var out []string
	for _, n := range ns {
		if n.Name != "" {
			out = append(out, n.Name)
		}
	}
	return out
}
