// Package dmm is the catalog client for the DMM/FANZA Affiliate API v3.
package dmm

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

const (
	// DefaultBaseURL is the DMM Affiliate API v3 root.
	DefaultBaseURL = "https://api.dmm.com/affiliate/v3"

	listHits = 500
)

// floorIDs maps floor codes to the numeric ids the list endpoints expect.
var floorIDs = map[string]string{
	"videoa": "43",
}

// Config holds DMM credentials.
type Config struct {
	APIID       string
	AffiliateID string
	Floor       string // default "videoa"
	BaseURL     string // default DefaultBaseURL
}

// Client searches the DMM catalog for one facet at a time.
type Client struct {
	cfg     Config
	fetcher *fetch.Fetcher
}

// New creates a DMM client.
func New(cfg Config, f *fetch.Fetcher) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Floor == "" {
		cfg.Floor = "videoa"
	}
	return &Client{cfg: cfg, fetcher: f}
}

// Search queries items for a single (facet, term). Failures yield nil and are logged.
func (c *Client) Search(ctx context.Context, f facet.Facet, term string, hits int) []catalog.Item {
	hits = catalog.ClampHits(hits)

	var article, articleID string
	switch f {
	case facet.Actor:
		article, articleID = "actress", c.resolveActress(ctx, term)
	case facet.Genre:
		article, articleID = "genre", c.resolveGenre(ctx, term)
	case facet.Series:
		article, articleID = "series", c.resolveSeries(ctx, term)
	}

	q := c.baseQuery()
	q.Set("site", "FANZA")
	q.Set("service", "digital")
	q.Set("floor", c.cfg.Floor)
	q.Set("hits", strconv.Itoa(hits))
	q.Set("sort", "rank")
	if articleID != "" {
		q.Set("article", article)
		q.Set("article_id", articleID)
	} else {
		q.Set("keyword", term)
	}

	var resp itemListResponse
	if err := c.fetcher.GetJSON(ctx, "ItemList", c.cfg.BaseURL+"/ItemList?"+q.Encode(), &resp); err != nil {
		c.fetcher.Logger(ctx).Warn("DMM item search failed",
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
	q.Set("api_id", c.cfg.APIID)
	q.Set("affiliate_id", c.cfg.AffiliateID)
	q.Set("output", "json")
	return q
}

// resolveActress maps a performer name to an actress id. Empty when unresolved.
func (c *Client) resolveActress(ctx context.Context, name string) string {
	q := c.baseQuery()
	q.Set("keyword", name)
	q.Set("hits", "10")

	var resp actressSearchResponse
	if err := c.fetcher.GetJSON(ctx, "ActressSearch", c.cfg.BaseURL+"/ActressSearch?"+q.Encode(), &resp); err != nil {
		c.fetcher.Logger(ctx).Debug("DMM actress lookup failed", zap.String("name", name), zap.Error(err))
		return ""
	}

	candidates := make([]candidate, 0, len(resp.Result.Actress))
	for _, a := range resp.Result.Actress {
		candidates = append(candidates, candidate{id: string(a.ID), name: a.Name})
	}
	// ActressSearch already filters by keyword, so the first hit is an acceptable fallback.
	if id := bestMatch(name, candidates); id != "" {
		return id
	}
	if len(candidates) > 0 {
		return candidates[0].id
	}
	return ""
}

func (c *Client) resolveGenre(ctx context.Context, name string) string {
	floorID, ok := floorIDs[c.cfg.Floor]
	if !ok {
		return ""
	}
	q := c.baseQuery()
	q.Set("floor_id", floorID)
	q.Set("hits", strconv.Itoa(listHits))

	var resp genreSearchResponse
	if err := c.fetcher.GetJSON(ctx, "GenreSearch", c.cfg.BaseURL+"/GenreSearch?"+q.Encode(), &resp); err != nil {
		c.fetcher.Logger(ctx).Debug("DMM genre lookup failed", zap.String("name", name), zap.Error(err))
		return ""
	}

	candidates := make([]candidate, 0, len(resp.Result.Genre))
	for _, g := range resp.Result.Genre {
		candidates = append(candidates, candidate{id: string(g.GenreID), name: g.Name})
	}
	return bestMatch(name, candidates)
}

func (c *Client) resolveSeries(ctx context.Context, name string) string {
	floorID, ok := floorIDs[c.cfg.Floor]
	if !ok {
		return ""
	}
	q := c.baseQuery()
	q.Set("floor_id", floorID)
	q.Set("hits", strconv.Itoa(listHits))

	var resp seriesSearchResponse
	if err := c.fetcher.GetJSON(ctx, "SeriesSearch", c.cfg.BaseURL+"/SeriesSearch?"+q.Encode(), &resp); err != nil {
		c.fetcher.Logger(ctx).Debug("DMM series lookup failed", zap.String("name", name), zap.Error(err))
		return ""
	}

	candidates := make([]candidate, 0, len(resp.Result.Series))
	for _, s := range resp.Result.Series {
		candidates = append(candidates, candidate{id: string(s.SeriesID), name: s.Name})
	}
	return bestMatch(name, candidates)
}

type candidate struct {
	id   string
	name string
}

// bestMatch returns the id of an exact name match, else the first substring match.
func bestMatch(name string, candidates []candidate) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, c := range candidates {
		if c.id != "" && c.name == name {
			return c.id
		}
	}
	for _, c := range candidates {
		if c.id != "" && c.name != "" && (strings.Contains(c.name, name) || strings.Contains(name, c.name)) {
			return c.id
		}
	}
	return ""
}

// normalize maps a DMM item onto catalog.Item.
func normalize(d *itemDTO) catalog.Item {
	id := d.ContentID
	if id == "" {
		id = d.ProductID
	}

	detail := d.AffiliateURL
	if detail == "" {
		detail = d.URL
	}

	thumb := d.ImageURL.List
	if thumb == "" {
		thumb = d.ImageURL.Small
	}
	if thumb == "" {
		thumb = d.ImageURL.Large
	}

	var maker string
	if len(d.ItemInfo.Maker) > 0 {
		maker = d.ItemInfo.Maker[0].Name
	}

	return catalog.Item{
		ID:            id,
		Title:         d.Title,
		DetailURL:     detail,
		ThumbnailURL:  thumb,
		LargeImageURL: d.ImageURL.Large,
		MakerName:     maker,
		Performers:    names(d.ItemInfo.Actress),
		Genres:        names(d.ItemInfo.Genre),
	}
}

func names(ns []named) []string {
	if len(ns) == 0 {
		return nil
	}
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		if n.Name != "" {
			out = append(out, n.Name)
		}
	}
	return out
}
