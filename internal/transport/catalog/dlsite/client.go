// Package dlsite is the catalog client for DLsite, built on its HTML search pages.
package dlsite

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	"github.com/kailas-cloud/recollect/internal/domain/facet"
	"github.com/kailas-cloud/recollect/internal/metrics"
	"github.com/kailas-cloud/recollect/internal/transport/catalog/fetch"
)

// DefaultBaseURL is the DLsite adult doujin floor.
const DefaultBaseURL = "https://www.dlsite.com/maniax"

// Config holds DLsite settings.
type Config struct {
	BaseURL string // default DefaultBaseURL
}

// Client scrapes the DLsite search page. Every facet is queried as a keyword.
type Client struct {
	baseURL string
	fetcher *fetch.Fetcher
}

// New creates a DLsite client.
func New(cfg Config, f *fetch.Fetcher) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(base, "/"), fetcher: f}
}

// Search scrapes items for a single term. Failures yield nil and are logged.
func (c *Client) Search(ctx context.Context, f facet.Facet, term string, hits int) []catalog.Item {
	hits = catalog.ClampHits(hits)

	body, err := c.fetcher.Get(ctx, "fsr", c.searchURL(term, hits))
	if err != nil {
		c.fetcher.Logger(ctx).Warn("DLsite search failed",
			zap.String("facet", string(f)), zap.String("term", term), zap.Error(err))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.fetcher.Logger(ctx).Warn("DLsite page parse failed", zap.String("term", term), zap.Error(err))
		return nil
	}

	items := parseWorks(doc, hits)
	metrics.CatalogItemsTotal.WithLabelValues(c.fetcher.Provider(), string(f)).Add(float64(len(items)))
	return items
}

func (c *Client) searchURL(term string, hits int) string {
	return c.baseURL + "/fsr/=/language/jp/keyword/" + url.PathEscape(term) +
		"/per_page/" + strconv.Itoa(hits) + "/sort/trend/order/desc"
}

// parseWorks extracts at most limit items from a search result page.
func parseWorks(doc *goquery.Document, limit int) []catalog.Item {
	var items []catalog.Item
	doc.Find("tr._work").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find(".work_name a").First()
		href, _ := link.Attr("href")

		item := catalog.Item{
			ID:           productID(href),
			Title:        strings.TrimSpace(link.Text()),
			DetailURL:    absoluteURL(href),
			ThumbnailURL: absoluteURL(imageSrc(s.Find(".work_thumb img").First())),
			MakerName:    strings.TrimSpace(s.Find(".maker_name a").First().Text()),
			Performers:   texts(s.Find(".author a")),
			Genres:       texts(s.Find(".search_tag a")),
		}
		if item.Valid() {
			items = append(items, item)
		}
		return len(items) < limit
	})
	return items
}

// productID returns the last path segment of a work URL without its extension (e.g. RJ123456).
func productID(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	seg := path.Base(u.Path)
	if seg == "." || seg == "/" {
		return ""
	}
	return strings.TrimSuffix(seg, path.Ext(seg))
}

func imageSrc(img *goquery.Selection) string {
	if src, ok := img.Attr("src"); ok && src != "" {
		return src
	}
	src, _ := img.Attr("data-src")
	return src
}

// absoluteURL upgrades protocol-relative URLs to https.
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

func texts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}
