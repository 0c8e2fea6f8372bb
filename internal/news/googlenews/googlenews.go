// Package googlenews searches a Google-News-style RSS feed for recent
// articles matching a free-text query.
package googlenews

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"mercadash/internal/httpx"
)

// Article is one feed entry.
type Article struct {
	Title       string
	Link        string
	Source      string
	PublishedAt time.Time
}

type Client struct {
	baseURL string
	client  *httpx.Client
	parser  *gofeed.Parser
	logger  zerolog.Logger
}

func New(baseURL string, hc *httpx.Client, logger zerolog.Logger) *Client {
	return &Client{baseURL: baseURL, client: hc, parser: gofeed.NewParser(), logger: logger}
}

// Search fetches and parses the feed for query. Items without a parseable
// publication date are dropped; recency filtering is left to the caller.
func (c *Client) Search(ctx context.Context, query string) ([]Article, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "es-419")
	params.Set("gl", "AR")
	params.Set("ceid", "AR:es-419")

	body, err := c.client.GetBody(ctx, c.baseURL+"?"+params.Encode(), 2<<20)
	if err != nil {
		return nil, fmt.Errorf("news feed: %w", err)
	}
	feed, err := c.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("news feed parse: %w", err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.PublishedParsed == nil {
			continue
		}
		articles = append(articles, Article{
			Title:       item.Title,
			Link:        item.Link,
			Source:      sourceOf(item),
			PublishedAt: item.PublishedParsed.UTC(),
		})
	}
	return articles, nil
}

// sourceOf extracts the publisher name. Google News titles carry it as a
// " - Publisher" suffix; the link host is the fallback.
func sourceOf(item *gofeed.Item) string {
	if idx := strings.LastIndex(item.Title, " - "); idx > 0 && idx+3 < len(item.Title) {
		return strings.TrimSpace(item.Title[idx+3:])
	}
	if u, err := url.Parse(item.Link); err == nil && u.Host != "" {
		return u.Host
	}
	return ""
}
