// Package feed implements the primary source adapter: RSS feeds parsed
// with gofeed and normalized into candidate articles.
package feed

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/crickwire/cricnews/internal/news"
)

// FeedsConfig is the YAML config structure:
//
// feeds:
//   - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads the RSS feed URL list from a YAML file.
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return cfg.Feeds, nil
}

// Client fetches and normalizes the configured RSS feeds.
type Client struct {
	urls   []string
	maxAge time.Duration
}

func New(urls []string, maxAge time.Duration) *Client {
	return &Client{urls: urls, maxAge: maxAge}
}

// NewFromConfig builds a client from the feeds YAML file.
func NewFromConfig(path string, maxAge time.Duration) (*Client, error) {
	urls, err := LoadFeeds(path)
	if err != nil {
		return nil, err
	}
	return New(urls, maxAge), nil
}

func (c *Client) Name() string { return string(news.SourcePrimaryFeed) }

// Fetch downloads and parses all configured feeds, returning candidates
// ordered by recency descending. Failures never propagate: a broken feed is
// logged and skipped, and a total failure yields an empty slice.
func (c *Client) Fetch(ctx context.Context) []news.Candidate {
	parser := gofeed.NewParser()
	var candidates []news.Candidate
	successCount := 0

	for _, url := range c.urls {
		feed, err := parser.ParseURLWithContext(url, ctx)
		if err != nil {
			slog.Warn("rss feed unavailable", "url", url, "error", err)
			continue
		}
		successCount++

		for _, item := range feed.Items {
			cand, ok := c.normalize(item)
			if !ok {
				continue
			}
			candidates = append(candidates, cand)
		}
		slog.Debug("parsed rss feed", "url", url, "items", len(feed.Items))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})

	slog.Info("rss fetch complete",
		"feeds_ok", successCount, "feeds_total", len(c.urls), "candidates", len(candidates))
	return candidates
}

func (c *Client) normalize(item *gofeed.Item) (news.Candidate, bool) {
	if item == nil || item.Link == "" || item.Title == "" {
		return news.Candidate{}, false
	}

	published := time.Now().UTC()
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	}
	if c.maxAge > 0 && time.Since(published) > c.maxAge {
		return news.Candidate{}, false
	}

	imageURL := ""
	if item.Image != nil {
		imageURL = item.Image.URL
	}

	return news.Candidate{
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		ImageURL:    imageURL,
		Source:      news.SourcePrimaryFeed,
		Category:    news.Classify(item.Title, item.Description),
		PublishedAt: published,
	}, true
}
