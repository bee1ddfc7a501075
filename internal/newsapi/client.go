// Package newsapi implements the fallback source adapter: a JSON headlines
// API queried only when the primary feed's yield falls below the per-run
// target.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/crickwire/cricnews/internal/news"
)

type Client struct {
	baseURL  string
	apiKey   string
	query    string
	pageSize int
	client   *http.Client
}

func New(baseURL, apiKey, query string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		query:    query,
		pageSize: 10,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return string(news.SourceFallbackAPI) }

type headlinesResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		URLToImage  string    `json:"urlToImage"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch queries the headlines endpoint. Any failure (network, status, decode,
// API-level error) is recovered locally: it logs a warning and returns an
// empty slice so a broken fallback never aborts a cycle.
func (c *Client) Fetch(ctx context.Context) []news.Candidate {
	resp, err := c.fetchHeadlines(ctx)
	if err != nil {
		slog.Warn("headlines api unavailable", "error", err)
		return nil
	}

	candidates := make([]news.Candidate, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		candidates = append(candidates, news.Candidate{
			Title:       a.Title,
			Link:        a.URL,
			Description: a.Description,
			ImageURL:    a.URLToImage,
			Source:      news.SourceFallbackAPI,
			Category:    news.Classify(a.Title, a.Description),
			PublishedAt: a.PublishedAt.UTC(),
		})
	}

	slog.Info("headlines fetch complete", "candidates", len(candidates))
	return candidates
}

func (c *Client) fetchHeadlines(ctx context.Context) (*headlinesResponse, error) {
	endpoint := fmt.Sprintf("%s/top-headlines?%s", c.baseURL, url.Values{
		"q":        {c.query},
		"pageSize": {fmt.Sprint(c.pageSize)},
		"apiKey":   {c.apiKey},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request headlines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("headlines API returned status %d", resp.StatusCode)
	}

	var decoded headlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode headlines: %w", err)
	}
	if decoded.Status != "ok" {
		return nil, fmt.Errorf("headlines API error: %s", decoded.Message)
	}

	return &decoded, nil
}
