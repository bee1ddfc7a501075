// Package scraper resolves a lead image for an article by scraping its page.
// Resolution is best-effort: callers treat any error as "post without image".
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Selector cascade in preference order: social-card meta tags first, then
// common article-body image slots.
var imageSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="twitter:image"]`,
	".story-image img",
	".article-image img",
	"article img",
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

var genericImageKeywords = []string{"logo", "icon", "placeholder", "spacer", "default"}

type Scraper struct {
	client *http.Client
}

func New(timeout time.Duration) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: timeout},
	}
}

// ResolveImage fetches the article page and extracts a usable image URL.
func (s *Scraper) ResolveImage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	// Some news sites refuse requests without a browser user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse article page: %w", err)
	}

	for _, selector := range imageSelectors {
		element := doc.Find(selector).First()
		if element.Length() == 0 {
			continue
		}

		found, _ := element.Attr("content")
		if found == "" {
			found, _ = element.Attr("src")
		}
		if found == "" {
			continue
		}

		found = absoluteURL(found, pageURL)
		if isValidImageURL(found) && !isGenericImage(found) {
			return found, nil
		}
	}

	return "", fmt.Errorf("no usable image found at %s", pageURL)
}

// absoluteURL fixes scheme-relative and root-relative image references
// against the article page URL.
func absoluteURL(imageURL, pageURL string) string {
	if strings.HasPrefix(imageURL, "//") {
		return "https:" + imageURL
	}
	if strings.HasPrefix(imageURL, "/") {
		base, err := url.Parse(pageURL)
		if err != nil || base.Host == "" {
			return imageURL
		}
		return base.Scheme + "://" + base.Host + imageURL
	}
	return imageURL
}

func isValidImageURL(imageURL string) bool {
	if imageURL == "" {
		return false
	}
	lower := strings.ToLower(imageURL)
	if u, err := url.Parse(lower); err == nil && u.Path != "" {
		lower = u.Path
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isGenericImage(imageURL string) bool {
	lower := strings.ToLower(imageURL)
	for _, keyword := range genericImageKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
