package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickwire/cricnews/internal/news"
)

func rssBody(now time.Time) string {
	recent := now.Add(-2 * time.Hour).Format(time.RFC1123Z)
	older := now.Add(-5 * time.Hour).Format(time.RFC1123Z)
	stale := now.Add(-72 * time.Hour).Format(time.RFC1123Z)

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Cricket Wire</title>
    <item>
      <title>Spinner rewrites the record books</title>
      <link>https://example.com/spinner</link>
      <description>Ten wickets in an innings abroad.</description>
      <pubDate>%s</pubDate>
    </item>
    <item>
      <title>IPL franchise confirms new captain</title>
      <link>https://example.com/ipl-captain</link>
      <description>Leadership change ahead of the season.</description>
      <pubDate>%s</pubDate>
    </item>
    <item>
      <title>Week-old roundup</title>
      <link>https://example.com/stale</link>
      <description>Old news.</description>
      <pubDate>%s</pubDate>
    </item>
  </channel>
</rss>`, older, recent, stale)
}

func TestFetch_NormalizesAndOrdersByRecency(t *testing.T) {
	now := time.Now().UTC()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssBody(now)))
	}))
	defer server.Close()

	client := New([]string{server.URL}, 24*time.Hour)
	got := client.Fetch(context.Background())

	require.Len(t, got, 2, "the 72h-old item must be age-filtered")

	// Recency descending: the 2h-old item first.
	assert.Equal(t, "https://example.com/ipl-captain", got[0].Link)
	assert.Equal(t, news.CategoryDomestic, got[0].Category)
	assert.Equal(t, news.SourcePrimaryFeed, got[0].Source)

	assert.Equal(t, "https://example.com/spinner", got[1].Link)
	assert.Equal(t, news.CategoryWorld, got[1].Category)
}

func TestFetch_BrokenFeedYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New([]string{server.URL}, 24*time.Hour)
	assert.Empty(t, client.Fetch(context.Background()))
}

func TestFetch_OneBrokenFeedDoesNotBlockOthers(t *testing.T) {
	now := time.Now().UTC()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssBody(now)))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	client := New([]string{bad.URL, good.URL}, 24*time.Hour)
	got := client.Fetch(context.Background())
	assert.Len(t, got, 2)
}

func TestLoadFeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feeds:\n  - https://example.com/rss\n  - https://example.org/feed\n"), 0o644))

	urls, err := LoadFeeds(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/rss", "https://example.org/feed"}, urls)
}

func TestLoadFeeds_MissingFile(t *testing.T) {
	_, err := LoadFeeds(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
