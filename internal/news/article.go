// Package news holds the article model, the category classifier, and the
// merge/dedupe selection engine that decides what gets posted each cycle.
package news

import "time"

// Source identifies which provider produced a candidate.
type Source string

const (
	SourcePrimaryFeed Source = "rss"
	SourceFallbackAPI Source = "newsapi"
)

// Category partitions articles for per-run quota selection.
type Category string

const (
	CategoryDomestic Category = "domestic"
	CategoryWorld    Category = "world"
)

// Candidate is an article fetched in the current cycle, not yet confirmed
// posted. Link is the identity key: two candidates with the same link are
// the same article regardless of other field differences.
type Candidate struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Source      Source    `json:"source"`
	Category    Category  `json:"category"`
	PublishedAt time.Time `json:"published_at"`
}

// PostedArticle is the durable record written once a candidate has been
// successfully delivered. It is never mutated afterwards; the daily cleanup
// deletes it once PostedAt falls outside the retention window.
type PostedArticle struct {
	Candidate
	PostedAt time.Time `json:"posted_at"`
	IsPosted bool      `json:"is_posted"`
}

// NewPostedArticle stamps a delivered candidate into its durable form.
func NewPostedArticle(c Candidate, postedAt time.Time) PostedArticle {
	return PostedArticle{
		Candidate: c,
		PostedAt:  postedAt,
		IsPosted:  true,
	}
}
