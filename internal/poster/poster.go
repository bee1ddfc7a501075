// Package poster delivers a selected batch of articles one at a time,
// resolving images lazily, pacing sends, and recording successes in the
// history store.
package poster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crickwire/cricnews/internal/metrics"
	"github.com/crickwire/cricnews/internal/news"
	"github.com/crickwire/cricnews/internal/storage"
)

// Sender delivers one article to the messaging channel.
type Sender interface {
	Send(ctx context.Context, article news.Candidate) error
}

// ImageResolver scrapes an article page for a usable image URL.
type ImageResolver interface {
	ResolveImage(ctx context.Context, pageURL string) (string, error)
}

// History records successfully delivered articles.
type History interface {
	Insert(ctx context.Context, article news.PostedArticle) error
}

// Report is the per-batch outcome of one posting run.
type Report struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Poster struct {
	sender  Sender
	images  ImageResolver
	history History
	pace    time.Duration
}

func New(sender Sender, images ImageResolver, history History, pace time.Duration) *Poster {
	return &Poster{
		sender:  sender,
		images:  images,
		history: history,
		pace:    pace,
	}
}

// PostAll posts every selected article in order. A send failure skips that
// article (it stays eligible for a future cycle) and never aborts the batch;
// only a history-store failure does, since continuing would re-post articles
// the store can no longer dedupe. A fixed pacing delay separates consecutive
// sends to respect the channel's rate limits.
func (p *Poster) PostAll(ctx context.Context, selected []news.Candidate) (Report, error) {
	report := Report{}

	for i, article := range selected {
		if ctx.Err() != nil {
			slog.Warn("posting abandoned", "remaining", len(selected)-i)
			return report, ctx.Err()
		}

		report.Attempted++

		if article.ImageURL == "" && p.images != nil {
			imageURL, err := p.images.ResolveImage(ctx, article.Link)
			if err != nil {
				slog.Warn("image resolution failed, posting without image",
					"title", article.Title, "error", err)
			} else {
				article.ImageURL = imageURL
			}
		}

		if err := p.sender.Send(ctx, article); err != nil {
			slog.Error("failed to send article", "title", article.Title, "error", err)
			report.Failed++
			metrics.Global.AddSendFailures(1)
			continue
		}

		record := news.NewPostedArticle(article, time.Now().UTC())
		if err := p.history.Insert(ctx, record); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				// Another run recorded the same link between our existence
				// check and this insert. The article went out, so count it.
				slog.Warn("article already recorded by a concurrent run", "link", article.Link)
			} else {
				report.Succeeded++
				metrics.Global.AddPosted(1)
				return report, fmt.Errorf("record posted article %s: %w", article.Link, err)
			}
		}

		report.Succeeded++
		metrics.Global.AddPosted(1)

		if i < len(selected)-1 && p.pace > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(p.pace):
			}
		}
	}

	slog.Info("posting run complete",
		"attempted", report.Attempted, "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}
