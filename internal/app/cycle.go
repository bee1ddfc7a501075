package app

import (
	"context"
	"log/slog"

	"github.com/crickwire/cricnews/internal/metrics"
	"github.com/crickwire/cricnews/internal/news"
	"github.com/crickwire/cricnews/internal/poster"
)

// Fetcher is a candidate source. Implementations absorb their own failures
// and return an empty slice when nothing usable came back.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) []news.Candidate
}

// Publisher delivers a selected batch and records it.
type Publisher interface {
	PostAll(ctx context.Context, selected []news.Candidate) (poster.Report, error)
}

// Cycle is one end-to-end run: fetch, select against history, post.
type Cycle struct {
	primary  Fetcher
	fallback Fetcher
	history  news.HistoryLookup
	poster   Publisher
	opts     news.SelectOptions
}

// NewCycle wires a run pipeline. fallback may be nil when no secondary
// source is configured.
func NewCycle(primary, fallback Fetcher, history news.HistoryLookup, publisher Publisher, opts news.SelectOptions) *Cycle {
	return &Cycle{
		primary:  primary,
		fallback: fallback,
		history:  history,
		poster:   publisher,
		opts:     opts,
	}
}

// Run executes one posting cycle. The fallback source is only consulted
// when the primary yields fewer candidates than one run can post. An empty
// selection is a successful no-op, not an error.
func (c *Cycle) Run(ctx context.Context) (poster.Report, error) {
	candidates := c.primary.Fetch(ctx)
	slog.Info("fetched candidates", "source", c.primary.Name(), "count", len(candidates))

	if len(candidates) < c.opts.Target && c.fallback != nil {
		extra := c.fallback.Fetch(ctx)
		slog.Info("fetched candidates", "source", c.fallback.Name(), "count", len(extra))
		candidates = append(candidates, extra...)
	}
	metrics.Global.AddFetched(len(candidates))

	selected, err := news.Select(ctx, candidates, c.history, c.opts)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return poster.Report{}, err
	}
	metrics.Global.AddSelected(len(selected))

	if len(selected) == 0 {
		slog.Info("nothing new to post")
		metrics.Global.SetLastRun()
		return poster.Report{}, nil
	}

	report, err := c.poster.PostAll(ctx, selected)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return report, err
	}

	metrics.Global.SetLastRun()
	return report, nil
}
