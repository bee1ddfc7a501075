package news

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crickwire/cricnews/internal/metrics"
)

// HistoryLookup is the live duplicate check against the history store.
// It must hit the store itself, not a snapshot, so records written by a
// concurrently-completing post are observed.
type HistoryLookup interface {
	Exists(ctx context.Context, link string) (bool, error)
}

// SelectOptions bounds one cycle's selection.
type SelectOptions struct {
	Target        int
	DomesticQuota int
	WorldQuota    int
}

func DefaultSelectOptions() SelectOptions {
	return SelectOptions{Target: 5, DomesticQuota: 3, WorldQuota: 2}
}

// Select merges the candidate batch into an ordered posting list:
//
//  1. dedupe within the batch by link, first occurrence wins (callers pass
//     primary-source candidates before fallback ones, so source priority
//     is preserved);
//  2. drop candidates whose link already exists in history;
//  3. fill Domestic up to DomesticQuota and World up to WorldQuota,
//     preserving input order within each category;
//  4. reallocate unused quota to the other category, never exceeding Target.
//
// The output never holds two articles with the same link, never holds a link
// present in history at call time, and is never longer than Target. A store
// error aborts selection; the caller marks the firing as failed.
func Select(ctx context.Context, candidates []Candidate, history HistoryLookup, opts SelectOptions) ([]Candidate, error) {
	if opts.Target <= 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(candidates))
	fresh := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if c.Link == "" {
			continue
		}
		if _, dup := seen[c.Link]; dup {
			metrics.Global.IncrementDuplicatesFiltered()
			continue
		}
		seen[c.Link] = struct{}{}

		posted, err := history.Exists(ctx, c.Link)
		if err != nil {
			return nil, fmt.Errorf("history lookup for %s: %w", c.Link, err)
		}
		if posted {
			slog.Debug("skipping already posted article", "title", c.Title, "link", c.Link)
			metrics.Global.IncrementDuplicatesFiltered()
			continue
		}

		fresh = append(fresh, c)
	}

	chosen := make(map[string]struct{}, opts.Target)
	total, domestic, world := 0, 0, 0

	// Quota pass: category slots first, in input order.
	for _, c := range fresh {
		if total >= opts.Target {
			break
		}
		switch c.Category {
		case CategoryDomestic:
			if domestic < opts.DomesticQuota {
				chosen[c.Link] = struct{}{}
				domestic++
				total++
			}
		default:
			if world < opts.WorldQuota {
				chosen[c.Link] = struct{}{}
				world++
				total++
			}
		}
	}

	// Reallocation pass: hand unused quota to whatever is left, up to Target.
	for _, c := range fresh {
		if total >= opts.Target {
			break
		}
		if _, ok := chosen[c.Link]; ok {
			continue
		}
		chosen[c.Link] = struct{}{}
		total++
	}

	out := make([]Candidate, 0, total)
	for _, c := range fresh {
		if _, ok := chosen[c.Link]; ok {
			out = append(out, c)
		}
	}

	return out, nil
}
