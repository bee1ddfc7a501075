package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/crickwire/cricnews/internal/metrics"
)

// HistoryPruner removes posted-article records older than a given age.
type HistoryPruner interface {
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// Cleaner purges history entries that have aged out of the retention window.
type Cleaner struct {
	store     HistoryPruner
	retention time.Duration
}

func NewCleaner(store HistoryPruner, retention time.Duration) *Cleaner {
	return &Cleaner{store: store, retention: retention}
}

// Run deletes every record older than the retention window and returns the
// purge count.
func (c *Cleaner) Run(ctx context.Context) (int64, error) {
	purged, err := c.store.DeleteOlderThan(ctx, c.retention)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return 0, err
	}
	metrics.Global.RecordCleanup(purged)
	slog.Info("history cleanup complete", "purged", purged, "retention", c.retention)
	return purged, nil
}
