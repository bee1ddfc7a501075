// Package storage implements the posting-history store behind a common
// interface, with MongoDB, PostgreSQL and in-memory backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crickwire/cricnews/internal/config"
	"github.com/crickwire/cricnews/internal/news"
)

// ErrDuplicate reports an insert whose link is already recorded. The
// backends enforce this with a unique constraint, which doubles as the
// insert-if-absent primitive narrowing the concurrent-trigger race.
var ErrDuplicate = errors.New("article already recorded")

// Filter bounds a List query. Zero values mean unbounded.
type Filter struct {
	Since time.Time
	Until time.Time
	Limit int64
}

// Store is the history collaborator contract: append-only records of posted
// articles, existence checks for deduplication, and age-based cleanup.
type Store interface {
	Exists(ctx context.Context, link string) (bool, error)
	Insert(ctx context.Context, article news.PostedArticle) error
	List(ctx context.Context, filter Filter) ([]news.PostedArticle, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NewStore creates a store instance based on configuration.
func NewStore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "mongo":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "postgres":
		return NewPostgresStore(cfg.PostgresDSN)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
