package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickwire/cricnews/internal/config"
	"github.com/crickwire/cricnews/internal/news"
)

func posted(link string, postedAt time.Time) news.PostedArticle {
	return news.NewPostedArticle(news.Candidate{
		Title:    "article " + link,
		Link:     "https://example.com/" + link,
		Source:   news.SourcePrimaryFeed,
		Category: news.CategoryWorld,
	}, postedAt)
}

func TestMemoryStore_ReadYourWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := posted("a", time.Now())

	ok, err := store.Exists(ctx, a.Link)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Insert(ctx, a))

	ok, err = store.Exists(ctx, a.Link)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_DuplicateInsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := posted("a", time.Now())

	require.NoError(t, store.Insert(ctx, a))
	assert.ErrorIs(t, store.Insert(ctx, a), ErrDuplicate)
}

func TestMemoryStore_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, posted("old", now.Add(-8*24*time.Hour))))
	require.NoError(t, store.Insert(ctx, posted("recent", now.Add(-3*24*time.Hour))))

	deleted, err := store.DeleteOlderThan(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	ok, err := store.Exists(ctx, "https://example.com/recent")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "https://example.com/old")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ListFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, posted("first", now.Add(-3*time.Hour))))
	require.NoError(t, store.Insert(ctx, posted("second", now.Add(-2*time.Hour))))
	require.NoError(t, store.Insert(ctx, posted("third", now.Add(-time.Hour))))

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://example.com/third", all[0].Link, "newest first")

	limited, err := store.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	since, err := store.List(ctx, Filter{Since: now.Add(-150 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, since, 2)
}

func TestNewStore_Factory(t *testing.T) {
	store, err := NewStore(context.Background(), config.StorageConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore(context.Background(), config.StorageConfig{Type: "sqlite"})
	assert.Error(t, err)
}
