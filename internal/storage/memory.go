package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/crickwire/cricnews/internal/news"
)

// MemoryStore is an in-process Store for tests and local development.
// The RWMutex gives read-your-writes consistency across goroutines.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]news.PostedArticle
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]news.PostedArticle),
	}
}

func (m *MemoryStore) Exists(_ context.Context, link string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.items[link]
	return ok, nil
}

func (m *MemoryStore) Insert(_ context.Context, article news.PostedArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[article.Link]; ok {
		return ErrDuplicate
	}
	m.items[article.Link] = article
	return nil
}

func (m *MemoryStore) List(_ context.Context, filter Filter) ([]news.PostedArticle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var articles []news.PostedArticle
	for _, a := range m.items {
		if !filter.Since.IsZero() && a.PostedAt.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && !a.PostedAt.Before(filter.Until) {
			continue
		}
		articles = append(articles, a)
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PostedAt.After(articles[j].PostedAt)
	})

	if filter.Limit > 0 && int64(len(articles)) > filter.Limit {
		articles = articles[:filter.Limit]
	}
	return articles, nil
}

func (m *MemoryStore) DeleteOlderThan(_ context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)

	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for link, a := range m.items {
		if a.PostedAt.Before(cutoff) {
			delete(m.items, link)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }
