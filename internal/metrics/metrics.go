package metrics

import (
	"sync"
	"time"
)

// Metrics holds process-wide counters served by the /api/status endpoint.
// Everything is rebuilt fresh at process start.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	CyclesRun          int64
	ArticlesFetched    int64
	ArticlesSelected   int64
	ArticlesPosted     int64
	SendFailures       int64
	DuplicatesFiltered int64
	CleanupsRun        int64
	ArticlesPurged     int64
	FiringsSkipped     int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFetched += int64(n)
}

func (m *Metrics) AddSelected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesSelected += int64(n)
}

func (m *Metrics) AddPosted(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesPosted += int64(n)
}

func (m *Metrics) AddSendFailures(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendFailures += int64(n)
}

func (m *Metrics) IncrementDuplicatesFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered++
}

func (m *Metrics) IncrementFiringsSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FiringsSkipped++
}

func (m *Metrics) RecordCleanup(purged int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CleanupsRun++
	m.ArticlesPurged += purged
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CyclesRun++
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"cycles_run":          m.CyclesRun,
		"articles_fetched":    m.ArticlesFetched,
		"articles_selected":   m.ArticlesSelected,
		"articles_posted":     m.ArticlesPosted,
		"send_failures":       m.SendFailures,
		"duplicates_filtered": m.DuplicatesFiltered,
		"cleanups_run":        m.CleanupsRun,
		"articles_purged":     m.ArticlesPurged,
		"firings_skipped":     m.FiringsSkipped,
		"last_run_time":       m.LastRunTime.Format(time.RFC3339),
		"last_error_time":     m.LastErrorTime.Format(time.RFC3339),
		"last_error":          m.LastError,
		"is_healthy":          m.IsHealthy,
	}
}
