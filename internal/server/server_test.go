package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickwire/cricnews/internal/news"
	"github.com/crickwire/cricnews/internal/poster"
	"github.com/crickwire/cricnews/internal/scheduler"
	"github.com/crickwire/cricnews/internal/storage"
)

type fakeScheduler struct {
	running    bool
	health     scheduler.Health
	jobs       []scheduler.JobStatus
	report     poster.Report
	triggerErr error
	purged     int64
	cleanupErr error
	triggers   int
}

func (f *fakeScheduler) Start() { f.running = true }

func (f *fakeScheduler) Stop(context.Context) error { f.running = false; return nil }

func (f *fakeScheduler) IsRunning() bool { return f.running }

func (f *fakeScheduler) Status() []scheduler.JobStatus { return f.jobs }

func (f *fakeScheduler) CheckHealth() scheduler.Health { return f.health }

func (f *fakeScheduler) TriggerNow(context.Context) (poster.Report, error) {
	f.triggers++
	return f.report, f.triggerErr
}

func (f *fakeScheduler) TriggerCleanup(context.Context) (int64, error) {
	return f.purged, f.cleanupErr
}

type fakeHistory struct {
	articles []news.PostedArticle
	listErr  error
	pingErr  error
	filter   storage.Filter
}

func (f *fakeHistory) List(_ context.Context, filter storage.Filter) ([]news.PostedArticle, error) {
	f.filter = filter
	return f.articles, f.listErr
}

func (f *fakeHistory) Ping(context.Context) error { return f.pingErr }

func serve(t *testing.T, s *Server, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return rec, body
}

func newTestServer(sched *fakeScheduler, history *fakeHistory) *Server {
	if sched == nil {
		sched = &fakeScheduler{health: scheduler.Health{Status: "healthy"}}
	}
	if history == nil {
		history = &fakeHistory{}
	}
	return New("0", sched, history)
}

func TestRoot(t *testing.T) {
	rec, body := serve(t, newTestServer(nil, nil), http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cricnews", body["service"])
}

func TestHealth(t *testing.T) {
	rec, body := serve(t, newTestServer(nil, nil), http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["store"])
}

func TestHealth_StoreDown(t *testing.T) {
	history := &fakeHistory{pingErr: errors.New("connection refused")}
	rec, body := serve(t, newTestServer(nil, history), http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestArticles(t *testing.T) {
	now := time.Now().UTC()
	history := &fakeHistory{articles: []news.PostedArticle{
		news.NewPostedArticle(news.Candidate{Title: "one", Link: "https://example.com/1"}, now),
	}}

	rec, body := serve(t, newTestServer(nil, history), http.MethodGet, "/api/articles?limit=5&hours=24")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	assert.EqualValues(t, 5, history.filter.Limit)
	assert.WithinDuration(t, now.Add(-24*time.Hour), history.filter.Since, time.Minute)
}

func TestArticles_RejectsBadLimit(t *testing.T) {
	rec, _ := serve(t, newTestServer(nil, nil), http.MethodGet, "/api/articles?limit=9999")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArticles_StoreFailure(t *testing.T) {
	history := &fakeHistory{listErr: errors.New("connection reset")}
	rec, _ := serve(t, newTestServer(nil, history), http.MethodGet, "/api/articles")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHeadlines_ReturnsTodaysPosts(t *testing.T) {
	history := &fakeHistory{articles: []news.PostedArticle{
		news.NewPostedArticle(news.Candidate{Title: "live", Link: "https://example.com/live"}, time.Now().UTC()),
	}}
	rec, body := serve(t, newTestServer(nil, history), http.MethodGet, "/api/headlines")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	midnight := history.filter.Since
	assert.Equal(t, 0, midnight.Hour())
	assert.Equal(t, 0, midnight.Minute())
	assert.WithinDuration(t, time.Now().UTC(), midnight, 24*time.Hour)
}

func TestTrigger(t *testing.T) {
	sched := &fakeScheduler{report: poster.Report{Attempted: 3, Succeeded: 3}}
	rec, body := serve(t, newTestServer(sched, nil), http.MethodPost, "/api/trigger")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, 1, sched.triggers)
}

func TestTrigger_Failure(t *testing.T) {
	sched := &fakeScheduler{triggerErr: errors.New("store unreachable")}
	rec, _ := serve(t, newTestServer(sched, nil), http.MethodPost, "/api/trigger")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCleanup(t *testing.T) {
	sched := &fakeScheduler{purged: 7}
	rec, body := serve(t, newTestServer(sched, nil), http.MethodPost, "/api/cleanup")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, body["purged"])
}

func TestSchedulerStatus(t *testing.T) {
	sched := &fakeScheduler{jobs: []scheduler.JobStatus{
		{ID: "cricket_news_hour_00", Kind: scheduler.KindFetch, LastResult: scheduler.ResultPending},
	}}
	rec, body := serve(t, newTestServer(sched, nil), http.MethodGet, "/api/scheduler/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
}

func TestSchedulerHealth_Degraded(t *testing.T) {
	sched := &fakeScheduler{running: true, health: scheduler.Health{Status: "degraded", WorstStreak: 4}}
	rec, body := serve(t, newTestServer(sched, nil), http.MethodGet, "/api/scheduler/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestSchedulerStartStop(t *testing.T) {
	sched := &fakeScheduler{health: scheduler.Health{Status: "stopped"}}
	srv := newTestServer(sched, nil)

	rec, body := serve(t, srv, http.MethodPost, "/api/scheduler/start")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sched.running)

	rec, body = serve(t, srv, http.MethodPost, "/api/scheduler/start")
	assert.Equal(t, http.StatusOK, rec.Code, "start is idempotent")
	assert.Equal(t, "already_running", body["status"])

	rec, _ = serve(t, srv, http.MethodPost, "/api/scheduler/stop")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sched.running)

	rec, _ = serve(t, srv, http.MethodPost, "/api/scheduler/stop")
	assert.Equal(t, http.StatusConflict, rec.Code, "stopping a stopped scheduler conflicts")
}
