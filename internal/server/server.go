package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crickwire/cricnews/internal/metrics"
	"github.com/crickwire/cricnews/internal/news"
	"github.com/crickwire/cricnews/internal/poster"
	"github.com/crickwire/cricnews/internal/scheduler"
	"github.com/crickwire/cricnews/internal/storage"
)

const (
	defaultArticleLimit = 50
	maxArticleLimit     = 200
)

// SchedulerControl is the slice of the scheduler the control surface needs.
type SchedulerControl interface {
	Start()
	Stop(ctx context.Context) error
	IsRunning() bool
	Status() []scheduler.JobStatus
	CheckHealth() scheduler.Health
	TriggerNow(ctx context.Context) (poster.Report, error)
	TriggerCleanup(ctx context.Context) (int64, error)
}

// HistoryReader exposes the posted-article history to read endpoints.
type HistoryReader interface {
	List(ctx context.Context, filter storage.Filter) ([]news.PostedArticle, error)
	Ping(ctx context.Context) error
}

// Server is the HTTP control surface: health, history reads, and manual
// scheduler operations.
type Server struct {
	http      *http.Server
	scheduler SchedulerControl
	history   HistoryReader
}

func New(port string, sched SchedulerControl, history HistoryReader) *Server {
	s := &Server{
		scheduler: sched,
		history:   history,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.routes(router)

	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(router *gin.Engine) {
	router.GET("/", s.root)

	api := router.Group("/api")
	api.GET("/health", s.health)
	api.GET("/status", s.status)
	api.GET("/articles", s.articles)
	api.GET("/headlines", s.headlinesHandler)
	api.POST("/trigger", s.trigger)
	api.POST("/cleanup", s.cleanup)

	sched := api.Group("/scheduler")
	sched.GET("/status", s.schedulerStatus)
	sched.GET("/health", s.schedulerHealth)
	sched.POST("/start", s.schedulerStart)
	sched.POST("/stop", s.schedulerStop)
}

// ListenAndServe blocks until the server exits. A graceful shutdown returns
// nil.
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "cricnews",
		"status":  "running",
	})
}

func (s *Server) health(c *gin.Context) {
	storeStatus := "ok"
	code := http.StatusOK
	if err := s.history.Ping(c.Request.Context()); err != nil {
		storeStatus = err.Error()
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    statusWord(code == http.StatusOK),
		"store":     storeStatus,
		"scheduler": s.scheduler.CheckHealth().Status,
		"time":      time.Now().UTC(),
	})
}

func statusWord(ok bool) string {
	if ok {
		return "healthy"
	}
	return "unhealthy"
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics":           metrics.Global.GetStats(),
		"scheduler_running": s.scheduler.IsRunning(),
	})
}

// articles returns recently posted articles, newest first. ?limit= caps the
// page, ?hours= narrows the window.
func (s *Server) articles(c *gin.Context) {
	limit := intQuery(c, "limit", defaultArticleLimit)
	if limit < 1 || limit > maxArticleLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
		return
	}

	filter := storage.Filter{Limit: int64(limit)}
	if hours := intQuery(c, "hours", 0); hours > 0 {
		filter.Since = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}

	articles, err := s.history.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if articles == nil {
		articles = []news.PostedArticle{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(articles), "articles": articles})
}

// headlinesHandler returns everything posted since midnight UTC.
func (s *Server) headlinesHandler(c *gin.Context) {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	articles, err := s.history.List(c.Request.Context(), storage.Filter{Since: midnight})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if articles == nil {
		articles = []news.PostedArticle{}
	}
	c.JSON(http.StatusOK, gin.H{"date": midnight.Format("2006-01-02"), "count": len(articles), "headlines": articles})
}

func (s *Server) trigger(c *gin.Context) {
	start := time.Now()
	report, err := s.scheduler.TriggerNow(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "completed",
		"report":   report,
		"duration": time.Since(start).String(),
	})
}

func (s *Server) cleanup(c *gin.Context) {
	purged, err := s.scheduler.TriggerCleanup(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed", "purged": purged})
}

func (s *Server) schedulerStatus(c *gin.Context) {
	jobs := s.scheduler.Status()
	c.JSON(http.StatusOK, gin.H{
		"running": s.scheduler.IsRunning(),
		"jobs":    jobs,
		"count":   len(jobs),
	})
}

func (s *Server) schedulerHealth(c *gin.Context) {
	health := s.scheduler.CheckHealth()
	code := http.StatusOK
	if health.Status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":               health.Status,
		"running":              health.Running,
		"worst_failure_streak": health.WorstStreak,
		"last_success_at":      health.LastSuccessAt,
		"next_run_at":          health.NextRunAt,
		"jobs":                 s.scheduler.Status(),
	})
}

func (s *Server) schedulerStart(c *gin.Context) {
	if s.scheduler.IsRunning() {
		c.JSON(http.StatusOK, gin.H{"status": "already_running"})
		return
	}
	s.scheduler.Start()
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

func (s *Server) schedulerStop(c *gin.Context) {
	if !s.scheduler.IsRunning() {
		c.JSON(http.StatusConflict, gin.H{"error": "scheduler not running"})
		return
	}
	if err := s.scheduler.Stop(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
