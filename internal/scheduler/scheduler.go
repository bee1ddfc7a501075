package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crickwire/cricnews/internal/metrics"
	"github.com/crickwire/cricnews/internal/poster"
)

const (
	fetchJobTimeout   = 10 * time.Minute
	cleanupJobTimeout = time.Minute
)

// CycleRunner executes one fetch-select-post cycle.
type CycleRunner interface {
	Run(ctx context.Context) (poster.Report, error)
}

// CleanupRunner purges aged history records.
type CleanupRunner interface {
	Run(ctx context.Context) (int64, error)
}

// Result is the outcome of a job's most recent firing.
type Result string

const (
	ResultPending Result = "pending"
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultSkipped Result = "skipped"
)

// Kind distinguishes the two job families in the registry.
type Kind string

const (
	KindFetch   Kind = "fetch"
	KindCleanup Kind = "cleanup"
)

type job struct {
	id     string
	kind   Kind
	hour   int
	minute int

	running atomic.Bool

	mu         sync.Mutex
	lastRunAt  time.Time
	lastResult Result
	failStreak int
}

// JobStatus is a point-in-time snapshot of one registered job.
type JobStatus struct {
	ID                  string    `json:"id"`
	Kind                Kind      `json:"kind"`
	Schedule            string    `json:"schedule"`
	LastRunAt           time.Time `json:"last_run_at,omitempty"`
	LastResult          Result    `json:"last_result"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	NextRunAt           time.Time `json:"next_run_at,omitempty"`
}

// Health summarizes whether the registry is keeping up. Degraded means at
// least one job has failed its last few firings in a row; it is a signal
// only and never halts other jobs.
type Health struct {
	Status        string    `json:"status"`
	Running       bool      `json:"running"`
	Jobs          int       `json:"jobs"`
	WorstStreak   int       `json:"worst_failure_streak"`
	LastSuccessAt time.Time `json:"last_success_at,omitempty"`
	NextRunAt     time.Time `json:"next_run_at,omitempty"`
}

// Config bounds the registry's shape and supervision cadence.
type Config struct {
	CleanupHourUTC    int
	HeartbeatInterval time.Duration
	DegradedAfter     int
}

// Scheduler owns the UTC job registry: one fetch job per hour of the day
// plus a daily history cleanup. Firings that would overlap a still-running
// instance of the same job are skipped, not queued.
type Scheduler struct {
	cron    *cron.Cron
	cycle   CycleRunner
	cleaner CleanupRunner
	cfg     Config

	jobs    []*job
	entries map[string]cron.EntryID

	mu            sync.Mutex
	started       bool
	lastSuccessAt time.Time
	stopHeartbeat chan struct{}
}

// New builds the registry without starting it. All 25 jobs are registered
// up front so status is inspectable before the first Start.
func New(cycle CycleRunner, cleaner CleanupRunner, cfg Config) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		cycle:   cycle,
		cleaner: cleaner,
		cfg:     cfg,
		entries: make(map[string]cron.EntryID),
	}

	for hour := 0; hour < 24; hour++ {
		j := &job{
			id:         fmt.Sprintf("cricket_news_hour_%02d", hour),
			kind:       KindFetch,
			hour:       hour,
			lastResult: ResultPending,
		}
		if err := s.register(j, fmt.Sprintf("0 %d * * *", hour), func() { s.runFetch(j) }); err != nil {
			return nil, err
		}
	}

	cleanup := &job{
		id:         "cleanup_old_articles_daily",
		kind:       KindCleanup,
		hour:       cfg.CleanupHourUTC,
		lastResult: ResultPending,
	}
	if err := s.register(cleanup, fmt.Sprintf("0 %d * * *", cfg.CleanupHourUTC), func() { s.runCleanup(cleanup) }); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) register(j *job, spec string, fn func()) error {
	entryID, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("register job %s: %w", j.id, err)
	}
	s.jobs = append(s.jobs, j)
	s.entries[j.id] = entryID
	return nil
}

// Start begins firing registered jobs and the heartbeat. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stopHeartbeat = make(chan struct{})

	s.cron.Start()
	go s.heartbeat(s.stopHeartbeat)
	slog.Info("scheduler started", "jobs", len(s.jobs), "cleanup_hour_utc", s.cfg.CleanupHourUTC)
}

// Stop halts future firings and waits for in-flight jobs to finish, or for
// ctx to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	close(s.stopHeartbeat)
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// IsRunning reports whether the registry is firing jobs.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// TriggerNow runs one posting cycle immediately, outside the registry.
// Manual runs do not touch job state or the failure streak.
func (s *Scheduler) TriggerNow(ctx context.Context) (poster.Report, error) {
	slog.Info("manual cycle triggered")
	return s.cycle.Run(ctx)
}

// TriggerCleanup purges aged history immediately, outside the registry.
func (s *Scheduler) TriggerCleanup(ctx context.Context) (int64, error) {
	slog.Info("manual cleanup triggered")
	return s.cleaner.Run(ctx)
}

func (s *Scheduler) runFetch(j *job) {
	if !j.running.CompareAndSwap(false, true) {
		slog.Warn("previous firing still running, skipping", "job", j.id)
		j.record(ResultSkipped)
		metrics.Global.IncrementFiringsSkipped()
		return
	}
	defer j.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), fetchJobTimeout)
	defer cancel()

	report, err := s.cycle.Run(ctx)
	if err != nil {
		slog.Error("scheduled cycle failed", "job", j.id, "error", err)
		j.record(ResultFailure)
		return
	}

	slog.Info("scheduled cycle complete", "job", j.id,
		"attempted", report.Attempted, "succeeded", report.Succeeded, "failed", report.Failed)
	j.record(ResultSuccess)
	s.noteSuccess()
}

func (s *Scheduler) runCleanup(j *job) {
	if !j.running.CompareAndSwap(false, true) {
		slog.Warn("previous firing still running, skipping", "job", j.id)
		j.record(ResultSkipped)
		metrics.Global.IncrementFiringsSkipped()
		return
	}
	defer j.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), cleanupJobTimeout)
	defer cancel()

	if _, err := s.cleaner.Run(ctx); err != nil {
		slog.Error("scheduled cleanup failed", "job", j.id, "error", err)
		j.record(ResultFailure)
		return
	}
	j.record(ResultSuccess)
}

func (s *Scheduler) noteSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSuccessAt = time.Now().UTC()
}

// record updates the job's last-firing state. Failures extend the job's
// streak, successes clear it, skips leave it untouched since nothing ran.
func (j *job) record(result Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lastRunAt = time.Now().UTC()
	j.lastResult = result

	switch result {
	case ResultFailure:
		j.failStreak++
	case ResultSuccess:
		j.failStreak = 0
	}
}

// Status snapshots every registered job in registration order.
func (s *Scheduler) Status() []JobStatus {
	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		j.mu.Lock()
		status := JobStatus{
			ID:                  j.id,
			Kind:                j.kind,
			Schedule:            fmt.Sprintf("%02d:%02d UTC daily", j.hour, j.minute),
			LastRunAt:           j.lastRunAt,
			LastResult:          j.lastResult,
			ConsecutiveFailures: j.failStreak,
		}
		j.mu.Unlock()

		if entryID, ok := s.entries[j.id]; ok {
			status.NextRunAt = s.cron.Entry(entryID).Next
		}
		out = append(out, status)
	}
	return out
}

// CheckHealth reports degraded once any job has failed enough firings in a
// row, and stopped when the registry is not firing at all.
func (s *Scheduler) CheckHealth() Health {
	s.mu.Lock()
	started := s.started
	lastSuccess := s.lastSuccessAt
	s.mu.Unlock()

	worst := 0
	for _, j := range s.jobs {
		j.mu.Lock()
		if j.failStreak > worst {
			worst = j.failStreak
		}
		j.mu.Unlock()
	}

	h := Health{
		Running:       started,
		Jobs:          len(s.jobs),
		WorstStreak:   worst,
		LastSuccessAt: lastSuccess,
	}

	switch {
	case !started:
		h.Status = "stopped"
	case worst >= s.cfg.DegradedAfter:
		h.Status = "degraded"
	default:
		h.Status = "healthy"
	}

	if started {
		h.NextRunAt = s.nextRun()
	}
	return h
}

func (s *Scheduler) nextRun() time.Time {
	var next time.Time
	for _, entry := range s.cron.Entries() {
		if entry.Next.IsZero() {
			continue
		}
		if next.IsZero() || entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return next
}

func (s *Scheduler) heartbeat(stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h := s.CheckHealth()
			slog.Info("scheduler heartbeat",
				"status", h.Status,
				"jobs", h.Jobs,
				"worst_failure_streak", h.WorstStreak,
				"next_run", h.NextRunAt)
		}
	}
}
