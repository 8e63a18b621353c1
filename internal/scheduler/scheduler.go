// Package scheduler re-runs the report pipeline on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// ErrRunning is returned by Trigger while a refresh is in progress.
	ErrRunning = errors.New("refresh already running")
	// ErrStopped is returned by Trigger after Stop.
	ErrStopped = errors.New("scheduler is stopped")
)

// RefreshFunc rebuilds and publishes the report. ctx is cancelled on Stop.
type RefreshFunc func(ctx context.Context) error

// Status describes the refresh job.
type Status struct {
	Running   bool      `json:"running"`
	Runs      int       `json:"runs"`
	LastRun   time.Time `json:"last_run,omitzero"`
	NextRun   time.Time `json:"next_run,omitzero"`
	Schedule  string    `json:"schedule,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// Scheduler runs a RefreshFunc on a cron schedule and on demand. At most one
// refresh runs at a time.
type Scheduler struct {
	cron    *cron.Cron
	refresh RefreshFunc
	logger  *slog.Logger

	mu       sync.RWMutex
	entry    cron.EntryID
	schedule string
	running  bool
	runs     int
	lastRun  time.Time
	lastErr  error

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// New creates a Scheduler with no schedule. Trigger works without one.
func New(refresh RefreshFunc) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		refresh: refresh,
		logger:  slog.Default(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule reports whether expr is a five-field cron expression
// SetSchedule accepts.
func ValidateSchedule(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// WithLogger sets the logger for the scheduler.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = logger
	return s
}

// SetSchedule replaces the refresh schedule. An empty expression removes it.
func (s *Scheduler) SetSchedule(expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule != "" {
		s.cron.Remove(s.entry)
		s.schedule = ""
	}
	if expr == "" {
		return nil
	}

	id, err := s.cron.AddFunc(expr, func() {
		if err := s.Trigger(); err != nil {
			s.logger.Warn("scheduled refresh skipped", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	s.entry = id
	s.schedule = expr
	s.logger.Info("scheduled refresh", "schedule", expr, "next_run", s.cron.Entry(id).Next)
	return nil
}

// Start begins executing the schedule.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.schedule)
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && !s.stopped
}

// Stop halts the schedule and cancels a running refresh. The returned
// context is done once the refresh has returned.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("scheduler stopping")

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	s.cancel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		cancel()
	}()
	return ctx
}

// Trigger starts a refresh in the background.
func (s *Scheduler) Trigger() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.running {
		return ErrRunning
	}
	s.running = true
	s.wg.Add(1)
	go s.run()
	return nil
}

// run executes one refresh. The caller has set running and called wg.Add.
func (s *Scheduler) run() {
	defer s.wg.Done()

	s.logger.Info("starting refresh")
	start := time.Now()
	err := s.refresh(s.ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.runs++
	s.lastErr = err
	if err != nil {
		s.logger.Error("refresh failed", "duration", time.Since(start), "error", err)
		return
	}
	s.lastRun = time.Now()
	s.logger.Info("refresh completed", "duration", time.Since(start))
}

// Status returns the current state of the refresh job.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Running:  s.running,
		Runs:     s.runs,
		LastRun:  s.lastRun,
		Schedule: s.schedule,
	}
	if s.schedule != "" {
		st.NextRun = s.cron.Entry(s.entry).Next
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
