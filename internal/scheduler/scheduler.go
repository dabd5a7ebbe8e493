package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweeper removes staged uploads older than a cutoff. Implemented by
// upload.LocalStore.
type Sweeper interface {
	Sweep(ctx context.Context, olderThan time.Duration, dryRun bool) ([]string, error)
}

type SweepScheduler struct {
	store     Sweeper
	interval  time.Duration
	maxAge    time.Duration
	onSwept   func(removed int)
	running   bool
	runs      int
	removed   int
	lastRun   time.Time
	lastError string
	mu        sync.Mutex
	stopChan  chan struct{}
}

type SchedulerConfig struct {
	Interval time.Duration
	MaxAge   time.Duration
	// OnSwept is called after each run with the number of files removed.
	OnSwept func(removed int)
}

func NewSweepScheduler(store Sweeper, cfg SchedulerConfig) *SweepScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Hour
	}

	return &SweepScheduler{
		store:    store,
		interval: cfg.Interval,
		maxAge:   cfg.MaxAge,
		onSwept:  cfg.OnSwept,
		stopChan: make(chan struct{}),
	}
}

func (s *SweepScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("[Sweeper] Starting with interval %v, max age %v", s.interval, s.maxAge)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Sweeper] Context cancelled, stopping")
			s.markStopped()
			return
		case <-s.stopChan:
			log.Println("[Sweeper] Stop signal received")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.stopChan)
		s.running = false
		log.Println("[Sweeper] Stopped")
	}
}

func (s *SweepScheduler) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// RunOnce sweeps the staging area and records the outcome.
func (s *SweepScheduler) RunOnce(ctx context.Context) int {
	swept, err := s.store.Sweep(ctx, s.maxAge, false)

	s.mu.Lock()
	s.runs++
	s.lastRun = time.Now()
	s.removed += len(swept)
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("[Sweeper] Sweep failed after removing %d files: %v", len(swept), err)
	} else if len(swept) > 0 {
		log.Printf("[Sweeper] Removed %d orphaned staged uploads", len(swept))
	}

	if s.onSwept != nil {
		s.onSwept(len(swept))
	}
	return len(swept)
}

// GetStatus returns current scheduler status
func (s *SweepScheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":       s.running,
		"runs":          s.runs,
		"total_removed": s.removed,
		"interval":      s.interval.String(),
		"max_age":       s.maxAge.String(),
	}
	if !s.lastRun.IsZero() {
		status["last_run"] = s.lastRun.Format(time.RFC3339)
	}
	if s.lastError != "" {
		status["last_error"] = s.lastError
	}
	return status
}
