package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EternisAI/netharvest/internal/pipeline"
)

var ErrRunInProgress = errors.New("a run is already in progress or queued")

type Runner interface {
	Run(ctx context.Context, phases pipeline.Phase) (*pipeline.Report, error)
}

type Observer interface {
	Observe(report *pipeline.Report)
}

type Config struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Scheduler runs the pipeline on a fixed interval and on demand. Runs never
// overlap.
type Scheduler struct {
	runner   Runner
	observer Observer
	interval time.Duration

	mu   sync.RWMutex
	last *pipeline.Report

	running atomic.Bool
	trigger chan struct{}
}

func NewScheduler(runner Runner, observer Observer, config Config) *Scheduler {
	interval := config.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		runner:   runner,
		observer: observer,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Start runs once immediately and then blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("Scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

// Trigger queues an immediate run.
func (s *Scheduler) Trigger() error {
	if s.running.Load() {
		return ErrRunInProgress
	}
	select {
	case s.trigger <- struct{}{}:
		return nil
	default:
		return ErrRunInProgress
	}
}

func (s *Scheduler) LastReport() (*pipeline.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}

func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)

	report, err := s.runner.Run(ctx, pipeline.PhaseAll)
	if err != nil {
		slog.Warn("Scheduled run did not complete", "outcome", report.Outcome, "error", err)
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.Observe(report)
	}
}
