package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-forecaster/internal/services"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Runner interface {
	Run(ctx context.Context, city string) (*services.RunReport, error)
}

// Scheduler triggers forecast runs for one city on a cron schedule.
type Scheduler struct {
	runner  Runner
	logger  *zap.Logger
	city    string
	spec    string
	timeout time.Duration

	mu        sync.Mutex
	cron      *cron.Cron
	entryID   cron.EntryID
	running   bool
	lastRun   time.Time
	lastState services.State
	skipped   int
}

func NewScheduler(runner Runner, city, spec string, timeout time.Duration, logger *zap.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		runner:  runner,
		logger:  logger,
		city:    city,
		spec:    spec,
		timeout: timeout,
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	c := cron.New()
	id, err := c.AddFunc(s.spec, s.runForecast)
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", s.spec, err)
	}

	s.cron = c
	s.entryID = id
	s.running = true
	c.Start()

	s.logger.Info("Scheduler started",
		zap.String("spec", s.spec),
		zap.String("city", s.city),
		zap.Time("next_run", c.Entry(id).Next))
	return nil
}

// Stop halts the schedule and waits for an in-flight run, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduled run still in flight at shutdown")
	}
}

func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering forecast run", zap.String("city", s.city))
	go s.runForecast()
}

func (s *Scheduler) runForecast() {
	startTime := time.Now()
	s.logger.Info("Starting scheduled forecast run",
		zap.Time("start_time", startTime),
		zap.String("city", s.city))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.runner.Run(ctx, s.city)

	s.mu.Lock()
	defer s.mu.Unlock()

	if errors.Is(err, services.ErrRunInProgress) {
		s.skipped++
		s.logger.Info("Skipping scheduled run, previous run still in progress")
		return
	}

	s.lastRun = startTime
	if report != nil {
		s.lastState = report.State
	}

	if err != nil {
		s.logger.Error("Scheduled forecast run failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
		return
	}

	s.logger.Info("Scheduled forecast run completed",
		zap.String("run_id", report.ID),
		zap.Int("warnings", len(report.Warnings)),
		zap.Duration("duration", time.Since(startTime)))
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":    s.running,
		"spec":       s.spec,
		"city":       s.city,
		"last_run":   s.lastRun,
		"last_state": s.lastState,
		"skipped":    s.skipped,
	}
	if s.running && s.cron != nil {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}
