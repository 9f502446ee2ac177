package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-forecaster/internal/services"
	"go.uber.org/zap"
)

type fakeRunner struct {
	mu     sync.Mutex
	cities []string
	err    error
	state  services.State
	ran    chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, city string) (*services.RunReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cities = append(f.cities, city)
	if f.ran != nil {
		defer close(f.ran)
	}
	if errors.Is(f.err, services.ErrRunInProgress) {
		return nil, f.err
	}
	return &services.RunReport{ID: "run-1", City: city, State: f.state}, f.err
}

func TestRunForecastRecordsOutcome(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{state: services.StateDone}
	s := NewScheduler(runner, "Cairo", "@hourly", time.Second, zap.NewNop())

	s.runForecast()

	status := s.GetStatus()
	if status["last_state"] != services.StateDone {
		t.Fatalf("expected DONE, got %v", status["last_state"])
	}
	if len(runner.cities) != 1 || runner.cities[0] != "Cairo" {
		t.Fatalf("expected one run for Cairo, got %v", runner.cities)
	}
}

func TestRunForecastSkipsWhenBusy(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: services.ErrRunInProgress}
	s := NewScheduler(runner, "Cairo", "@hourly", time.Second, zap.NewNop())

	s.runForecast()

	status := s.GetStatus()
	if status["skipped"] != 1 {
		t.Fatalf("expected skipped run, got %v", status["skipped"])
	}
	if !status["last_run"].(time.Time).IsZero() {
		t.Fatalf("skipped run must not update last_run")
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&fakeRunner{}, "Cairo", "every now and then", time.Second, zap.NewNop())
	if err := s.Start(); err == nil {
		t.Fatalf("expected invalid spec error")
	}
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&fakeRunner{}, "Cairo", "0 6 * * *", time.Second, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status := s.GetStatus()
	if status["running"] != true {
		t.Fatalf("expected running scheduler")
	}
	if next, ok := status["next_run"].(time.Time); !ok || next.IsZero() {
		t.Fatalf("expected next run, got %v", status["next_run"])
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	if s.GetStatus()["running"] != false {
		t.Fatalf("expected stopped scheduler")
	}
}

func TestForceRunRunsInBackground(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{state: services.StateDone, ran: make(chan struct{})}
	s := NewScheduler(runner, "Cairo", "", time.Second, zap.NewNop())

	s.ForceRun()

	select {
	case <-runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("forced run did not happen")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.cities) != 1 || runner.cities[0] != "Cairo" {
		t.Fatalf("expected one run for Cairo, got %v", runner.cities)
	}
}
