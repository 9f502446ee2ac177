package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
	"github.com/bobby-s-dev/weather-forecaster/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type fakeForecaster struct {
	report *services.RunReport
	err    error
	cities []string
}

func (f *fakeForecaster) Run(ctx context.Context, city string) (*services.RunReport, error) {
	f.cities = append(f.cities, city)
	return f.report, f.err
}

func (f *fakeForecaster) GetLastRunTime() time.Time { return time.Time{} }

func (f *fakeForecaster) GetStats() map[string]interface{} {
	return map[string]interface{}{"succeeded_runs": 1}
}

func newTestApp(t *testing.T, f *fakeForecaster, runs *services.RunHistory) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, NewHandler(f, runs, nil, "Cairo", zap.NewNop()), zap.NewNop())
	return app
}

func doRequest(t *testing.T, app *fiber.App, target string) (int, map[string]interface{}) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("request %s: %v", target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := map[string]interface{}{}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return resp.StatusCode, body
}

func TestGetForecast(t *testing.T) {
	t.Parallel()

	f := &fakeForecaster{report: &services.RunReport{
		ID:    "run-1",
		City:  "Alexandria",
		State: services.StateDone,
		Result: &models.ForecastResult{
			RainPrediction:   true,
			TemperaturePath:  []float64{21, 22},
			HumidityPath:     []float64{},
			FutureTimestamps: []string{"11:00", "12:00"},
		},
	}}
	app := newTestApp(t, f, nil)

	status, body := doRequest(t, app, "/api/v1/forecast?city=Alexandria")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["state"] != "DONE" {
		t.Fatalf("unexpected body %v", body)
	}
	result := body["result"].(map[string]interface{})
	if result["rain_prediction"] != true {
		t.Fatalf("unexpected result %v", result)
	}
	if f.cities[0] != "Alexandria" {
		t.Fatalf("expected city from query, got %v", f.cities)
	}

	doRequest(t, app, "/api/v1/forecast")
	if f.cities[1] != "Cairo" {
		t.Fatalf("expected default city, got %v", f.cities)
	}
}

func TestGetForecastErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"fetch", fmt.Errorf("forecast aborted during FETCHING: %w", models.NewFetchError("observation", "timeout")), http.StatusBadGateway},
		{"model", fmt.Errorf("forecast aborted during TRAINING_CLASSIFIER: %w", models.NewModelError("train classifier", "one class")), http.StatusUnprocessableEntity},
		{"busy", services.ErrRunInProgress, http.StatusConflict},
	}

	for _, tt := range tests {
		f := &fakeForecaster{err: tt.err, report: &services.RunReport{State: services.StateAborted}}
		if tt.err == services.ErrRunInProgress {
			f.report = nil
		}
		app := newTestApp(t, f, nil)

		status, body := doRequest(t, app, "/api/v1/forecast?city=Cairo")
		if status != tt.status {
			t.Fatalf("%s: expected %d, got %d: %v", tt.name, tt.status, status, body)
		}
	}
}

func TestRunsEndpoints(t *testing.T) {
	t.Parallel()

	runs := services.NewRunHistory(time.Hour, 10, zap.NewNop())
	defer runs.Stop()
	runs.Add(services.RunReport{ID: "abc", City: "Cairo", State: services.StateDone, StartedAt: time.Now()})

	app := newTestApp(t, &fakeForecaster{}, runs)

	status, body := doRequest(t, app, "/api/v1/runs")
	if status != http.StatusOK || len(body["runs"].([]interface{})) != 1 {
		t.Fatalf("unexpected runs response %d: %v", status, body)
	}

	status, body = doRequest(t, app, "/api/v1/runs/abc")
	if status != http.StatusOK || body["id"] != "abc" {
		t.Fatalf("unexpected run response %d: %v", status, body)
	}

	status, _ = doRequest(t, app, "/api/v1/runs/missing")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestHealthMetricsAndUnknownRoute(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &fakeForecaster{}, nil)

	status, body := doRequest(t, app, "/api/v1/health")
	if status != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("unexpected health %d: %v", status, body)
	}

	status, body = doRequest(t, app, "/api/v1/metrics")
	if status != http.StatusOK {
		t.Fatalf("unexpected metrics status %d", status)
	}
	metrics := body["metrics"].(map[string]interface{})
	if _, ok := metrics["forecaster"]; !ok {
		t.Fatalf("missing forecaster metrics: %v", metrics)
	}

	status, _ = doRequest(t, app, "/nope")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

type fakeScheduler struct {
	forced int
}

func (s *fakeScheduler) GetStatus() map[string]interface{} {
	return map[string]interface{}{"running": true}
}

func (s *fakeScheduler) ForceRun() { s.forced++ }

func TestTriggerRun(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, NewHandler(&fakeForecaster{}, nil, sched, "Cairo", zap.NewNop()), zap.NewNop())

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if sched.forced != 1 {
		t.Fatalf("expected one forced run, got %d", sched.forced)
	}

	status, body := doRequest(t, app, "/api/v1/metrics")
	metrics := body["metrics"].(map[string]interface{})
	if status != http.StatusOK || metrics["scheduler"] == nil {
		t.Fatalf("expected scheduler status in metrics: %v", body)
	}

	unscheduled := newTestApp(t, &fakeForecaster{}, nil)
	resp, err = unscheduled.Test(httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a scheduler, got %d", resp.StatusCode)
	}
}
