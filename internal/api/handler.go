package api

import (
	"context"
	"errors"
	"time"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
	"github.com/bobby-s-dev/weather-forecaster/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ForecastRunner interface {
	Run(ctx context.Context, city string) (*services.RunReport, error)
	GetLastRunTime() time.Time
	GetStats() map[string]interface{}
}

// RunScheduler triggers background runs and reports the schedule.
type RunScheduler interface {
	GetStatus() map[string]interface{}
	ForceRun()
}

type Handler struct {
	forecaster  ForecastRunner
	runs        *services.RunHistory
	scheduler   RunScheduler
	defaultCity string
	logger      *zap.Logger
}

// NewHandler wires the API to a forecaster. scheduler may be nil, which
// disables background runs.
func NewHandler(forecaster ForecastRunner, runs *services.RunHistory, scheduler RunScheduler, defaultCity string, logger *zap.Logger) *Handler {
	return &Handler{
		forecaster:  forecaster,
		runs:        runs,
		scheduler:   scheduler,
		defaultCity: defaultCity,
		logger:      logger,
	}
}

// GetForecast handles GET /api/v1/forecast
func (h *Handler) GetForecast(c *fiber.Ctx) error {
	city := c.Query("city", h.defaultCity)
	if city == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "City parameter is required",
		})
	}

	h.logger.Info("Running forecast", zap.String("city", city))

	report, err := h.forecaster.Run(c.Context(), city)
	if errors.Is(err, services.ErrRunInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A forecast run is already in progress",
		})
	}
	if err != nil {
		h.logger.Error("Forecast run failed",
			zap.String("city", city),
			zap.Error(err))

		return c.Status(statusFor(err)).JSON(fiber.Map{
			"error":   "Forecast run aborted",
			"details": err.Error(),
			"report":  report,
		})
	}

	return c.JSON(report)
}

// GetRuns handles GET /api/v1/runs
func (h *Handler) GetRuns(c *fiber.Ctx) error {
	if h.runs == nil {
		return c.JSON(fiber.Map{"runs": []services.RunReport{}})
	}
	return c.JSON(fiber.Map{
		"runs": h.runs.List(),
	})
}

// TriggerRun handles POST /api/v1/runs
func (h *Handler) TriggerRun(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Background runs are not available",
		})
	}

	h.scheduler.ForceRun()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "accepted",
	})
}

// GetRun handles GET /api/v1/runs/:id
func (h *Handler) GetRun(c *fiber.Ctx) error {
	id := c.Params("id")
	if h.runs != nil {
		if report, ok := h.runs.Get(id); ok {
			return c.JSON(report)
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Run not found",
		"id":    id,
	})
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"last_run":  h.forecaster.GetLastRunTime(),
		"uptime":    time.Since(startTime).String(),
	})
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	metrics := fiber.Map{
		"forecaster": h.forecaster.GetStats(),
	}
	if h.scheduler != nil {
		metrics["scheduler"] = h.scheduler.GetStatus()
	}

	return c.JSON(fiber.Map{
		"metrics":   metrics,
		"timestamp": time.Now(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrFetch):
		return fiber.StatusBadGateway
	case errors.Is(err, models.ErrData), errors.Is(err, models.ErrModel):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

var startTime = time.Now()
