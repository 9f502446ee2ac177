package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-forecaster/internal/api"
	"github.com/bobby-s-dev/weather-forecaster/internal/scheduler"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and scheduled forecasts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			printError("%v", err)
			return err
		}
		defer logger.Sync()

		logger.Info("Starting weather forecaster service")

		forecaster, runs, err := buildForecaster(cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize forecaster", zap.Error(err))
			return err
		}
		defer runs.Stop()

		forecastScheduler := scheduler.NewScheduler(
			forecaster,
			cfg.Forecast.DefaultCity,
			cfg.Scheduler.Cron,
			2*time.Minute,
			logger,
		)
		if cfg.Scheduler.Cron != "" {
			if err := forecastScheduler.Start(); err != nil {
				logger.Error("Failed to start scheduler", zap.Error(err))
				return err
			}
		}

		app := fiber.New(fiber.Config{
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			ErrorHandler: api.ErrorHandler,
		})

		handler := api.NewHandler(forecaster, runs, forecastScheduler, cfg.Forecast.DefaultCity, logger)
		api.SetupRoutes(app, handler, logger)

		go func() {
			addr := ":" + cfg.Server.Port
			logger.Info("Starting server", zap.String("address", addr))

			if err := app.Listen(addr); err != nil {
				logger.Fatal("Failed to start server", zap.Error(err))
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		forecastScheduler.Stop(ctx)

		if err := app.ShutdownWithContext(ctx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}

		logger.Info("Server stopped")
		return nil
	},
}
