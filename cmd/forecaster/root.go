package main

import (
	"fmt"

	"github.com/bobby-s-dev/weather-forecaster/internal/config"
	"github.com/bobby-s-dev/weather-forecaster/internal/dataset"
	"github.com/bobby-s-dev/weather-forecaster/internal/services"
	"github.com/bobby-s-dev/weather-forecaster/pkg/client"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "forecaster",
	Short:   "Rain and temperature forecaster",
	Version: version,
	Long: `Trains fresh models on historical weather data for every run, predicts whether
it rains tomorrow, projects temperature and humidity a few hours ahead from the
current observation, and publishes the result.`,
	Example: `  # One forecast for Cairo, printed and published
  $ forecaster run --city Cairo

  # HTTP API plus the FORECAST_CRON schedule
  $ forecaster serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setup loads configuration and installs the global logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func buildForecaster(cfg *config.Config, logger *zap.Logger) (*services.Forecaster, *services.RunHistory, error) {
	if cfg.WeatherAPI.OpenWeatherAPIKey == "" {
		return nil, nil, fmt.Errorf("OPENWEATHER_API_KEY is required")
	}

	clientConfig := client.ClientConfig{
		Timeout:        cfg.WeatherAPI.Timeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
		RateLimit:      cfg.WeatherAPI.RateLimit,
		RateBurst:      cfg.WeatherAPI.RateBurst,
	}

	observations := client.NewOpenWeatherClient(
		cfg.WeatherAPI.OpenWeatherAPIKey,
		cfg.WeatherAPI.OpenWeatherURL,
		clientConfig,
		logger,
	)

	history, err := dataset.OpenSource(cfg.History.Source)
	if err != nil {
		return nil, nil, err
	}

	deps := services.Deps{
		Observations: observations,
		History:      history,
	}

	if cfg.Publisher.TelegramBotToken != "" && cfg.Publisher.TelegramChatID != "" {
		publisherConfig := clientConfig
		publisherConfig.RateLimit = 0
		deps.Publisher = client.NewTelegramPublisher(
			cfg.Publisher.TelegramBotToken,
			cfg.Publisher.TelegramChatID,
			cfg.Publisher.TelegramURL,
			publisherConfig,
			logger,
		)
		logger.Info("Telegram publisher initialized")
	} else {
		logger.Info("No chat credentials, forecasts are published to the log")
	}

	runs := services.NewRunHistory(cfg.RunHistory.Retention, cfg.RunHistory.MaxSize, logger)
	deps.Runs = runs

	forecaster, err := services.NewForecaster(cfg, deps, logger)
	if err != nil {
		runs.Stop()
		return nil, nil, err
	}
	return forecaster, runs, nil
}
