package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "FORECASTER_CONFIG"

type Config struct {
	Server struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		LogLevel     string        `yaml:"logLevel"`
	} `yaml:"server"`

	WeatherAPI struct {
		OpenWeatherAPIKey string        `yaml:"openWeatherApiKey"`
		OpenWeatherURL    string        `yaml:"openWeatherUrl"`
		Timeout           time.Duration `yaml:"timeout"`
		RateLimit         float64       `yaml:"rateLimit"`
		RateBurst         int           `yaml:"rateBurst"`
	} `yaml:"weatherApi"`

	History struct {
		Source string `yaml:"source"`
	} `yaml:"history"`

	Model struct {
		Seed         int64   `yaml:"seed"`
		Trees        int     `yaml:"trees"`
		TestFraction float64 `yaml:"testFraction"`
	} `yaml:"model"`

	Forecast struct {
		Horizon     int    `yaml:"horizon"`
		Timezone    string `yaml:"timezone"`
		DefaultCity string `yaml:"defaultCity"`
	} `yaml:"forecast"`

	Publisher struct {
		TelegramBotToken string `yaml:"telegramBotToken"`
		TelegramChatID   string `yaml:"telegramChatId"`
		TelegramURL      string `yaml:"telegramUrl"`
	} `yaml:"publisher"`

	Scheduler struct {
		Cron string `yaml:"cron"`
	} `yaml:"scheduler"`

	RunHistory struct {
		Retention time.Duration `yaml:"retention"`
		MaxSize   int           `yaml:"maxSize"`
	} `yaml:"runHistory"`

	CircuitBreaker struct {
		Threshold int           `yaml:"threshold"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"circuitBreaker"`

	Retry struct {
		MaxRetries int           `yaml:"maxRetries"`
		Delay      time.Duration `yaml:"delay"`
		Multiplier float64       `yaml:"multiplier"`
	} `yaml:"retry"`

	location *time.Location
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in settings.
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 60 * time.Second
	cfg.Server.LogLevel = "info"

	cfg.WeatherAPI.OpenWeatherURL = "https://api.openweathermap.org/data/2.5"
	cfg.WeatherAPI.Timeout = 10 * time.Second
	cfg.WeatherAPI.RateLimit = 1
	cfg.WeatherAPI.RateBurst = 5

	cfg.History.Source = "weather.csv"

	cfg.Model.Seed = 42
	cfg.Model.Trees = 100
	cfg.Model.TestFraction = 0.2

	cfg.Forecast.Horizon = 5
	cfg.Forecast.Timezone = "Africa/Cairo"
	cfg.Forecast.DefaultCity = "Cairo"

	cfg.Publisher.TelegramURL = "https://api.telegram.org"

	cfg.RunHistory.Retention = 24 * time.Hour
	cfg.RunHistory.MaxSize = 100

	cfg.CircuitBreaker.Threshold = 3
	cfg.CircuitBreaker.Timeout = 30 * time.Second

	cfg.Retry.MaxRetries = 3
	cfg.Retry.Delay = time.Second
	cfg.Retry.Multiplier = 2

	return cfg
}

func (c *Config) applyEnv() {
	// Server configuration
	c.Server.Port = getEnv("FIBER_PORT", c.Server.Port)
	c.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", c.Server.ReadTimeout.String()))
	c.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", c.Server.WriteTimeout.String()))
	c.Server.LogLevel = getEnv("LOG_LEVEL", c.Server.LogLevel)

	// Weather API configuration
	c.WeatherAPI.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", c.WeatherAPI.OpenWeatherAPIKey)
	c.WeatherAPI.OpenWeatherURL = getEnv("OPENWEATHER_URL", c.WeatherAPI.OpenWeatherURL)
	c.WeatherAPI.Timeout = parseDuration(getEnv("OPENWEATHER_TIMEOUT", c.WeatherAPI.Timeout.String()))
	c.WeatherAPI.RateLimit = parseFloat(getEnv("OPENWEATHER_RATE_LIMIT", formatFloat(c.WeatherAPI.RateLimit)))
	c.WeatherAPI.RateBurst = parseInt(getEnv("OPENWEATHER_RATE_BURST", strconv.Itoa(c.WeatherAPI.RateBurst)))

	c.History.Source = getEnv("HISTORY_SOURCE", c.History.Source)

	// Model configuration
	c.Model.Seed = int64(parseInt(getEnv("MODEL_SEED", strconv.FormatInt(c.Model.Seed, 10))))
	c.Model.Trees = parseInt(getEnv("MODEL_TREES", strconv.Itoa(c.Model.Trees)))
	c.Model.TestFraction = parseFloat(getEnv("MODEL_TEST_FRACTION", formatFloat(c.Model.TestFraction)))

	// Forecast configuration
	c.Forecast.Horizon = parseInt(getEnv("FORECAST_HORIZON", strconv.Itoa(c.Forecast.Horizon)))
	c.Forecast.Timezone = getEnv("FORECAST_TIMEZONE", c.Forecast.Timezone)
	c.Forecast.DefaultCity = getEnv("FORECAST_CITY", c.Forecast.DefaultCity)

	// Publisher configuration
	c.Publisher.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.Publisher.TelegramBotToken)
	c.Publisher.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", c.Publisher.TelegramChatID)
	c.Publisher.TelegramURL = getEnv("TELEGRAM_URL", c.Publisher.TelegramURL)

	c.Scheduler.Cron = getEnv("FORECAST_CRON", c.Scheduler.Cron)

	c.RunHistory.Retention = parseDuration(getEnv("RUN_HISTORY_RETENTION", c.RunHistory.Retention.String()))
	c.RunHistory.MaxSize = parseInt(getEnv("RUN_HISTORY_MAX_SIZE", strconv.Itoa(c.RunHistory.MaxSize)))

	// Circuit breaker configuration
	c.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", strconv.Itoa(c.CircuitBreaker.Threshold)))
	c.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", c.CircuitBreaker.Timeout.String()))

	// Retry configuration
	c.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", strconv.Itoa(c.Retry.MaxRetries)))
	c.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", c.Retry.Delay.String()))
	c.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", formatFloat(c.Retry.Multiplier)))
}

// Validate rejects settings no run could succeed with and binds the timezone.
func (c *Config) Validate() error {
	if c.Forecast.Horizon <= 0 {
		return fmt.Errorf("forecast horizon must be positive, got %d", c.Forecast.Horizon)
	}
	if c.Model.Trees <= 0 {
		return fmt.Errorf("model trees must be positive, got %d", c.Model.Trees)
	}
	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		return fmt.Errorf("model test fraction must be in (0, 1), got %v", c.Model.TestFraction)
	}
	if c.History.Source == "" {
		return fmt.Errorf("history source is required")
	}

	loc, err := time.LoadLocation(c.Forecast.Timezone)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Forecast.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location is the timezone used to label future hours.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	if loc, err := time.LoadLocation(c.Forecast.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
