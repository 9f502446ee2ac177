package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
	"go.uber.org/zap"
)

const (
	openWeatherSource     = "openweathermap"
	defaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"
)

type OpenWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
	logger  *zap.Logger
}

// OpenWeatherCurrentResponse mirrors the /weather payload. Fields the
// forecaster depends on are pointers so a missing value can be told apart
// from zero.
type OpenWeatherCurrentResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		TempMin   *float64 `json:"temp_min"`
		TempMax   *float64 `json:"temp_max"`
		Pressure  *float64 `json:"pressure"`
		Humidity  *float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Name string `json:"name"`
	Cod  int    `json:"cod"`
}

func NewOpenWeatherClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = defaultOpenWeatherURL
	}
	return &OpenWeatherClient{
		BaseClient: NewBaseClient("openweather", config, logger),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// GetCurrentObservation fetches the current weather for city in metric units.
// Temperatures and humidity are rounded to whole numbers; pressure and wind
// are kept as reported.
func (c *OpenWeatherClient) GetCurrentObservation(ctx context.Context, city string) (*models.Observation, error) {
	if strings.TrimSpace(city) == "" {
		return nil, models.NewFetchError("observation", "city is required")
	}

	endpoint := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		c.baseURL, url.QueryEscape(city), url.QueryEscape(c.apiKey))

	data, err := c.GetWithRetry(ctx, endpoint)
	if err != nil {
		return nil, models.NewFetchError("observation", "failed to fetch current weather for %s: %w", city, err)
	}

	var response OpenWeatherCurrentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, models.NewFetchError("observation", "failed to parse response: %w", err)
	}

	if response.Cod != 0 && response.Cod != 200 {
		return nil, models.NewFetchError("observation", "API error: %d", response.Cod)
	}

	if missing := response.missingFields(); len(missing) > 0 {
		return nil, models.NewFetchError("observation", "response for %s is missing %s", city, strings.Join(missing, ", "))
	}

	timestamp := time.Now()
	if response.Dt > 0 {
		timestamp = time.Unix(response.Dt, 0)
	}

	obs := &models.Observation{
		City:                 response.Name,
		Country:              response.Sys.Country,
		CurrentTemp:          math.RoundToEven(*response.Main.Temp),
		FeelsLike:            math.RoundToEven(*response.Main.FeelsLike),
		TempMin:              math.RoundToEven(*response.Main.TempMin),
		TempMax:              math.RoundToEven(*response.Main.TempMax),
		Humidity:             math.RoundToEven(*response.Main.Humidity),
		Pressure:             *response.Main.Pressure,
		WindSpeed:            *response.Wind.Speed,
		WindDirectionDegrees: *response.Wind.Deg,
		Description:          response.Weather[0].Description,
		Timestamp:            timestamp,
		Source:               openWeatherSource,
	}

	c.logger.Debug("Current observation fetched",
		zap.String("city", obs.City),
		zap.String("country", obs.Country),
		zap.Float64("temp", obs.CurrentTemp))

	return obs, nil
}

func (r *OpenWeatherCurrentResponse) missingFields() []string {
	var missing []string
	check := func(name string, v *float64) {
		if v == nil {
			missing = append(missing, name)
		}
	}

	check("main.temp", r.Main.Temp)
	check("main.feels_like", r.Main.FeelsLike)
	check("main.temp_min", r.Main.TempMin)
	check("main.temp_max", r.Main.TempMax)
	check("main.humidity", r.Main.Humidity)
	check("main.pressure", r.Main.Pressure)
	check("wind.speed", r.Wind.Speed)
	check("wind.deg", r.Wind.Deg)

	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.Sys.Country == "" {
		missing = append(missing, "sys.country")
	}
	if len(r.Weather) == 0 {
		missing = append(missing, "weather")
	}
	return missing
}
