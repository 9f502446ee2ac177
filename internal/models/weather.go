package models

import (
	"time"
)

// Observation is the current weather for one city as reported by the provider.
type Observation struct {
	City                 string    `json:"city"`
	Country              string    `json:"country"`
	CurrentTemp          float64   `json:"current_temp"`
	FeelsLike            float64   `json:"feels_like"`
	TempMin              float64   `json:"temp_min"`
	TempMax              float64   `json:"temp_max"`
	Humidity             float64   `json:"humidity"`
	Pressure             float64   `json:"pressure"`
	WindSpeed            float64   `json:"wind_speed"`
	WindDirectionDegrees float64   `json:"wind_direction_degrees"`
	Description          string    `json:"description"`
	Timestamp            time.Time `json:"timestamp"`
	Source               string    `json:"source"`
}

// HistoricalRecord is one cleaned row of the historical weather table.
type HistoricalRecord struct {
	MinTemp       float64 `json:"min_temp"`
	MaxTemp       float64 `json:"max_temp"`
	WindGustDir   string  `json:"wind_gust_dir"`
	WindGustSpeed float64 `json:"wind_gust_speed"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	Temp          float64 `json:"temp"`
	RainTomorrow  string  `json:"rain_tomorrow"`
}

// ForecastResult is the composed output of one forecasting run.
type ForecastResult struct {
	Observation      Observation `json:"observation"`
	RainPrediction   bool        `json:"rain_prediction"`
	TemperaturePath  []float64   `json:"temperature_path"`
	HumidityPath     []float64   `json:"humidity_path"`
	FutureTimestamps []string    `json:"future_timestamps"`
}
