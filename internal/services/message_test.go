package services

import (
	"strings"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
)

func TestLabelFutureHours(t *testing.T) {
	cairo := time.FixedZone("EET", 2*60*60)

	tests := []struct {
		name    string
		now     time.Time
		horizon int
		loc     *time.Location
		want    string
	}{
		{"mid hour", time.Date(2024, 1, 10, 10, 30, 0, 0, time.UTC), 5, time.UTC, "11:00,12:00,13:00,14:00,15:00"},
		{"on the hour", time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), 2, time.UTC, "11:00,12:00"},
		{"timezone shift", time.Date(2024, 1, 10, 21, 45, 0, 0, time.UTC), 3, cairo, "00:00,01:00,02:00"},
		{"nil location", time.Date(2024, 1, 10, 7, 5, 0, 0, time.UTC), 1, nil, "08:00"},
	}

	for _, tt := range tests {
		got := strings.Join(LabelFutureHours(tt.now, tt.horizon, tt.loc), ",")
		if got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}

	if got := LabelFutureHours(time.Now(), 0, time.UTC); len(got) != 0 {
		t.Fatalf("expected no labels for zero horizon, got %v", got)
	}
}

func TestRenderMessage(t *testing.T) {
	result := &models.ForecastResult{
		Observation: models.Observation{
			City:        "Cairo",
			Country:     "EG",
			CurrentTemp: 24,
			FeelsLike:   23,
			TempMin:     21,
			TempMax:     27,
			Humidity:    40,
			Description: "clear sky",
		},
		RainPrediction:   false,
		TemperaturePath:  []float64{21.28, 22},
		HumidityPath:     []float64{41, 42},
		FutureTimestamps: []string{"11:00", "12:00"},
	}

	want := "City: Cairo, EG\n" +
		"Current Temperature: 24°C\n" +
		"Feels Like: 23°C\n" +
		"Min Temperature: 21°C\n" +
		"Max Temperature: 27°C\n" +
		"Humidity: 40%\n" +
		"Weather Prediction: clear sky\n" +
		"Rain Prediction: No\n\n" +
		"Future Temperature Predictions:\n" +
		"11:00: 21.3°C\n" +
		"12:00: 22.0°C\n"

	if got := RenderMessage(result); got != want {
		t.Fatalf("unexpected message:\n%q\nwant:\n%q", got, want)
	}

	result.TemperaturePath = []float64{}
	result.RainPrediction = true
	got := RenderMessage(result)
	if !strings.HasSuffix(got, "Rain Prediction: Yes\n\nFuture Temperature Predictions:\n") {
		t.Fatalf("expected no temperature lines:\n%s", got)
	}
}
