package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
)

// LabelFutureHours returns horizon "HH:00" labels starting at the first full
// hour after now, in loc.
func LabelFutureHours(now time.Time, horizon int, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	if horizon <= 0 {
		return []string{}
	}

	next := now.In(loc).Add(time.Hour)
	start := time.Date(next.Year(), next.Month(), next.Day(), next.Hour(), 0, 0, 0, loc)

	labels := make([]string, horizon)
	for i := range labels {
		labels[i] = fmt.Sprintf("%02d:00", start.Add(time.Duration(i)*time.Hour).Hour())
	}
	return labels
}

// RenderMessage formats a result for the publisher. Temperature lines are
// paired with timestamps; a missing temperature path yields no lines.
func RenderMessage(result *models.ForecastResult) string {
	obs := result.Observation

	var b strings.Builder
	fmt.Fprintf(&b, "City: %s, %s\n", obs.City, obs.Country)
	fmt.Fprintf(&b, "Current Temperature: %s°C\n", number(obs.CurrentTemp))
	fmt.Fprintf(&b, "Feels Like: %s°C\n", number(obs.FeelsLike))
	fmt.Fprintf(&b, "Min Temperature: %s°C\n", number(obs.TempMin))
	fmt.Fprintf(&b, "Max Temperature: %s°C\n", number(obs.TempMax))
	fmt.Fprintf(&b, "Humidity: %s%%\n", number(obs.Humidity))
	fmt.Fprintf(&b, "Weather Prediction: %s\n", obs.Description)
	fmt.Fprintf(&b, "Rain Prediction: %s\n\n", yesNo(result.RainPrediction))
	b.WriteString("Future Temperature Predictions:\n")

	for i, temp := range result.TemperaturePath {
		if i >= len(result.FutureTimestamps) {
			break
		}
		fmt.Fprintf(&b, "%s: %.1f°C\n", result.FutureTimestamps[i], temp)
	}

	return b.String()
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
