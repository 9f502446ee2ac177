package ml

import (
	"errors"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
)

// DefaultHorizon is the number of future steps projected per series.
const DefaultHorizon = 5

// Stepper predicts the next value of a series from the current one.
type Stepper interface {
	Predict(value float64) (float64, error)
}

// Project walks the model forward horizon steps from seed, feeding each
// prediction back in as the next input. The seed is not part of the output.
//
// Steps are never re-grounded on observed data, so error compounds along the
// path. Any failure part-way through discards the whole path.
func Project(model Stepper, seed float64, horizon int) ([]float64, error) {
	if model == nil {
		return []float64{}, models.NewModelError("project", "no trained model")
	}
	if horizon <= 0 {
		return []float64{}, models.NewModelError("project", "horizon must be positive, got %d", horizon)
	}

	path := make([]float64, 0, horizon)
	current := seed
	for step := 0; step < horizon; step++ {
		next, err := model.Predict(current)
		if err != nil {
			var modelErr *models.ModelError
			if errors.As(err, &modelErr) {
				return []float64{}, err
			}
			return []float64{}, &models.ModelError{Stage: "project", Err: err}
		}
		if !finite(next) {
			return []float64{}, models.NewModelError("project", "step %d produced %v", step+1, next)
		}
		path = append(path, next)
		current = next
	}
	return path, nil
}
