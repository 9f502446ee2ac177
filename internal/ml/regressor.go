package ml

import (
	"math"
	"math/rand"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
)

const stageTrainRegressor = "train regressor"

// RegressorConfig controls a one-step transition forest.
type RegressorConfig struct {
	Trees int
	Seed  int64
}

func DefaultRegressorConfig() RegressorConfig {
	return RegressorConfig{Trees: 100, Seed: 42}
}

// Regressor maps the value of a series on day i to its value on day i+1.
type Regressor struct {
	trees []*node
}

// TrainRegressor fits on every lag pair; there is no holdout.
func TrainRegressor(x, y []float64, cfg RegressorConfig) (*Regressor, error) {
	if len(x) == 0 {
		return nil, models.NewModelError(stageTrainRegressor, "no lag pairs")
	}
	if len(x) != len(y) {
		return nil, models.NewModelError(stageTrainRegressor, "%d inputs but %d targets", len(x), len(y))
	}
	if cfg.Trees <= 0 {
		return nil, models.NewModelError(stageTrainRegressor, "tree count must be positive, got %d", cfg.Trees)
	}

	rows := make([][]float64, len(x))
	for i := range x {
		if !finite(x[i]) || !finite(y[i]) {
			return nil, models.NewModelError(stageTrainRegressor, "pair %d is not finite", i)
		}
		rows[i] = []float64{x[i]}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	builder := &treeBuilder{
		x:               rows,
		split:           newVarianceSplitter(y),
		maxFeatures:     1,
		minSamplesSplit: 2,
		rng:             rng,
	}

	model := &Regressor{trees: make([]*node, cfg.Trees)}
	for t := range model.trees {
		model.trees[t] = builder.build(bootstrap(rng, len(rows)))
	}
	return model, nil
}

// Predict averages the tree outputs for a single input value.
func (r *Regressor) Predict(value float64) (float64, error) {
	if r == nil || len(r.trees) == 0 {
		return 0, models.NewModelError("project", "regressor has not been trained")
	}
	if !finite(value) {
		return 0, models.NewModelError("project", "input %v is not finite", value)
	}

	in := []float64{value}
	var sum float64
	for _, tree := range r.trees {
		sum += tree.predict(in)[0]
	}
	return sum / float64(len(r.trees)), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
