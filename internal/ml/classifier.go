package ml

import (
	"math"
	"math/rand"
	"sort"

	"github.com/bobby-s-dev/weather-forecaster/internal/dataset"
	"github.com/bobby-s-dev/weather-forecaster/internal/models"
)

const stageTrainClassifier = "train classifier"

// ClassifierConfig controls the rain-tomorrow random forest.
type ClassifierConfig struct {
	Trees        int
	Seed         int64
	TestFraction float64
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{Trees: 100, Seed: 42, TestFraction: 0.2}
}

// RainClassifier is a random forest over dataset.FeatureVector inputs. It is
// fitted on the training share of a seeded shuffle; the remaining rows are
// only scored.
type RainClassifier struct {
	trees        []*node
	classes      []int
	holdoutSize  int
	holdoutScore float64
}

// TrainClassifier fits a forest on features/labels. The same seed and inputs
// always produce the same model.
func TrainClassifier(features []dataset.FeatureVector, labels []int, cfg ClassifierConfig) (*RainClassifier, error) {
	if len(features) == 0 {
		return nil, models.NewModelError(stageTrainClassifier, "no training rows")
	}
	if len(features) != len(labels) {
		return nil, models.NewModelError(stageTrainClassifier, "%d feature rows but %d labels", len(features), len(labels))
	}
	if cfg.Trees <= 0 {
		return nil, models.NewModelError(stageTrainClassifier, "tree count must be positive, got %d", cfg.Trees)
	}
	if cfg.TestFraction < 0 || cfg.TestFraction >= 1 {
		return nil, models.NewModelError(stageTrainClassifier, "test fraction must be in [0, 1), got %v", cfg.TestFraction)
	}
	for i, fv := range features {
		for _, v := range fv {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, models.NewModelError(stageTrainClassifier, "row %d has a non-finite feature", i)
			}
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	train, test := trainTestSplit(rng, len(features), cfg.TestFraction)
	if len(train) == 0 {
		return nil, models.NewModelError(stageTrainClassifier, "training split is empty for %d rows", len(features))
	}

	classes := distinct(labels, train)
	if len(classes) < 2 {
		return nil, models.NewModelError(stageTrainClassifier, "training split holds a single class")
	}
	classIndex := make(map[int]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	x := make([][]float64, len(train))
	y := make([]int, len(train))
	for i, row := range train {
		x[i] = features[row][:]
		y[i] = classIndex[labels[row]]
	}

	builder := &treeBuilder{
		x:               x,
		split:           newGiniSplitter(y, len(classes)),
		maxFeatures:     int(math.Max(1, math.Floor(math.Sqrt(float64(dataset.FeatureCount))))),
		minSamplesSplit: 2,
		rng:             rng,
	}

	model := &RainClassifier{classes: classes, trees: make([]*node, cfg.Trees)}
	for t := range model.trees {
		model.trees[t] = builder.build(bootstrap(rng, len(x)))
	}

	if len(test) > 0 {
		correct := 0
		for _, row := range test {
			if model.predict(features[row]) == labels[row] {
				correct++
			}
		}
		model.holdoutSize = len(test)
		model.holdoutScore = float64(correct) / float64(len(test))
	}

	return model, nil
}

// Predict returns the label with the highest averaged class probability.
func (c *RainClassifier) Predict(fv dataset.FeatureVector) (int, error) {
	if c == nil || len(c.trees) == 0 {
		return 0, models.NewModelError("classify", "classifier has not been trained")
	}
	return c.predict(fv), nil
}

func (c *RainClassifier) predict(fv dataset.FeatureVector) int {
	probs := make([]float64, len(c.classes))
	for _, tree := range c.trees {
		for k, p := range tree.predict(fv[:]) {
			probs[k] += p
		}
	}

	best := 0
	for k := 1; k < len(probs); k++ {
		if probs[k] > probs[best] {
			best = k
		}
	}
	return c.classes[best]
}

// HoldoutAccuracy reports accuracy on the rows left out of training, and how
// many rows that was.
func (c *RainClassifier) HoldoutAccuracy() (float64, int) {
	if c == nil {
		return 0, 0
	}
	return c.holdoutScore, c.holdoutSize
}

func (c *RainClassifier) Classes() []int {
	return append([]int(nil), c.classes...)
}

// trainTestSplit shuffles row indices and takes ceil(n*fraction) of them as
// the test share.
func trainTestSplit(rng *rand.Rand, n int, fraction float64) ([]int, []int) {
	perm := rng.Perm(n)
	nTest := int(math.Ceil(fraction * float64(n)))
	return perm[nTest:], perm[:nTest]
}

func distinct(labels []int, rows []int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, row := range rows {
		if _, ok := seen[labels[row]]; ok {
			continue
		}
		seen[labels[row]] = struct{}{}
		out = append(out, labels[row])
	}
	sort.Ints(out)
	return out
}
