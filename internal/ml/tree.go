package ml

import (
	"math"
	"math/rand"
	"sort"
)

// node is a CART decision tree node. Leaves carry value: class probabilities
// for classification trees, a single mean for regression trees.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     []float64
}

func (n *node) predict(x []float64) []float64 {
	cur := n
	for cur.left != nil {
		if x[cur.feature] <= cur.threshold {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	return cur.value
}

// splitter tracks the impurity of a two-way partition while samples are moved
// from the right side to the left one in feature order.
type splitter interface {
	reset(idx []int)
	move(i int)
	score() float64
	pure(idx []int) bool
	leafValue(idx []int) []float64
}

type treeBuilder struct {
	x               [][]float64
	split           splitter
	maxFeatures     int
	minSamplesSplit int
	rng             *rand.Rand
}

func (b *treeBuilder) build(idx []int) *node {
	if len(idx) < b.minSamplesSplit || b.split.pure(idx) {
		return &node{value: b.split.leafValue(idx)}
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return &node{value: b.split.leafValue(idx)}
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.build(left),
		right:     b.build(right),
	}
}

// bestSplit inspects features in random order. It looks at maxFeatures of
// them, and keeps going past that only while no valid split has been found.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	var (
		bestFeature   int
		bestThreshold float64
		bestScore     = math.Inf(1)
		found         bool
	)

	sorted := make([]int, len(idx))
	for visited, f := range b.rng.Perm(len(b.x[0])) {
		if visited >= b.maxFeatures && found {
			break
		}

		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.x[sorted[a]][f] < b.x[sorted[c]][f]
		})

		b.split.reset(sorted)
		for k := 0; k < len(sorted)-1; k++ {
			b.split.move(sorted[k])

			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}

			if s := b.split.score(); s < bestScore {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				bestScore, bestFeature, bestThreshold, found = s, f, threshold, true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

// giniSplitter scores classification partitions by weighted Gini impurity.
type giniSplitter struct {
	y           []int
	classes     int
	left, right []float64
	nl, nr      float64
}

func newGiniSplitter(y []int, classes int) *giniSplitter {
	return &giniSplitter{
		y:       y,
		classes: classes,
		left:    make([]float64, classes),
		right:   make([]float64, classes),
	}
}

func (g *giniSplitter) reset(idx []int) {
	for c := range g.left {
		g.left[c], g.right[c] = 0, 0
	}
	for _, i := range idx {
		g.right[g.y[i]]++
	}
	g.nl, g.nr = 0, float64(len(idx))
}

func (g *giniSplitter) move(i int) {
	g.left[g.y[i]]++
	g.right[g.y[i]]--
	g.nl++
	g.nr--
}

func (g *giniSplitter) score() float64 {
	return g.nl*gini(g.left, g.nl) + g.nr*gini(g.right, g.nr)
}

func (g *giniSplitter) pure(idx []int) bool {
	for _, i := range idx[1:] {
		if g.y[i] != g.y[idx[0]] {
			return false
		}
	}
	return true
}

func (g *giniSplitter) leafValue(idx []int) []float64 {
	probs := make([]float64, g.classes)
	for _, i := range idx {
		probs[g.y[i]]++
	}
	for c := range probs {
		probs[c] /= float64(len(idx))
	}
	return probs
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := c / n
		impurity -= p * p
	}
	return impurity
}

// varianceSplitter scores regression partitions by total squared error.
type varianceSplitter struct {
	y          []float64
	sumL, sumR float64
	sqL, sqR   float64
	nl, nr     float64
}

func newVarianceSplitter(y []float64) *varianceSplitter {
	return &varianceSplitter{y: y}
}

func (v *varianceSplitter) reset(idx []int) {
	v.sumL, v.sqL, v.nl = 0, 0, 0
	v.sumR, v.sqR = 0, 0
	for _, i := range idx {
		v.sumR += v.y[i]
		v.sqR += v.y[i] * v.y[i]
	}
	v.nr = float64(len(idx))
}

func (v *varianceSplitter) move(i int) {
	y := v.y[i]
	v.sumL += y
	v.sqL += y * y
	v.nl++
	v.sumR -= y
	v.sqR -= y * y
	v.nr--
}

func (v *varianceSplitter) score() float64 {
	return sse(v.sumL, v.sqL, v.nl) + sse(v.sumR, v.sqR, v.nr)
}

func (v *varianceSplitter) pure(idx []int) bool {
	for _, i := range idx[1:] {
		if v.y[i] != v.y[idx[0]] {
			return false
		}
	}
	return true
}

func (v *varianceSplitter) leafValue(idx []int) []float64 {
	var sum float64
	for _, i := range idx {
		sum += v.y[i]
	}
	return []float64{sum / float64(len(idx))}
}

func sse(sum, sq, n float64) float64 {
	if n == 0 {
		return 0
	}
	return sq - sum*sum/n
}

// bootstrap draws n indices with replacement.
func bootstrap(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}
