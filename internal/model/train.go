package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// ForestParams controls random forest fitting.
type ForestParams struct {
	Trees           int
	MaxDepth        int
	MinLeaf         int
	FeatureFraction float64
	Seed            int64
}

func (p *ForestParams) defaults() {
	if p.Trees <= 0 {
		p.Trees = 50
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = 8
	}
	if p.MinLeaf <= 0 {
		p.MinLeaf = 2
	}
	if p.FeatureFraction <= 0 || p.FeatureFraction > 1 {
		p.FeatureFraction = 1
	}
}

// FitForest fits bagged regression trees. The same inputs and seed always
// produce the same trees.
func FitForest(x [][]float64, y []float64, p ForestParams) ([]Tree, error) {
	if len(x) == 0 || len(y) == 0 {
		return nil, errors.New("features or targets empty")
	}
	if len(x) != len(y) {
		return nil, errors.New("features and targets size mismatch")
	}
	width := len(x[0])
	if width == 0 {
		return nil, errors.New("feature rows are empty")
	}
	for _, row := range x {
		if len(row) != width {
			return nil, errors.New("feature rows have inconsistent width")
		}
	}
	p.defaults()

	rng := rand.New(rand.NewSource(p.Seed))
	perSplit := int(math.Ceil(p.FeatureFraction * float64(width)))

	trees := make([]Tree, 0, p.Trees)
	for t := 0; t < p.Trees; t++ {
		sample := make([]int, len(x))
		if p.Trees == 1 {
			for i := range sample {
				sample[i] = i
			}
		} else {
			for i := range sample {
				sample[i] = rng.Intn(len(x))
			}
		}
		b := &treeBuilder{x: x, y: y, params: p, perSplit: perSplit, width: width, rng: rng}
		b.grow(sample, 0)
		trees = append(trees, Tree{Nodes: b.nodes})
	}
	return trees, nil
}

type treeBuilder struct {
	x        [][]float64
	y        []float64
	params   ForestParams
	perSplit int
	width    int
	rng      *rand.Rand
	nodes    []Node
}

// grow appends the subtree for rows in preorder and returns its root index.
func (b *treeBuilder) grow(rows []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Left: -1, Right: -1, Value: b.mean(rows)})

	if depth >= b.params.MaxDepth || len(rows) < 2*b.params.MinLeaf {
		return idx
	}

	feature, threshold, ok := b.bestSplit(rows)
	if !ok {
		return idx
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if b.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: b.nodes[idx].Value}
	return idx
}

func (b *treeBuilder) mean(rows []int) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += b.y[r]
	}
	return sum / float64(len(rows))
}

// bestSplit minimizes the summed squared error of both children over a
// random subset of features.
func (b *treeBuilder) bestSplit(rows []int) (int, float64, bool) {
	candidates := b.rng.Perm(b.width)[:b.perSplit]
	sort.Ints(candidates)

	var total, totalSq float64
	for _, r := range rows {
		total += b.y[r]
		totalSq += b.y[r] * b.y[r]
	}
	n := float64(len(rows))
	parentSSE := totalSq - total*total/n

	bestFeature := -1
	bestThreshold := 0.0
	bestSSE := parentSSE
	minLeaf := b.params.MinLeaf

	sorted := make([]int, len(rows))
	for _, f := range candidates {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		var leftSum, leftSq float64
		for i := 0; i < len(sorted)-1; i++ {
			v := b.y[sorted[i]]
			leftSum += v
			leftSq += v * v

			nl := float64(i + 1)
			if i+1 < minLeaf || len(sorted)-(i+1) < minLeaf {
				continue
			}
			cur, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if cur == next {
				continue
			}
			nr := n - nl
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

// Evaluate scores predictions against targets.
func Evaluate(predict func([]float64) (float64, error), x [][]float64, y []float64) (Evaluation, error) {
	if len(x) == 0 {
		return Evaluation{}, errors.New("no rows to evaluate")
	}
	var absSum, sqSum, mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var totSq float64
	for i, row := range x {
		p, err := predict(row)
		if err != nil {
			return Evaluation{}, err
		}
		d := p - y[i]
		absSum += math.Abs(d)
		sqSum += d * d
		totSq += (y[i] - mean) * (y[i] - mean)
	}

	n := float64(len(x))
	ev := Evaluation{
		TestRows: len(x),
		MAE:      absSum / n,
		RMSE:     math.Sqrt(sqSum / n),
	}
	if totSq > 0 {
		ev.R2 = 1 - sqSum/totSq
	}
	return ev, nil
}
