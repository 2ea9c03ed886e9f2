// Package gbt implements a small histogram-based gradient-boosted regression
// tree ensemble for squared-error loss.
//
// Split finding follows the second-order formulation: a node holding gradient
// sum G and hessian sum H is scored as G²/(H+λ), a split's gain is the score
// of its children minus the score of the parent, and leaf weights are
// -G/(H+λ) scaled by the learning rate. Candidate thresholds come from a
// per-feature quantile sketch of at most MaxBin bins.
package gbt

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

var ErrFeatureWidth = errors.New("feature width mismatch")

type Params struct {
	NumTrees       int
	LearningRate   float64
	MaxDepth       int
	Subsample      float64 // fraction of rows drawn per tree, without replacement
	ColSample      float64 // fraction of features drawn per tree
	Lambda         float64 // L2 penalty on leaf weights
	MinChildWeight float64 // minimum hessian sum per child
	MaxBin         int
	Seed           int64
}

func DefaultParams() Params {
	return Params{
		NumTrees:       100,
		LearningRate:   0.3,
		MaxDepth:       6,
		Subsample:      1,
		ColSample:      1,
		Lambda:         1,
		MinChildWeight: 1,
		MaxBin:         256,
		Seed:           0,
	}
}

func (p Params) validate() error {
	switch {
	case p.NumTrees < 1:
		return fmt.Errorf("gbt: num trees must be >= 1, got %d", p.NumTrees)
	case p.LearningRate <= 0:
		return fmt.Errorf("gbt: learning rate must be > 0, got %v", p.LearningRate)
	case p.MaxDepth < 1:
		return fmt.Errorf("gbt: max depth must be >= 1, got %d", p.MaxDepth)
	case p.Subsample <= 0 || p.Subsample > 1:
		return fmt.Errorf("gbt: subsample must be in (0, 1], got %v", p.Subsample)
	case p.ColSample <= 0 || p.ColSample > 1:
		return fmt.Errorf("gbt: colsample must be in (0, 1], got %v", p.ColSample)
	case p.Lambda < 0:
		return fmt.Errorf("gbt: lambda must be >= 0, got %v", p.Lambda)
	case p.MaxBin < 2 || p.MaxBin > math.MaxUint16:
		return fmt.Errorf("gbt: max bin must be in [2, %d], got %d", math.MaxUint16, p.MaxBin)
	}
	return nil
}

// Booster is a fitted ensemble. It is immutable and safe for concurrent use.
type Booster struct {
	base      float64
	nFeatures int
	trees     []tree
	gain      []float64
}

// Fit trains on x (one row per sample, all rows the same width) against y.
func Fit(x [][]float64, y []float64, p Params) (*Booster, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("%w: gbt: no training rows", models.ErrInsufficientHistory)
	}
	if len(y) != n {
		return nil, fmt.Errorf("%w: gbt: %d rows but %d targets", models.ErrDataIntegrity, n, len(y))
	}
	nf := len(x[0])
	if nf == 0 {
		return nil, fmt.Errorf("%w: gbt: rows have no features", models.ErrDataIntegrity)
	}
	for i, row := range x {
		if len(row) != nf {
			return nil, fmt.Errorf("%w: gbt: row %d has %d features, want %d", ErrFeatureWidth, i, len(row), nf)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: gbt: non-finite feature %d in row %d", models.ErrDataIntegrity, j, i)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, fmt.Errorf("%w: gbt: non-finite target in row %d", models.ErrDataIntegrity, i)
		}
	}

	b := &Booster{
		nFeatures: nf,
		gain:      make([]float64, nf),
		trees:     make([]tree, 0, p.NumTrees),
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	b.base = sum / float64(n)

	cuts := make([][]float64, nf)
	bins := make([][]uint16, nf)
	for j := 0; j < nf; j++ {
		cuts[j] = quantileCuts(x, j, p.MaxBin)
		bins[j] = binColumn(x, j, cuts[j])
	}

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = b.base
	}
	grad := make([]float64, n)

	rng := rand.New(rand.NewSource(p.Seed))
	nRows := max(1, int(p.Subsample*float64(n)))
	nCols := max(1, int(p.ColSample*float64(nf)))

	g := grower{params: p, cuts: cuts, bins: bins, grad: grad, gain: b.gain}
	for t := 0; t < p.NumTrees; t++ {
		for i := range grad {
			grad[i] = pred[i] - y[i]
		}

		rows := sampleIndices(rng, n, nRows)
		g.features = sampleIndices(rng, nf, nCols)

		tr := g.grow(rows)
		b.trees = append(b.trees, tr)

		for i := range pred {
			pred[i] += tr.predict(x[i])
		}
	}

	return b, nil
}

func (b *Booster) NumFeatures() int { return b.nFeatures }
func (b *Booster) NumTrees() int    { return len(b.trees) }
func (b *Booster) BaseScore() float64 {
	return b.base
}

func (b *Booster) Predict(row []float64) (float64, error) {
	if len(row) != b.nFeatures {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrFeatureWidth, len(row), b.nFeatures)
	}
	v := b.base
	for i := range b.trees {
		v += b.trees[i].predict(row)
	}
	return v, nil
}

func (b *Booster) PredictAll(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		v, err := b.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// FeatureImportances returns each feature's share of the total split gain.
// All zeros when no tree ever split.
func (b *Booster) FeatureImportances() []float64 {
	out := make([]float64, len(b.gain))
	var total float64
	for _, g := range b.gain {
		total += g
	}
	if total == 0 {
		return out
	}
	for i, g := range b.gain {
		out[i] = g / total
	}
	return out
}

// sampleIndices draws k of 0..n-1 without replacement, returned ascending.
func sampleIndices(rng *rand.Rand, n, k int) []int {
	idx := rng.Perm(n)
	if k < n {
		idx = idx[:k]
	}
	sort.Ints(idx)
	return idx
}

// quantileCuts returns ascending split thresholds for feature j. A value v
// falls in bin i where i is the number of cuts <= v.
func quantileCuts(x [][]float64, j, maxBin int) []float64 {
	vals := make([]float64, len(x))
	for i, row := range x {
		vals[i] = row[j]
	}
	sort.Float64s(vals)

	uniq := vals[:0:0]
	for i, v := range vals {
		if i == 0 || v != vals[i-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}

	if len(uniq) <= maxBin {
		cuts := make([]float64, len(uniq)-1)
		for i := 1; i < len(uniq); i++ {
			cuts[i-1] = midpoint(uniq[i-1], uniq[i])
		}
		return cuts
	}

	// Rank-based quantiles over the full sample so dense regions get more cuts.
	cuts := make([]float64, 0, maxBin-1)
	for k := 1; k < maxBin; k++ {
		pos := k * len(vals) / maxBin
		if pos == 0 {
			continue
		}
		lo, hi := vals[pos-1], vals[pos]
		if lo == hi {
			continue
		}
		c := midpoint(lo, hi)
		if len(cuts) == 0 || c > cuts[len(cuts)-1] {
			cuts = append(cuts, c)
		}
	}
	return cuts
}

func midpoint(a, b float64) float64 {
	return a + (b-a)/2
}

func binColumn(x [][]float64, j int, cuts []float64) []uint16 {
	out := make([]uint16, len(x))
	for i, row := range x {
		out[i] = uint16(binOf(cuts, row[j]))
	}
	return out
}

func binOf(cuts []float64, v float64) int {
	return sort.Search(len(cuts), func(i int) bool { return cuts[i] > v })
}
