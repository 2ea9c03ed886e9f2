// Package trend fits the smooth long-run component of a climate series: a
// polynomial in year with ridge regularisation and recency weighting.
package trend

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

const (
	DefaultDegree       = 2
	DefaultAlpha        = 0.1
	DefaultRecentWeight = 3.0
)

// Options control the fit. Rows with year >= WeightCutoff get RecentWeight,
// all others weight 1.
type Options struct {
	Degree       int
	Alpha        float64
	WeightCutoff int
	RecentWeight float64
}

func DefaultOptions(cutoff int) Options {
	return Options{
		Degree:       DefaultDegree,
		Alpha:        DefaultAlpha,
		WeightCutoff: cutoff,
		RecentWeight: DefaultRecentWeight,
	}
}

// Model is an immutable fitted polynomial y = b0 + b1*x + ... + bd*x^d.
type Model struct {
	intercept float64
	coefs     []float64
}

// Fit expands years into powers 1..Degree (no bias column) and solves the
// weighted ridge problem with an unpenalised intercept:
//
//	(XcᵀWXc + αI) β = XcᵀWyc,  b0 = ȳ − x̄·β
//
// where Xc and yc are centred on their weighted means.
func Fit(years, values []float64, opts Options) (*Model, error) {
	if opts.Degree < 1 {
		return nil, fmt.Errorf("trend: degree must be >= 1, got %d", opts.Degree)
	}
	if opts.Alpha < 0 {
		return nil, fmt.Errorf("trend: alpha must be >= 0, got %v", opts.Alpha)
	}
	if len(years) != len(values) {
		return nil, fmt.Errorf("%w: trend: %d years but %d values", models.ErrDataIntegrity, len(years), len(values))
	}
	for i := range years {
		if !isFinite(years[i]) || !isFinite(values[i]) {
			return nil, fmt.Errorf("%w: trend: non-finite input at row %d", models.ErrDataIntegrity, i)
		}
	}

	need := opts.Degree + 1
	if n := distinct(years); n < need {
		return nil, fmt.Errorf("%w: trend: degree %d needs %d distinct years, have %d",
			models.ErrInsufficientHistory, opts.Degree, need, n)
	}

	recent := opts.RecentWeight
	if recent == 0 {
		recent = 1
	}
	n, d := len(years), opts.Degree
	weights := make([]float64, n)
	for i, y := range years {
		weights[i] = 1
		if int(y) >= opts.WeightCutoff {
			weights[i] = recent
		}
	}
	wsum := floats.Sum(weights)

	x := mat.NewDense(n, d, nil)
	for i, y := range years {
		p := 1.0
		for j := 0; j < d; j++ {
			p *= y
			x.Set(i, j, p)
		}
	}

	xMean := make([]float64, d)
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, x)
		xMean[j] = floats.Dot(col, weights) / wsum
	}
	yMean := floats.Dot(values, weights) / wsum

	// sqrt(w)-scaled centred design so that XsᵀXs = XcᵀWXc.
	xs := mat.NewDense(n, d, nil)
	ys := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		sw := math.Sqrt(weights[i])
		for j := 0; j < d; j++ {
			xs.Set(i, j, (x.At(i, j)-xMean[j])*sw)
		}
		ys.SetVec(i, (values[i]-yMean)*sw)
	}

	gram := mat.NewSymDense(d, nil)
	gram.SymOuterK(1, xs.T())
	for j := 0; j < d; j++ {
		gram.SetSym(j, j, gram.At(j, j)+opts.Alpha)
	}

	rhs := mat.NewVecDense(d, nil)
	rhs.MulVec(xs.T(), ys)

	beta := mat.NewVecDense(d, nil)
	var chol mat.Cholesky
	if ok := chol.Factorize(gram); ok {
		if err := chol.SolveVecTo(beta, rhs); err != nil {
			return nil, fmt.Errorf("trend: solve normal equations: %w", err)
		}
	} else if err := beta.SolveVec(gram, rhs); err != nil {
		return nil, fmt.Errorf("%w: trend: singular design: %v", models.ErrInsufficientHistory, err)
	}

	coefs := make([]float64, d)
	intercept := yMean
	for j := 0; j < d; j++ {
		coefs[j] = beta.AtVec(j)
		intercept -= xMean[j] * coefs[j]
	}

	return &Model{intercept: intercept, coefs: coefs}, nil
}

func (m *Model) Degree() int {
	return len(m.coefs)
}

func (m *Model) Intercept() float64 {
	return m.intercept
}

// Coefficients returns b1..bd. The slice is a copy.
func (m *Model) Coefficients() []float64 {
	out := make([]float64, len(m.coefs))
	copy(out, m.coefs)
	return out
}

func (m *Model) Predict(year float64) float64 {
	v := m.intercept
	p := 1.0
	for _, c := range m.coefs {
		p *= year
		v += c * p
	}
	return v
}

func (m *Model) PredictAll(years []float64) []float64 {
	out := make([]float64, len(years))
	for i, y := range years {
		out[i] = m.Predict(y)
	}
	return out
}

// Equation renders the model as "y = b0 +b1*x^1 +b2*x^2".
func (m *Model) Equation() string {
	var b strings.Builder
	fmt.Fprintf(&b, "y = %.6f", m.intercept)
	for i, c := range m.coefs {
		fmt.Fprintf(&b, " %+.6f*x^%d", c, i+1)
	}
	return b.String()
}

func (m *Model) String() string {
	return m.Equation()
}

func distinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
