package trend

import (
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

func yearRange(from, to int) []float64 {
	var out []float64
	for y := from; y <= to; y++ {
		out = append(out, float64(y))
	}
	return out
}

func TestFit_LinearSeries(t *testing.T) {
	years := yearRange(1850, 2024)
	values := make([]float64, len(years))
	for i, y := range years {
		values[i] = 0.01 * (y - 1850)
	}

	m, err := Fit(years, values, DefaultOptions(1980))
	require.NoError(t, err)

	coefs := m.Coefficients()
	require.Len(t, coefs, 2)
	assert.InDelta(t, 0.01, coefs[0], 1e-3)
	assert.InDelta(t, 0.0, coefs[1], 1e-6)

	for _, y := range []float64{1850, 1950, 2024, 2050} {
		assert.InDelta(t, 0.01*(y-1850), m.Predict(y), 1e-2, "year %v", y)
	}
}

func TestFit_QuadraticSeries(t *testing.T) {
	years := yearRange(1900, 2020)
	values := make([]float64, len(years))
	for i, y := range years {
		d := y - 1900
		values[i] = 0.2 + 0.001*d + 0.00005*d*d
	}

	m, err := Fit(years, values, DefaultOptions(1990))
	require.NoError(t, err)

	pred := m.PredictAll(years)
	for i := range years {
		assert.InDelta(t, values[i], pred[i], 1e-2, "year %v", years[i])
	}
	assert.InDelta(t, 0.00005, m.Coefficients()[1], 1e-5)
}

func TestFit_RecentWeightPullsTowardRecentYears(t *testing.T) {
	years := yearRange(1950, 2020)
	values := make([]float64, len(years))
	for i, y := range years {
		values[i] = 0.01 * (y - 1950)
		if y >= 2000 {
			values[i] += 0.2
		}
	}

	unweighted := DefaultOptions(1980)
	unweighted.RecentWeight = 1
	plain, err := Fit(years, values, unweighted)
	require.NoError(t, err)

	weighted, err := Fit(years, values, DefaultOptions(1980))
	require.NoError(t, err)

	// Up-weighting rows can only lower their share of the squared error.
	recentSSE := func(m *Model) float64 {
		var sse float64
		for i, y := range years {
			if y >= 1980 {
				r := values[i] - m.Predict(y)
				sse += r * r
			}
		}
		return sse
	}
	assert.LessOrEqual(t, recentSSE(weighted), recentSSE(plain)+1e-12)
}

func TestFit_InsufficientHistory(t *testing.T) {
	tests := []struct {
		name  string
		years []float64
	}{
		{"empty", nil},
		{"one year", []float64{2000}},
		{"two years", []float64{2000, 2001}},
		{"repeated years", []float64{2000, 2000, 2001, 2001}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]float64, len(tt.years))
			_, err := Fit(tt.years, values, DefaultOptions(1980))
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
		})
	}
}

func TestFit_RejectsBadInput(t *testing.T) {
	_, err := Fit([]float64{1, 2, 3}, []float64{1, 2}, DefaultOptions(1980))
	assert.True(t, errors.Is(err, models.ErrDataIntegrity))

	_, err = Fit([]float64{1, 2, 3}, []float64{1, math.NaN(), 3}, DefaultOptions(1980))
	assert.True(t, errors.Is(err, models.ErrDataIntegrity))

	opts := DefaultOptions(1980)
	opts.Degree = 0
	_, err = Fit([]float64{1, 2, 3}, []float64{1, 2, 3}, opts)
	assert.Error(t, err)
}

func TestModel_Equation(t *testing.T) {
	m := &Model{intercept: 1.5, coefs: []float64{-0.25, 0.000125}}
	assert.Equal(t, "y = 1.500000 -0.250000*x^1 +0.000125*x^2", m.Equation())
	assert.Equal(t, m.Equation(), m.String())

	years := yearRange(1900, 2000)
	values := make([]float64, len(years))
	for i, y := range years {
		values[i] = y * 0.02
	}
	fitted, err := Fit(years, values, DefaultOptions(1980))
	require.NoError(t, err)
	pattern := regexp.MustCompile(`^y = -?\d+\.\d{6} [+-]\d+\.\d{6}\*x\^1 [+-]\d+\.\d{6}\*x\^2$`)
	assert.Regexp(t, pattern, fitted.Equation())
}

func TestModel_CoefficientsIsCopy(t *testing.T) {
	m := &Model{intercept: 0, coefs: []float64{1, 2}}
	c := m.Coefficients()
	c[0] = 99
	assert.Equal(t, 1.0, m.Coefficients()[0])
}
