package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/dataset"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

const (
	// RecentCO2Year is the first year used for the CO₂ growth fit.
	RecentCO2Year = 2010

	rampWindow = 15
	rampRise   = 0.5
)

// ExtrapolateCO2 projects CO₂ concentration for years by fitting ln(ppm)
// against year on rows since RecentCO2Year and growing the last observed
// value at that rate.
func ExtrapolateCO2(hist []dataset.Row, years []int) ([]float64, error) {
	withCO2 := dataset.WithCO2(hist)
	if len(withCO2) == 0 {
		return nil, fmt.Errorf("%w: no CO2 observations", models.ErrInsufficientHistory)
	}

	var xs, ys []float64
	for _, r := range withCO2 {
		if r.Year >= RecentCO2Year {
			xs = append(xs, float64(r.Year))
			ys = append(ys, math.Log(r.CO2PPM))
		}
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: need 2 CO2 observations since %d, have %d",
			models.ErrInsufficientHistory, RecentCO2Year, len(xs))
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)

	last := withCO2[len(withCO2)-1]
	out := make([]float64, len(years))
	for i, y := range years {
		out[i] = last.CO2PPM * math.Exp(slope*float64(y-last.Year))
	}
	return out, nil
}

// RampCovariate extends a covariate over n future points as a straight line
// from the mean of its last 15 values to its last value plus 0.5.
//
// The ramp is not fitted to anything; it is kept so stored forecasts stay
// comparable with earlier runs.
func RampCovariate(values []float64, n int) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty covariate history", models.ErrInsufficientHistory)
	}
	if n <= 0 {
		return nil, nil
	}

	window := values[max(0, len(values)-rampWindow):]
	start := stat.Mean(window, nil)
	end := values[len(values)-1] + rampRise

	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out, nil
	}
	return floats.Span(out, start, end), nil
}
