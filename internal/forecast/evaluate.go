package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/dataset"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

// Scores summarises predictions against actuals. Residuals are
// actual - predicted; ResidualStd uses the sample (n-1) estimator.
type Scores struct {
	N            int
	MSE          float64
	RMSE         float64
	MAE          float64
	R2           float64
	ResidualMean float64
	ResidualStd  float64
	ResidualMin  float64
	ResidualMax  float64
}

type Evaluation struct {
	Label  string
	Trend  Scores
	Hybrid Scores
}

// Score computes error metrics for predicted against actual.
func Score(actual, predicted []float64) (Scores, error) {
	if len(actual) != len(predicted) {
		return Scores{}, fmt.Errorf("%w: %d actuals but %d predictions", models.ErrDataIntegrity, len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return Scores{}, fmt.Errorf("%w: nothing to score", models.ErrInsufficientHistory)
	}

	resid := make([]float64, len(actual))
	floats.SubTo(resid, actual, predicted)

	var sq, abs float64
	for _, r := range resid {
		sq += r * r
		abs += math.Abs(r)
	}
	n := float64(len(resid))

	s := Scores{
		N:            len(resid),
		MSE:          sq / n,
		MAE:          abs / n,
		R2:           stat.RSquaredFrom(predicted, actual, nil),
		ResidualMean: stat.Mean(resid, nil),
		ResidualMin:  floats.Min(resid),
		ResidualMax:  floats.Max(resid),
	}
	s.RMSE = math.Sqrt(s.MSE)
	if len(resid) > 1 {
		s.ResidualStd = stat.StdDev(resid, nil)
	}
	return s, nil
}

// EvaluateTemperature scores the trend alone and the hybrid on rows. Rows
// without CO₂ cannot be fed to the residual model and are skipped.
func EvaluateTemperature(h *Hybrid, label string, rows []dataset.Row) (*Evaluation, error) {
	rows = dataset.WithCO2(rows)
	actual := make([]float64, len(rows))
	trendPred := make([]float64, len(rows))
	hybridPred := make([]float64, len(rows))
	for i, r := range rows {
		actual[i] = r.ObservedC
		var err error
		trendPred[i], hybridPred[i], err = h.Predict(r.Year,
			temperatureFeatureRow(r.Year, r.AnthropogenicC, r.AnthropogenicF, r.CO2PPM))
		if err != nil {
			return nil, err
		}
	}
	return scoreBoth(label, actual, trendPred, hybridPred)
}

func EvaluateSeaLevel(h *Hybrid, label string, rows []dataset.SeaRow) (*Evaluation, error) {
	actual := make([]float64, len(rows))
	trendPred := make([]float64, len(rows))
	hybridPred := make([]float64, len(rows))
	for i, r := range rows {
		actual[i] = r.GMSL
		var err error
		trendPred[i], hybridPred[i], err = h.Predict(r.Year, seaLevelFeatureRow(r.Year, r.ObservedC))
		if err != nil {
			return nil, err
		}
	}
	return scoreBoth(label, actual, trendPred, hybridPred)
}

func scoreBoth(label string, actual, trendPred, hybridPred []float64) (*Evaluation, error) {
	ts, err := Score(actual, trendPred)
	if err != nil {
		return nil, fmt.Errorf("%s trend: %w", label, err)
	}
	hs, err := Score(actual, hybridPred)
	if err != nil {
		return nil, fmt.Errorf("%s hybrid: %w", label, err)
	}
	return &Evaluation{Label: label, Trend: ts, Hybrid: hs}, nil
}
