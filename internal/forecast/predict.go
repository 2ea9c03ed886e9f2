package forecast

import (
	"fmt"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/dataset"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

// Result holds a projection over consecutive future years. CO2 is only set
// for temperature projections.
type Result struct {
	Years    []int
	Trend    []float64
	Hybrid   []float64
	Anchored []float64
	CO2      []float64
	Offset   float64
}

// Predictions returns the anchored series in storage form.
func (r *Result) Predictions() []models.Prediction {
	out := make([]models.Prediction, len(r.Years))
	for i, y := range r.Years {
		out[i] = models.Prediction{Year: y, Value: r.Anchored[i]}
	}
	return out
}

// Extremes returns the minimum and maximum anchored values with their years.
func (r *Result) Extremes() (minYear int, minValue float64, maxYear int, maxValue float64) {
	for i, v := range r.Anchored {
		if i == 0 || v < minValue {
			minYear, minValue = r.Years[i], v
		}
		if i == 0 || v > maxValue {
			maxYear, maxValue = r.Years[i], v
		}
	}
	return minYear, minValue, maxYear, maxValue
}

// FutureYears returns start..end inclusive.
func FutureYears(start, end int) ([]int, error) {
	if start > end {
		return nil, fmt.Errorf("%w: forecast start %d is after end %d", models.ErrDataIntegrity, start, end)
	}
	years := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		years = append(years, y)
	}
	return years, nil
}

// PredictTemperature projects observed temperature over start..end using
// extrapolated CO₂ and ramped anthropogenic covariates, anchored to the last
// row of hist.
func PredictTemperature(h *Hybrid, hist []dataset.Row, start, end int) (*Result, error) {
	if len(hist) == 0 {
		return nil, fmt.Errorf("%w: no temperature history", models.ErrInsufficientHistory)
	}
	years, err := FutureYears(start, end)
	if err != nil {
		return nil, err
	}

	co2, err := ExtrapolateCO2(hist, years)
	if err != nil {
		return nil, fmt.Errorf("extrapolate co2: %w", err)
	}

	anthroCHist := make([]float64, len(hist))
	anthroFHist := make([]float64, len(hist))
	for i, r := range hist {
		anthroCHist[i] = r.AnthropogenicC
		anthroFHist[i] = r.AnthropogenicF
	}
	anthroC, err := RampCovariate(anthroCHist, len(years))
	if err != nil {
		return nil, fmt.Errorf("ramp anthropogenic_c: %w", err)
	}
	anthroF, err := RampCovariate(anthroFHist, len(years))
	if err != nil {
		return nil, fmt.Errorf("ramp anthropogenic_f: %w", err)
	}

	res := &Result{
		Years:    years,
		Trend:    make([]float64, len(years)),
		Hybrid:   make([]float64, len(years)),
		Anchored: make([]float64, len(years)),
		CO2:      co2,
	}
	for i, y := range years {
		res.Trend[i], res.Hybrid[i], err = h.Predict(y, temperatureFeatureRow(y, anthroC[i], anthroF[i], co2[i]))
		if err != nil {
			return nil, err
		}
	}

	last := hist[len(hist)-1]
	lastCO2 := last.CO2PPM
	if !last.HasCO2() {
		back, err := ExtrapolateCO2(hist, []int{last.Year})
		if err != nil {
			return nil, fmt.Errorf("extrapolate co2 for %d: %w", last.Year, err)
		}
		lastCO2 = back[0]
	}
	res.Offset, err = h.Anchor(last.Year,
		temperatureFeatureRow(last.Year, last.AnthropogenicC, last.AnthropogenicF, lastCO2),
		last.ObservedC)
	if err != nil {
		return nil, err
	}

	for i := range res.Hybrid {
		res.Anchored[i] = res.Hybrid[i] + res.Offset
	}
	return res, nil
}

// PredictSeaLevel projects GMSL for years given the temperature projected for
// each of them, anchored to the last row of hist.
func PredictSeaLevel(h *Hybrid, hist []dataset.SeaRow, years []int, futureTemps []float64) (*Result, error) {
	if len(hist) == 0 {
		return nil, fmt.Errorf("%w: no sea-level history", models.ErrInsufficientHistory)
	}
	if len(years) != len(futureTemps) {
		return nil, fmt.Errorf("%w: %d future years but %d temperatures",
			models.ErrDataIntegrity, len(years), len(futureTemps))
	}

	res := &Result{
		Years:    append([]int(nil), years...),
		Trend:    make([]float64, len(years)),
		Hybrid:   make([]float64, len(years)),
		Anchored: make([]float64, len(years)),
	}
	var err error
	for i, y := range years {
		res.Trend[i], res.Hybrid[i], err = h.Predict(y, seaLevelFeatureRow(y, futureTemps[i]))
		if err != nil {
			return nil, err
		}
	}

	last := hist[len(hist)-1]
	res.Offset, err = h.Anchor(last.Year, seaLevelFeatureRow(last.Year, last.ObservedC), last.GMSL)
	if err != nil {
		return nil, err
	}

	for i := range res.Hybrid {
		res.Anchored[i] = res.Hybrid[i] + res.Offset
	}
	return res, nil
}
