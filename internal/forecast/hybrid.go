package forecast

import (
	"fmt"
	"log"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/dataset"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/gbt"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/trend"
)

// TemperatureBoostParams are the fixed residual-model settings for temperature.
func TemperatureBoostParams() gbt.Params {
	return gbt.Params{
		NumTrees:       2000,
		LearningRate:   0.01,
		MaxDepth:       5,
		Subsample:      0.9,
		ColSample:      0.8,
		Lambda:         1.0,
		MinChildWeight: 1,
		MaxBin:         256,
		Seed:           42,
	}
}

// SeaLevelBoostParams use shallower trees; the temperature feature is noisy
// year to year.
func SeaLevelBoostParams() gbt.Params {
	return gbt.Params{
		NumTrees:       1500,
		LearningRate:   0.02,
		MaxDepth:       4,
		Subsample:      0.9,
		ColSample:      0.9,
		Lambda:         1.0,
		MinChildWeight: 1,
		MaxBin:         256,
		Seed:           42,
	}
}

// Hybrid is a trend model plus a booster fit on the trend's residuals.
type Hybrid struct {
	Trend    *trend.Model
	Residual *gbt.Booster
}

// Predict returns the trend value and trend+residual for one year.
func (h *Hybrid) Predict(year int, features []float64) (trendValue, hybrid float64, err error) {
	trendValue = h.Trend.Predict(float64(year))
	resid, err := h.Residual.Predict(features)
	if err != nil {
		return 0, 0, fmt.Errorf("residual for %d: %w", year, err)
	}
	return trendValue, trendValue + resid, nil
}

// Anchor returns the offset that makes the hybrid back-cast at the last
// historical year equal the observed value there.
func (h *Hybrid) Anchor(lastYear int, lastFeatures []float64, lastObserved float64) (float64, error) {
	_, backcast, err := h.Predict(lastYear, lastFeatures)
	if err != nil {
		return 0, fmt.Errorf("anchor: %w", err)
	}
	return lastObserved - backcast, nil
}

// TrainTemperature fits the temperature trend on every training row and the
// residual booster on the training rows that have a CO₂ value.
func TrainTemperature(train []dataset.Row, params gbt.Params) (*Hybrid, error) {
	if len(train) == 0 {
		return nil, fmt.Errorf("%w: temperature training split is empty", models.ErrInsufficientHistory)
	}

	years := dataset.Years(train, dataset.RowYear)
	observed := make([]float64, len(train))
	for i, r := range train {
		observed[i] = r.ObservedC
	}

	tm, err := trend.Fit(years, observed, trend.DefaultOptions(TemperatureWeightCutoff))
	if err != nil {
		return nil, fmt.Errorf("fit temperature trend: %w", err)
	}

	usable := dataset.WithCO2(train)
	if dropped := len(train) - len(usable); dropped > 0 {
		log.Printf("forecast: dropped %d temperature training rows without CO2", dropped)
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: no temperature training rows with CO2", models.ErrInsufficientHistory)
	}

	target := make([]float64, len(usable))
	for i, r := range usable {
		target[i] = r.ObservedC - tm.Predict(float64(r.Year))
	}

	booster, err := gbt.Fit(temperatureMatrix(usable), target, params)
	if err != nil {
		return nil, fmt.Errorf("fit temperature residuals: %w", err)
	}
	return &Hybrid{Trend: tm, Residual: booster}, nil
}

// TrainSeaLevel fits the sea-level trend and its temperature-driven residual
// booster on the same rows.
func TrainSeaLevel(train []dataset.SeaRow, params gbt.Params) (*Hybrid, error) {
	if len(train) == 0 {
		return nil, fmt.Errorf("%w: sea-level training split is empty", models.ErrInsufficientHistory)
	}

	years := dataset.Years(train, dataset.SeaRowYear)
	gmsl := make([]float64, len(train))
	for i, r := range train {
		gmsl[i] = r.GMSL
	}

	tm, err := trend.Fit(years, gmsl, trend.DefaultOptions(SeaLevelWeightCutoff))
	if err != nil {
		return nil, fmt.Errorf("fit sea-level trend: %w", err)
	}

	target := make([]float64, len(train))
	for i, r := range train {
		target[i] = r.GMSL - tm.Predict(float64(r.Year))
	}

	booster, err := gbt.Fit(seaLevelMatrix(train), target, params)
	if err != nil {
		return nil, fmt.Errorf("fit sea-level residuals: %w", err)
	}
	return &Hybrid{Trend: tm, Residual: booster}, nil
}
