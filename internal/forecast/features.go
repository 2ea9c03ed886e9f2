// Package forecast trains the hybrid trend + residual models for global
// temperature and sea level and projects them forward, anchored to the last
// observation.
package forecast

import (
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/dataset"
)

// ReferenceYear centres the year features so their squares stay small.
const ReferenceYear = 2000

// Recency weighting cutoffs for the trend fits.
const (
	TemperatureWeightCutoff = 1980
	SeaLevelWeightCutoff    = 1990
)

var (
	TemperatureFeatures = []string{"year_c", "year_c2", "anthro_c", "anthro_f", "co2_ppm", "ln_co2_ratio"}
	SeaLevelFeatures    = []string{"year_c", "year_c2", "temp", "temp2"}
)

func temperatureFeatureRow(year int, anthroC, anthroF, co2 float64) []float64 {
	yc := float64(year - ReferenceYear)
	return []float64{yc, yc * yc, anthroC, anthroF, co2, dataset.LnCO2Ratio(co2)}
}

func seaLevelFeatureRow(year int, temp float64) []float64 {
	yc := float64(year - ReferenceYear)
	return []float64{yc, yc * yc, temp, temp * temp}
}

func temperatureMatrix(rows []dataset.Row) [][]float64 {
	x := make([][]float64, len(rows))
	for i, r := range rows {
		x[i] = temperatureFeatureRow(r.Year, r.AnthropogenicC, r.AnthropogenicF, r.CO2PPM)
	}
	return x
}

func seaLevelMatrix(rows []dataset.SeaRow) [][]float64 {
	x := make([][]float64, len(rows))
	for i, r := range rows {
		x[i] = seaLevelFeatureRow(r.Year, r.ObservedC)
	}
	return x
}
