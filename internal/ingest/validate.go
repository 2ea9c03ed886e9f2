package ingest

import (
	"fmt"
	"math"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

// Plausibility bounds. Values outside them are imported but flagged.
const (
	minAnomalyC = -3.0
	maxAnomalyC = 5.0
	minPPM      = 150.0
	maxPPM      = 1000.0
	minGMSL     = -300.0
	maxGMSL     = 500.0
)

const (
	FlagAnomalyOutOfRange = "anomaly_out_of_range"
	FlagPPMOutOfRange     = "ppm_out_of_range"
	FlagGMSLOutOfRange    = "gmsl_out_of_range"
	FlagMissingValue      = "missing_value"
	FlagYearGap           = "year_gap"
)

func CheckTemperature(records []models.TemperatureRecord) []string {
	var flags []string
	for i, r := range records {
		for _, v := range []float64{r.AnthropogenicC, r.ObservedC} {
			if math.IsNaN(v) {
				flags = append(flags, fmt.Sprintf("%s: temperature %d", FlagMissingValue, r.Year))
				break
			}
			if v < minAnomalyC || v > maxAnomalyC {
				flags = append(flags, fmt.Sprintf("%s: temperature %d = %.3f", FlagAnomalyOutOfRange, r.Year, v))
				break
			}
		}
		if i > 0 && r.Year != records[i-1].Year+1 {
			flags = append(flags, fmt.Sprintf("%s: temperature %d-%d", FlagYearGap, records[i-1].Year, r.Year))
		}
	}
	return flags
}

func CheckCO2(records []models.CO2Record) []string {
	var flags []string
	for _, r := range records {
		switch {
		case math.IsNaN(r.PPM):
			flags = append(flags, fmt.Sprintf("%s: co2 %d", FlagMissingValue, r.Year))
		case r.PPM < minPPM || r.PPM > maxPPM:
			flags = append(flags, fmt.Sprintf("%s: co2 %d = %.2f", FlagPPMOutOfRange, r.Year, r.PPM))
		}
	}
	return flags
}

func CheckSeaLevel(records []models.SeaLevelRecord) []string {
	var flags []string
	for _, r := range records {
		switch {
		case math.IsNaN(r.GMSL):
			flags = append(flags, fmt.Sprintf("%s: sea level %d", FlagMissingValue, r.Year))
		case r.GMSL < minGMSL || r.GMSL > maxGMSL:
			flags = append(flags, fmt.Sprintf("%s: sea level %d = %.2f", FlagGMSLOutOfRange, r.Year, r.GMSL))
		}
	}
	return flags
}
