package narrative

import (
	"fmt"
	"math"
	"strings"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

const systemPrompt = "You are a climate science communicator. Summarise model forecasts " +
	"for a general audience in two or three plain sentences. Do not invent numbers " +
	"that are not in the data. Mention that these are statistical projections."

// Facts are the stored forecasts a summary is written from.
type Facts struct {
	Temperature []models.Prediction // °C anomaly
	SeaLevel    []models.Prediction // mm
}

// crossing returns the first year the forecast reaches level.
func crossing(preds []models.Prediction, level float64) (int, bool) {
	for _, p := range preds {
		if p.Value >= level {
			return p.Year, true
		}
	}
	return 0, false
}

// BuildPrompt turns forecasts into the user message for the summary.
func BuildPrompt(f Facts) (string, error) {
	if len(f.Temperature) == 0 {
		return "", fmt.Errorf("%w: no temperature forecast to summarise", models.ErrDataIntegrity)
	}

	var b strings.Builder
	first, last := f.Temperature[0], f.Temperature[len(f.Temperature)-1]
	fmt.Fprintf(&b, "Global temperature anomaly forecast %d-%d: %.2f°C in %d rising to %.2f°C in %d.\n",
		first.Year, last.Year, first.Value, first.Year, last.Value, last.Year)

	for _, level := range []float64{1.5, 2.0} {
		if year, ok := crossing(f.Temperature, level); ok {
			fmt.Fprintf(&b, "The forecast first reaches %.1f°C in %d.\n", level, year)
		} else {
			fmt.Fprintf(&b, "The forecast stays below %.1f°C through %d.\n", level, last.Year)
		}
	}

	if n := len(f.SeaLevel); n > 0 {
		s0, s1 := f.SeaLevel[0], f.SeaLevel[n-1]
		rise := s1.Value - s0.Value
		if !math.IsNaN(rise) {
			fmt.Fprintf(&b, "Global mean sea level forecast: %.1f mm in %d to %.1f mm in %d (%+.1f mm).\n",
				s0.Value, s0.Year, s1.Value, s1.Year, rise)
		}
	}
	return b.String(), nil
}
