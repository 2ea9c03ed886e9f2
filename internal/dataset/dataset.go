// Package dataset joins the temperature, CO₂ and sea-level series into the
// year-keyed tables the forecasting models train on.
package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

// PreindustrialCO2 is the reference concentration (ppm) for ln_co2_ratio.
const PreindustrialCO2 = 278.0

// Row is one year of the merged temperature + CO₂ table. CO2PPM and
// LnCO2Ratio are NaN when the CO₂ series has no entry for the year.
type Row struct {
	Year           int
	AnthropogenicC float64
	ObservedC      float64
	AnthropogenicF float64
	CO2PPM         float64
	LnCO2Ratio     float64
}

func (r Row) HasCO2() bool {
	return !math.IsNaN(r.CO2PPM)
}

// SeaRow is one year present in both the merged table and the sea-level series.
type SeaRow struct {
	Year      int
	ObservedC float64
	GMSL      float64
}

// LnCO2Ratio returns ln(ppm / PreindustrialCO2).
func LnCO2Ratio(ppm float64) float64 {
	return math.Log(ppm / PreindustrialCO2)
}

// Merge left-joins co2 onto temps by year. The result has exactly one row per
// temperature year, ordered ascending.
func Merge(temps []models.TemperatureRecord, co2 []models.CO2Record) ([]Row, error) {
	if len(temps) == 0 {
		return nil, fmt.Errorf("%w: temperature series is empty", models.ErrDataIntegrity)
	}

	temps = sortedCopy(temps, func(r models.TemperatureRecord) int { return r.Year })
	co2 = sortedCopy(co2, func(r models.CO2Record) int { return r.Year })

	var errs *multierror.Error
	errs = multierror.Append(errs, checkUniqueYears("temperature", temps, func(r models.TemperatureRecord) int { return r.Year }))
	errs = multierror.Append(errs, checkUniqueYears("co2_concentration", co2, func(r models.CO2Record) int { return r.Year }))
	for _, t := range temps {
		if !finite(t.ObservedC) || !finite(t.AnthropogenicC) || !finite(t.AnthropogenicF) {
			errs = multierror.Append(errs, fmt.Errorf("temperature: missing value in year %d", t.Year))
		}
	}
	for _, c := range co2 {
		if !finite(c.PPM) || c.PPM <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("co2_concentration: invalid ppm %v in year %d", c.PPM, c.Year))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDataIntegrity, err)
	}

	byYear := make(map[int]float64, len(co2))
	for _, c := range co2 {
		byYear[c.Year] = c.PPM
	}

	rows := make([]Row, len(temps))
	for i, t := range temps {
		row := Row{
			Year:           t.Year,
			AnthropogenicC: t.AnthropogenicC,
			ObservedC:      t.ObservedC,
			AnthropogenicF: t.AnthropogenicF,
			CO2PPM:         math.NaN(),
			LnCO2Ratio:     math.NaN(),
		}
		if ppm, ok := byYear[t.Year]; ok {
			row.CO2PPM = ppm
			row.LnCO2Ratio = LnCO2Ratio(ppm)
		}
		rows[i] = row
	}
	return rows, nil
}

// JoinSeaLevel inner-joins the merged rows with the sea-level series. Only
// years present in both survive.
func JoinSeaLevel(rows []Row, sea []models.SeaLevelRecord) ([]SeaRow, error) {
	sea = sortedCopy(sea, func(r models.SeaLevelRecord) int { return r.Year })

	var errs *multierror.Error
	errs = multierror.Append(errs, checkUniqueYears("sea_level", sea, func(r models.SeaLevelRecord) int { return r.Year }))
	for _, s := range sea {
		if !finite(s.GMSL) {
			errs = multierror.Append(errs, fmt.Errorf("sea_level: missing gmsl in year %d", s.Year))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDataIntegrity, err)
	}

	gmsl := make(map[int]float64, len(sea))
	for _, s := range sea {
		gmsl[s.Year] = s.GMSL
	}

	var out []SeaRow
	for _, r := range rows {
		v, ok := gmsl[r.Year]
		if !ok {
			continue
		}
		out = append(out, SeaRow{Year: r.Year, ObservedC: r.ObservedC, GMSL: v})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no overlapping years between temperature and sea level", models.ErrDataIntegrity)
	}
	return out, nil
}

// WithCO2 drops rows that have no CO₂ match.
func WithCO2(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.HasCO2() {
			out = append(out, r)
		}
	}
	return out
}

func Years[T any](items []T, year func(T) int) []float64 {
	out := make([]float64, len(items))
	for i, it := range items {
		out[i] = float64(year(it))
	}
	return out
}

func RowYear(r Row) int       { return r.Year }
func SeaRowYear(r SeaRow) int { return r.Year }

func sortedCopy[T any](items []T, year func(T) int) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return year(out[i]) < year(out[j]) })
	return out
}

// checkUniqueYears expects items sorted by year.
func checkUniqueYears[T any](name string, items []T, year func(T) int) error {
	var errs *multierror.Error
	for i := 1; i < len(items); i++ {
		if year(items[i]) == year(items[i-1]) {
			errs = multierror.Append(errs, fmt.Errorf("%s: duplicate year %d", name, year(items[i])))
		}
	}
	return errs.ErrorOrNil()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
