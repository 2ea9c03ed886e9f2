package forecast

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/dataset"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

func co2Rows(ppm func(year int) float64, from, to int) []dataset.Row {
	var rows []dataset.Row
	for y := from; y <= to; y++ {
		v := ppm(y)
		rows = append(rows, dataset.Row{Year: y, CO2PPM: v, LnCO2Ratio: dataset.LnCO2Ratio(v)})
	}
	return rows
}

func TestExtrapolateCO2_ConstantGrowth(t *testing.T) {
	growth := func(y int) float64 { return 400 * math.Pow(1.02, float64(y-2020)) }
	rows := co2Rows(growth, 1990, 2024)

	years, err := FutureYears(2025, 2050)
	require.NoError(t, err)
	got, err := ExtrapolateCO2(rows, years)
	require.NoError(t, err)
	require.Len(t, got, 26)

	want2050 := growth(2024) * math.Pow(1.02, 26)
	assert.InEpsilon(t, want2050, got[25], 1e-9)
	for i := 1; i < len(got); i++ {
		assert.InEpsilon(t, 1.02, got[i]/got[i-1], 1e-9)
	}
}

func TestExtrapolateCO2_UsesOnlyRecentYears(t *testing.T) {
	// Flat before 2010, 1%/yr after; only the recent slope should matter.
	ppm := func(y int) float64 {
		if y < 2010 {
			return 380
		}
		return 380 * math.Pow(1.01, float64(y-2010))
	}
	rows := co2Rows(ppm, 1980, 2020)

	got, err := ExtrapolateCO2(rows, []int{2030})
	require.NoError(t, err)
	assert.InEpsilon(t, ppm(2020)*math.Pow(1.01, 10), got[0], 1e-9)
}

func TestExtrapolateCO2_SkipsMissingValues(t *testing.T) {
	rows := co2Rows(func(y int) float64 { return 400 + float64(y-2010) }, 2010, 2020)
	rows = append(rows, dataset.Row{Year: 2021, CO2PPM: math.NaN(), LnCO2Ratio: math.NaN()})

	got, err := ExtrapolateCO2(rows, []int{2020})
	require.NoError(t, err)
	assert.InDelta(t, 410.0, got[0], 1e-9)
}

func TestExtrapolateCO2_InsufficientHistory(t *testing.T) {
	tests := []struct {
		name string
		rows []dataset.Row
	}{
		{"no co2 at all", []dataset.Row{{Year: 2015, CO2PPM: math.NaN()}}},
		{"one recent point", co2Rows(func(int) float64 { return 390 }, 2000, 2010)},
		{"only old points", co2Rows(func(int) float64 { return 350 }, 1980, 2009)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtrapolateCO2(tt.rows, []int{2030})
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
		})
	}
}

func TestRampCovariate(t *testing.T) {
	var values []float64
	for i := 1; i <= 20; i++ {
		values = append(values, float64(i))
	}

	got, err := RampCovariate(values, 26)
	require.NoError(t, err)
	require.Len(t, got, 26)
	assert.InDelta(t, 13.0, got[0], 1e-12) // mean of 6..20
	assert.InDelta(t, 20.5, got[25], 1e-12)
	step := got[1] - got[0]
	for i := 2; i < len(got); i++ {
		assert.InDelta(t, step, got[i]-got[i-1], 1e-12)
	}

	short, err := RampCovariate([]float64{2, 4}, 3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 3.75, 4.5}, short, 1e-12)

	one, err := RampCovariate(values, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{13}, one)

	none, err := RampCovariate(values, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = RampCovariate(nil, 5)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
}
