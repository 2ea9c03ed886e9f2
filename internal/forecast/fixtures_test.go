package forecast

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/dataset"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/gbt"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/store"
)

func syntheticTemperature() []models.TemperatureRecord {
	var out []models.TemperatureRecord
	for y := 1850; y <= 2024; y++ {
		f := float64(y-1850) / 174
		anthro := 1.2 * f * f
		out = append(out, models.TemperatureRecord{
			Year:           y,
			AnthropogenicC: anthro,
			AnthropogenicF: anthro * 1.1,
			ObservedC:      anthro + 0.1*math.Sin(float64(y)/3),
		})
	}
	return out
}

func syntheticCO2() []models.CO2Record {
	var out []models.CO2Record
	for y := 1959; y <= 2024; y++ {
		out = append(out, models.CO2Record{Year: y, PPM: 315 * math.Exp(0.004*float64(y-1959))})
	}
	return out
}

func syntheticSeaLevel() []models.SeaLevelRecord {
	var out []models.SeaLevelRecord
	for y := 1993; y <= 2024; y++ {
		d := float64(y - 1993)
		out = append(out, models.SeaLevelRecord{Year: y, GMSL: -20 + 3.3*d + 0.04*d*d + 2*math.Sin(float64(y))})
	}
	return out
}

func syntheticRows(t *testing.T) []dataset.Row {
	t.Helper()
	rows, err := dataset.Merge(syntheticTemperature(), syntheticCO2())
	require.NoError(t, err)
	return rows
}

func syntheticSeaRows(t *testing.T, rows []dataset.Row) []dataset.SeaRow {
	t.Helper()
	sea, err := dataset.JoinSeaLevel(rows, syntheticSeaLevel())
	require.NoError(t, err)
	return sea
}

func smallBoostParams() gbt.Params {
	return gbt.Params{
		NumTrees:       60,
		LearningRate:   0.1,
		MaxDepth:       3,
		Subsample:      0.9,
		ColSample:      0.8,
		Lambda:         1,
		MinChildWeight: 1,
		MaxBin:         256,
		Seed:           42,
	}
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedStore(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.ReplaceTemperature(ctx, syntheticTemperature()))
	require.NoError(t, s.ReplaceCO2(ctx, syntheticCO2()))
	require.NoError(t, s.ReplaceSeaLevel(ctx, syntheticSeaLevel()))
}
