package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/dataset"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/ingest"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/store"
)

func TestPrintSplit(t *testing.T) {
	rows := []dataset.SeaRow{{Year: 1993}, {Year: 2005}, {Year: 2016}, {Year: 2024}}
	var buf bytes.Buffer
	printSplit(&buf, "Sea-level dataset", dataset.SplitSeaRows(rows), dataset.SeaRowYear)

	want := "Sea-level dataset: 4 rows\n" +
		"  train        2 rows (1993-2005)\n" +
		"  validation 0 rows\n" +
		"  test         2 rows (2016-2024)\n"
	assert.Equal(t, want, buf.String())
}

func TestPrintImportSummary(t *testing.T) {
	var buf bytes.Buffer
	printImportSummary(&buf, &ingest.ImportSummary{
		TemperatureRows: 175, CO2Rows: 66, SeaLevelRows: 32,
		Flags: []string{"missing_value: co2 1960"},
	})
	assert.Equal(t, "imported temperature=175 co2=66 sea_level=32 rows\n"+
		"1 values flagged for review:\n"+
		"  missing_value: co2 1960\n", buf.String())
}

func TestPrintImportances_UnnamedFeatures(t *testing.T) {
	var buf bytes.Buffer
	printImportances(&buf, []string{"year_c"}, []float64{0.75, 0.25})
	assert.Equal(t, "  year_c         0.7500\n  f1             0.2500\n", buf.String())
}

func TestPrintArchiveStats(t *testing.T) {
	var buf bytes.Buffer
	printArchiveStats(&buf, &store.PayloadStats{})
	assert.Equal(t, "no archived source files\n", buf.String())

	buf.Reset()
	printArchiveStats(&buf, &store.PayloadStats{
		TotalCount:      3,
		TotalSizeBytes:  412,
		OldestFetchedAt: time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC),
		NewestFetchedAt: time.Date(2026, 10, 18, 6, 30, 0, 0, time.UTC),
		CountBySource:   map[string]int{"temperature": 2, "sea_level": 1},
	})
	assert.Equal(t, "3 archived files, 412 bytes compressed\n"+
		"fetched 2026-09-01 06:00 to 2026-10-18 06:30\n"+
		"  sea_level          1\n"+
		"  temperature        2\n", buf.String())
}
