package ingest

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/store"
)

const temperatureCSV = `# Global warming index
# columns: year, anthropogenic_c, observed_c, anthropogenic_f
year,anthropogenic_c,observed_c,anthropogenic_f,notes
1851,-0.02,-0.10,-0.01,
1850,-0.03,-0.12,-0.02,first
1852,-0.01,,0.00,missing observed
`

const co2CSV = `year,ppm
1850,285.2
1851,285.1
`

const seaLevelCSV = `Year, GMSL
1993, -20.1
1994, -17.6
`

func testFetcher() *Fetcher {
	f := NewFetcher()
	f.initialInterval = time.Millisecond
	f.maxElapsed = 5 * time.Second
	return f
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

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseTemperature(t *testing.T) {
	records, err := ParseTemperature(strings.NewReader(temperatureCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 1850, records[0].Year)
	assert.Equal(t, -0.12, records[0].ObservedC)
	assert.Equal(t, -0.02, records[0].AnthropogenicF)
	assert.Equal(t, 1852, records[2].Year)
	assert.True(t, math.IsNaN(records[2].ObservedC))
}

func TestParseCO2_AcceptsBothHeaders(t *testing.T) {
	records, err := ParseCO2(strings.NewReader(co2CSV))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 285.2, records[0].PPM)

	records, err = ParseCO2(strings.NewReader("year,co2_ppm\n2000,369.7\n"))
	require.NoError(t, err)
	assert.Equal(t, []models.CO2Record{{Year: 2000, PPM: 369.7}}, records)
}

func TestParseSeaLevel_TrimsHeaders(t *testing.T) {
	records, err := ParseSeaLevel(strings.NewReader(seaLevelCSV))
	require.NoError(t, err)
	assert.Equal(t, []models.SeaLevelRecord{{Year: 1993, GMSL: -20.1}, {Year: 1994, GMSL: -17.6}}, records)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) error
		input string
		want  string
	}{
		{
			name:  "missing column",
			parse: func(s string) error { _, err := ParseSeaLevel(strings.NewReader(s)); return err },
			input: "year,level\n1993,1\n",
			want:  `missing column "gmsl"`,
		},
		{
			name:  "duplicate year",
			parse: func(s string) error { _, err := ParseCO2(strings.NewReader(s)); return err },
			input: "year,ppm\n2000,369\n2000,370\n",
			want:  "duplicate year 2000",
		},
		{
			name:  "bad number",
			parse: func(s string) error { _, err := ParseCO2(strings.NewReader(s)); return err },
			input: "year,ppm\n2000,abc\n",
			want:  "co2_concentration row 1",
		},
		{
			name:  "fractional year",
			parse: func(s string) error { _, err := ParseCO2(strings.NewReader(s)); return err },
			input: "year,ppm\n2000.5,369\n",
			want:  "invalid year",
		},
		{
			name:  "header only",
			parse: func(s string) error { _, err := ParseTemperature(strings.NewReader(s)); return err },
			input: "year,anthropogenic_c,observed_c,anthropogenic_f\n",
			want:  "no data rows",
		},
		{
			name:  "empty",
			parse: func(s string) error { _, err := ParseTemperature(strings.NewReader(s)); return err },
			input: "",
			want:  "no header row",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrDataIntegrity))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFetcher_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(co2CSV))
	}))
	defer srv.Close()

	body, err := testFetcher().Fetch(context.Background(), srv.URL+"/co2.csv")
	require.NoError(t, err)
	assert.Equal(t, co2CSV, string(body))
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetcher_ClientErrorIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL+"/missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcher_LocalFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sea.csv", seaLevelCSV)

	body, err := testFetcher().Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, seaLevelCSV, string(body))

	body, err = testFetcher().Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, seaLevelCSV, string(body))

	_, err = testFetcher().Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestImporter_ReplacesTables(t *testing.T) {
	s := setupTestStore(t)
	dir := t.TempDir()
	src := Sources{
		Temperature: writeFile(t, dir, "temp.csv", temperatureCSV),
		CO2:         writeFile(t, dir, "co2.csv", co2CSV),
		SeaLevel:    writeFile(t, dir, "sea.csv", seaLevelCSV),
	}

	summary, err := NewImporter(s, testFetcher()).Import(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TemperatureRows)
	assert.Equal(t, 2, summary.CO2Rows)
	assert.Equal(t, 2, summary.SeaLevelRows)
	assert.Contains(t, summary.Flags, "missing_value: temperature 1852")

	temps, err := s.Temperature(context.Background())
	require.NoError(t, err)
	assert.Len(t, temps, 3)
	sea, err := s.SeaLevel(context.Background())
	require.NoError(t, err)
	assert.Len(t, sea, 2)

	// Raw files are archived once; an unchanged re-import adds nothing.
	_, err = NewImporter(s, testFetcher()).Import(context.Background(), src)
	require.NoError(t, err)
	stats, err := s.SourcePayloadStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCount)
	assert.Equal(t, 1, stats.CountBySource["co2_concentration"])
}

func TestImporter_FailureWritesNothing(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceCO2(ctx, []models.CO2Record{{Year: 1999, PPM: 368}}))

	dir := t.TempDir()
	src := Sources{
		CO2:      writeFile(t, dir, "co2.csv", co2CSV),
		SeaLevel: writeFile(t, dir, "sea.csv", "year,level\n1993,1\n"),
	}
	_, err := NewImporter(s, testFetcher()).Import(ctx, src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataIntegrity))

	co2, err := s.CO2(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CO2Record{{Year: 1999, PPM: 368}}, co2)

	_, err = NewImporter(s, testFetcher()).Import(ctx, Sources{})
	assert.Error(t, err)
}

func TestCheckRanges(t *testing.T) {
	flags := CheckTemperature([]models.TemperatureRecord{
		{Year: 2000, AnthropogenicC: 1, ObservedC: 1},
		{Year: 2002, AnthropogenicC: 1, ObservedC: 9},
	})
	assert.Equal(t, []string{
		"anomaly_out_of_range: temperature 2002 = 9.000",
		"year_gap: temperature 2000-2002",
	}, flags)

	assert.Equal(t, []string{"ppm_out_of_range: co2 2000 = 5.00"},
		CheckCO2([]models.CO2Record{{Year: 2000, PPM: 5}, {Year: 2001, PPM: 370}}))
	assert.Equal(t, []string{"missing_value: sea level 1993"},
		CheckSeaLevel([]models.SeaLevelRecord{{Year: 1993, GMSL: math.NaN()}}))
}
