package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

// table is a parsed CSV with a lower-cased header index.
type table struct {
	name string
	cols map[string]int
	rows [][]string
}

func readTable(name string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: no header row", models.ErrDataIntegrity, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrDataIntegrity, name, err)
	}

	t := &table{name: name, cols: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		t.cols[h] = i
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", models.ErrDataIntegrity, name, err)
		}
		t.rows = append(t.rows, rec)
	}
	if len(t.rows) == 0 {
		return nil, fmt.Errorf("%w: %s: no data rows", models.ErrDataIntegrity, name)
	}
	return t, nil
}

// column returns the index of the first header matching one of names.
func (t *table) column(names ...string) (int, error) {
	for _, n := range names {
		if i, ok := t.cols[n]; ok {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s: missing column %q", t.name, names[0])
}

func (t *table) columns(specs ...[]string) ([]int, error) {
	var errs *multierror.Error
	idx := make([]int, len(specs))
	for i, names := range specs {
		var err error
		idx[i], err = t.column(names...)
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDataIntegrity, err)
	}
	return idx, nil
}

// cell parses a numeric field. Blank and out-of-range indexes read as NaN.
func cell(rec []string, i int) (float64, error) {
	if i >= len(rec) {
		return math.NaN(), nil
	}
	s := strings.TrimSpace(rec[i])
	if s == "" || strings.EqualFold(s, "na") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func yearCell(rec []string, i int) (int, error) {
	v, err := cell(rec, i)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v != math.Trunc(v) {
		return 0, fmt.Errorf("invalid year %v", v)
	}
	return int(v), nil
}

// ParseTemperature reads year, anthropogenic_c, observed_c and
// anthropogenic_f columns. Extra columns are ignored.
func ParseTemperature(r io.Reader) ([]models.TemperatureRecord, error) {
	t, err := readTable("temperature", r)
	if err != nil {
		return nil, err
	}
	idx, err := t.columns(
		[]string{"year"},
		[]string{"anthropogenic_c"},
		[]string{"observed_c"},
		[]string{"anthropogenic_f"},
	)
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	out := make([]models.TemperatureRecord, 0, len(t.rows))
	for line, rec := range t.rows {
		var tr models.TemperatureRecord
		var e1, e2, e3, e4 error
		tr.Year, e1 = yearCell(rec, idx[0])
		tr.AnthropogenicC, e2 = cell(rec, idx[1])
		tr.ObservedC, e3 = cell(rec, idx[2])
		tr.AnthropogenicF, e4 = cell(rec, idx[3])
		if err := errors.Join(e1, e2, e3, e4); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("temperature row %d: %w", line+1, err))
			continue
		}
		out = append(out, tr)
	}
	return finish(errs, out, func(r models.TemperatureRecord) int { return r.Year }, "temperature")
}

// ParseCO2 reads year and ppm (or co2_ppm) columns.
func ParseCO2(r io.Reader) ([]models.CO2Record, error) {
	t, err := readTable("co2_concentration", r)
	if err != nil {
		return nil, err
	}
	idx, err := t.columns([]string{"year"}, []string{"ppm", "co2_ppm"})
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	out := make([]models.CO2Record, 0, len(t.rows))
	for line, rec := range t.rows {
		var cr models.CO2Record
		var e1, e2 error
		cr.Year, e1 = yearCell(rec, idx[0])
		cr.PPM, e2 = cell(rec, idx[1])
		if err := errors.Join(e1, e2); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("co2_concentration row %d: %w", line+1, err))
			continue
		}
		out = append(out, cr)
	}
	return finish(errs, out, func(r models.CO2Record) int { return r.Year }, "co2_concentration")
}

// ParseSeaLevel reads year and gmsl columns.
func ParseSeaLevel(r io.Reader) ([]models.SeaLevelRecord, error) {
	t, err := readTable("sea_level", r)
	if err != nil {
		return nil, err
	}
	idx, err := t.columns([]string{"year"}, []string{"gmsl"})
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	out := make([]models.SeaLevelRecord, 0, len(t.rows))
	for line, rec := range t.rows {
		var sr models.SeaLevelRecord
		var e1, e2 error
		sr.Year, e1 = yearCell(rec, idx[0])
		sr.GMSL, e2 = cell(rec, idx[1])
		if err := errors.Join(e1, e2); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("sea_level row %d: %w", line+1, err))
			continue
		}
		out = append(out, sr)
	}
	return finish(errs, out, func(r models.SeaLevelRecord) int { return r.Year }, "sea_level")
}

// finish sorts records by year and rejects duplicates along with any row
// errors collected so far.
func finish[T any](errs *multierror.Error, out []T, year func(T) int, name string) ([]T, error) {
	sort.SliceStable(out, func(i, j int) bool { return year(out[i]) < year(out[j]) })
	for i := 1; i < len(out); i++ {
		if year(out[i]) == year(out[i-1]) {
			errs = multierror.Append(errs, fmt.Errorf("%s: duplicate year %d", name, year(out[i])))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDataIntegrity, err)
	}
	return out, nil
}
