package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens a SQLite database at path with the pragmas the service expects.
// The caller must have imported a driver registered as "sqlite".
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeErr("open database", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, storeErr("set journal mode", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, storeErr("set busy timeout", err)
	}
	return db, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrExternalStore, err)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Source and bookkeeping tables that prediction writes must never replace.
var reservedTables = map[string]bool{
	"temperature":       true,
	"co2_concentration": true,
	"sea_level":         true,
	"schema_migrations": true,
	"forecast_runs":     true,
	"source_payloads":   true,
}

// ValidatePredictionTable rejects names that are not plain SQL identifiers
// or that would clobber a source table.
func ValidatePredictionTable(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: invalid table name %q", models.ErrDataIntegrity, name)
	}
	if reservedTables[name] {
		return fmt.Errorf("%w: table %q is reserved", models.ErrDataIntegrity, name)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func nanToNull(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Temperature returns every temperature row ordered by year. NULL columns are
// returned as NaN so validation can report them.
func (s *Store) Temperature(ctx context.Context) ([]models.TemperatureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, anthropogenic_c, observed_c, anthropogenic_f
		FROM temperature
		ORDER BY year ASC
	`)
	if err != nil {
		return nil, storeErr("query temperature", err)
	}
	defer rows.Close()

	var records []models.TemperatureRecord
	for rows.Next() {
		var r models.TemperatureRecord
		var anthroC, observed, anthroF sql.NullFloat64
		if err := rows.Scan(&r.Year, &anthroC, &observed, &anthroF); err != nil {
			return nil, storeErr("scan temperature", err)
		}
		r.AnthropogenicC = nullToNaN(anthroC)
		r.ObservedC = nullToNaN(observed)
		r.AnthropogenicF = nullToNaN(anthroF)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate temperature", err)
	}
	return records, nil
}

func (s *Store) CO2(ctx context.Context) ([]models.CO2Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT year, co2_ppm FROM co2_concentration ORDER BY year ASC`)
	if err != nil {
		return nil, storeErr("query co2_concentration", err)
	}
	defer rows.Close()

	var records []models.CO2Record
	for rows.Next() {
		var r models.CO2Record
		var ppm sql.NullFloat64
		if err := rows.Scan(&r.Year, &ppm); err != nil {
			return nil, storeErr("scan co2_concentration", err)
		}
		r.PPM = nullToNaN(ppm)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate co2_concentration", err)
	}
	return records, nil
}

func (s *Store) SeaLevel(ctx context.Context) ([]models.SeaLevelRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT year, gmsl FROM sea_level ORDER BY year ASC`)
	if err != nil {
		return nil, storeErr("query sea_level", err)
	}
	defer rows.Close()

	var records []models.SeaLevelRecord
	for rows.Next() {
		var r models.SeaLevelRecord
		var gmsl sql.NullFloat64
		if err := rows.Scan(&r.Year, &gmsl); err != nil {
			return nil, storeErr("scan sea_level", err)
		}
		r.GMSL = nullToNaN(gmsl)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate sea_level", err)
	}
	return records, nil
}

// ReplaceTemperature swaps the full contents of the temperature table.
func (s *Store) ReplaceTemperature(ctx context.Context, records []models.TemperatureRecord) error {
	return s.ReplaceSources(ctx, SourceData{Temperature: records})
}

func (s *Store) ReplaceCO2(ctx context.Context, records []models.CO2Record) error {
	return s.ReplaceSources(ctx, SourceData{CO2: records})
}

func (s *Store) ReplaceSeaLevel(ctx context.Context, records []models.SeaLevelRecord) error {
	return s.ReplaceSources(ctx, SourceData{SeaLevel: records})
}

// SourceData carries new contents for the source tables. A nil slice leaves
// that table alone.
type SourceData struct {
	Temperature []models.TemperatureRecord
	CO2         []models.CO2Record
	SeaLevel    []models.SeaLevelRecord
}

// ReplaceSources swaps the contents of every table set in data within one
// transaction.
func (s *Store) ReplaceSources(ctx context.Context, data SourceData) error {
	return s.withTx(ctx, "replace sources", func(tx *sql.Tx) error {
		if data.Temperature != nil {
			if _, err := tx.ExecContext(ctx, "DELETE FROM temperature"); err != nil {
				return err
			}
			for _, r := range data.Temperature {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO temperature (year, anthropogenic_c, observed_c, anthropogenic_f) VALUES (?, ?, ?, ?)",
					r.Year, nanToNull(r.AnthropogenicC), nanToNull(r.ObservedC), nanToNull(r.AnthropogenicF),
				); err != nil {
					return fmt.Errorf("temperature: insert year %d: %w", r.Year, err)
				}
			}
		}

		if data.CO2 != nil {
			if _, err := tx.ExecContext(ctx, "DELETE FROM co2_concentration"); err != nil {
				return err
			}
			for _, r := range data.CO2 {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO co2_concentration (year, co2_ppm) VALUES (?, ?)",
					r.Year, nanToNull(r.PPM),
				); err != nil {
					return fmt.Errorf("co2_concentration: insert year %d: %w", r.Year, err)
				}
			}
		}

		if data.SeaLevel != nil {
			if _, err := tx.ExecContext(ctx, "DELETE FROM sea_level"); err != nil {
				return err
			}
			for _, r := range data.SeaLevel {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO sea_level (year, gmsl) VALUES (?, ?)",
					r.Year, nanToNull(r.GMSL),
				); err != nil {
					return fmt.Errorf("sea_level: insert year %d: %w", r.Year, err)
				}
			}
		}
		return nil
	})
}

// PredictionSet is the full contents of one prediction table.
type PredictionSet struct {
	Table       string
	Predictions []models.Prediction
}

// ReplacePredictions drops and rebuilds table with preds inside a single
// transaction. On failure the previous contents are left untouched.
func (s *Store) ReplacePredictions(ctx context.Context, table string, preds []models.Prediction) error {
	return s.ReplacePredictionSets(ctx, PredictionSet{Table: table, Predictions: preds})
}

// ReplacePredictionSets rebuilds every table in sets within one transaction,
// so either all of them change or none do.
func (s *Store) ReplacePredictionSets(ctx context.Context, sets ...PredictionSet) error {
	names := make([]string, 0, len(sets))
	for _, set := range sets {
		if err := ValidatePredictionTable(set.Table); err != nil {
			return err
		}
		for _, p := range set.Predictions {
			if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
				return fmt.Errorf("%w: %s: non-finite prediction for year %d", models.ErrDataIntegrity, set.Table, p.Year)
			}
		}
		names = append(names, set.Table)
	}

	return s.withTx(ctx, "replace "+strings.Join(names, ", "), func(tx *sql.Tx) error {
		for _, set := range sets {
			name := quoteIdent(set.Table)
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, "CREATE TABLE "+name+" (year INTEGER PRIMARY KEY, prediction REAL)"); err != nil {
				return err
			}
			for _, p := range set.Predictions {
				if _, err := tx.ExecContext(ctx, "INSERT INTO "+name+" (year, prediction) VALUES (?, ?)", p.Year, p.Value); err != nil {
					return fmt.Errorf("%s: insert year %d: %w", set.Table, p.Year, err)
				}
			}
		}
		return nil
	})
}

// Predictions reads a prediction table ordered by year.
func (s *Store) Predictions(ctx context.Context, table string) ([]models.Prediction, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", models.ErrDataIntegrity, table)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT year, prediction FROM "+quoteIdent(table)+" ORDER BY year ASC")
	if err != nil {
		return nil, storeErr("query "+table, err)
	}
	defer rows.Close()

	var preds []models.Prediction
	for rows.Next() {
		var p models.Prediction
		var v sql.NullFloat64
		if err := rows.Scan(&p.Year, &v); err != nil {
			return nil, storeErr("scan "+table, err)
		}
		p.Value = nullToNaN(v)
		preds = append(preds, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate "+table, err)
	}
	return preds, nil
}

func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(op+": begin tx", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return storeErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(op+": commit", err)
	}
	return nil
}
