package forecast

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/dataset"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/gbt"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/metrics"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/store"
)

const (
	DefaultStartYear        = 2025
	DefaultEndYear          = 2050
	DefaultTemperatureTable = "future_predictions"
	DefaultSeaLevelTable    = "sea_level_predictions"
)

type Config struct {
	StartYear        int
	EndYear          int
	TemperatureTable string
	SeaLevelTable    string
}

func DefaultConfig() Config {
	return Config{
		StartYear:        DefaultStartYear,
		EndYear:          DefaultEndYear,
		TemperatureTable: DefaultTemperatureTable,
		SeaLevelTable:    DefaultSeaLevelTable,
	}
}

// Pipeline loads the source tables, trains both hybrids and writes their
// anchored projections. Each run starts from scratch.
type Pipeline struct {
	store      *store.Store
	cfg        Config
	tempParams gbt.Params
	seaParams  gbt.Params
}

func NewPipeline(s *store.Store, cfg Config) *Pipeline {
	return &Pipeline{
		store:      s,
		cfg:        cfg,
		tempParams: TemperatureBoostParams(),
		seaParams:  SeaLevelBoostParams(),
	}
}

// SetBoostParams replaces the residual-model presets.
func (p *Pipeline) SetBoostParams(temp, sea gbt.Params) {
	p.tempParams = temp
	p.seaParams = sea
}

// Outcome is everything one run produced.
type Outcome struct {
	Rows             []dataset.Row
	SeaRows          []dataset.SeaRow
	TemperatureSplit dataset.Split[dataset.Row]
	SeaLevelSplit    dataset.Split[dataset.SeaRow]
	TemperatureModel *Hybrid
	SeaLevelModel    *Hybrid
	Temperature      *Result
	SeaLevel         *Result
}

// Train runs every stage except persistence.
func (p *Pipeline) Train(ctx context.Context) (*Outcome, error) {
	if err := ValidateConfig(p.cfg); err != nil {
		return nil, err
	}

	out := &Outcome{}
	err := stage("load", func() error {
		temps, err := p.store.Temperature(ctx)
		if err != nil {
			return fmt.Errorf("load temperature: %w", err)
		}
		co2, err := p.store.CO2(ctx)
		if err != nil {
			return fmt.Errorf("load co2: %w", err)
		}
		sea, err := p.store.SeaLevel(ctx)
		if err != nil {
			return fmt.Errorf("load sea level: %w", err)
		}

		out.Rows, err = dataset.Merge(temps, co2)
		if err != nil {
			return fmt.Errorf("merge temperature and co2: %w", err)
		}
		out.SeaRows, err = dataset.JoinSeaLevel(out.Rows, sea)
		if err != nil {
			return fmt.Errorf("join sea level: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("forecast: loaded %d temperature rows (%d-%d), %d sea-level rows",
		len(out.Rows), out.Rows[0].Year, out.Rows[len(out.Rows)-1].Year, len(out.SeaRows))

	out.TemperatureSplit = dataset.SplitRows(out.Rows)
	warnEmpty("temperature", out.TemperatureSplit.EmptyPartitions())
	out.SeaLevelSplit = dataset.SplitSeaRows(out.SeaRows)
	warnEmpty("sea level", out.SeaLevelSplit.EmptyPartitions())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = stage("temperature", func() error {
		m, err := TrainTemperature(out.TemperatureSplit.Train, p.tempParams)
		if err != nil {
			return err
		}
		out.TemperatureModel = m
		out.Temperature, err = PredictTemperature(m, out.Rows, p.cfg.StartYear, p.cfg.EndYear)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("temperature pipeline: %w", err)
	}
	log.Printf("forecast: temperature trend %s, anchor offset %.4f",
		out.TemperatureModel.Trend.Equation(), out.Temperature.Offset)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = stage("sea_level", func() error {
		m, err := TrainSeaLevel(out.SeaLevelSplit.Train, p.seaParams)
		if err != nil {
			return err
		}
		out.SeaLevelModel = m
		out.SeaLevel, err = PredictSeaLevel(m, out.SeaRows, out.Temperature.Years, out.Temperature.Anchored)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sea-level pipeline: %w", err)
	}
	log.Printf("forecast: sea-level trend %s, anchor offset %.4f",
		out.SeaLevelModel.Trend.Equation(), out.SeaLevel.Offset)

	return out, nil
}

// Run trains, persists both projections in one transaction and records the
// run in forecast_runs. Nothing is written to the prediction tables unless
// both pipelines succeed.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	start := time.Now()

	run, err := p.store.StartForecastRun(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("forecast: run %s started", run.ID)

	out, err := p.Train(ctx)
	if err == nil {
		err = stage("persist", func() error {
			return p.store.ReplacePredictionSets(ctx,
				store.PredictionSet{Table: p.cfg.TemperatureTable, Predictions: out.Temperature.Predictions()},
				store.PredictionSet{Table: p.cfg.SeaLevelTable, Predictions: out.SeaLevel.Predictions()},
			)
		})
	}

	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("failure").Inc()
		run.Success = false
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		if cerr := p.store.CompleteForecastRun(context.WithoutCancel(ctx), run); cerr != nil {
			log.Printf("forecast: failed to record run %s: %v", run.ID, cerr)
		}
		return nil, err
	}

	metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	metrics.LastSuccessfulRun.SetToCurrentTime()
	metrics.PredictionsWritten.WithLabelValues(p.cfg.TemperatureTable).Add(float64(len(out.Temperature.Years)))
	metrics.PredictionsWritten.WithLabelValues(p.cfg.SeaLevelTable).Add(float64(len(out.SeaLevel.Years)))

	run.Success = true
	run.TemperatureRows = sql.NullInt64{Int64: int64(len(out.Rows)), Valid: true}
	run.SeaLevelRows = sql.NullInt64{Int64: int64(len(out.SeaRows)), Valid: true}
	run.TrendEquation = sql.NullString{String: out.TemperatureModel.Trend.Equation(), Valid: true}
	if err := p.store.CompleteForecastRun(ctx, run); err != nil {
		return out, err
	}

	log.Printf("forecast: run %s wrote %d rows to %s and %d rows to %s in %v",
		run.ID, len(out.Temperature.Years), p.cfg.TemperatureTable,
		len(out.SeaLevel.Years), p.cfg.SeaLevelTable, time.Since(start).Round(time.Millisecond))
	return out, nil
}

// Evaluate scores both hybrids on every non-empty partition of their splits.
func (o *Outcome) Evaluate() (temperature, seaLevel []*Evaluation, err error) {
	tParts := []struct {
		label string
		rows  []dataset.Row
	}{
		{"Training", o.TemperatureSplit.Train},
		{"Validation", o.TemperatureSplit.Val},
		{"Testing", o.TemperatureSplit.Test},
	}
	for _, part := range tParts {
		if len(dataset.WithCO2(part.rows)) == 0 {
			continue
		}
		ev, err := EvaluateTemperature(o.TemperatureModel, part.label, part.rows)
		if err != nil {
			return nil, nil, err
		}
		temperature = append(temperature, ev)
	}

	sParts := []struct {
		label string
		rows  []dataset.SeaRow
	}{
		{"Training", o.SeaLevelSplit.Train},
		{"Validation", o.SeaLevelSplit.Val},
		{"Testing", o.SeaLevelSplit.Test},
	}
	for _, part := range sParts {
		if len(part.rows) == 0 {
			continue
		}
		ev, err := EvaluateSeaLevel(o.SeaLevelModel, part.label, part.rows)
		if err != nil {
			return nil, nil, err
		}
		seaLevel = append(seaLevel, ev)
	}
	return temperature, seaLevel, nil
}

func ValidateConfig(cfg Config) error {
	if _, err := FutureYears(cfg.StartYear, cfg.EndYear); err != nil {
		return err
	}
	if err := store.ValidatePredictionTable(cfg.TemperatureTable); err != nil {
		return fmt.Errorf("temperature table: %w", err)
	}
	if err := store.ValidatePredictionTable(cfg.SeaLevelTable); err != nil {
		return fmt.Errorf("sea-level table: %w", err)
	}
	if cfg.TemperatureTable == cfg.SeaLevelTable {
		return fmt.Errorf("%w: temperature and sea-level predictions share table %q",
			models.ErrDataIntegrity, cfg.TemperatureTable)
	}
	return nil
}

func stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

func warnEmpty(series string, parts []string) {
	for _, p := range parts {
		log.Printf("forecast: warning: %s %s split is empty", series, p)
	}
}
