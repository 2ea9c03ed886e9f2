package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/forecast"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/ingest"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/news"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/store"
)

// Globals are shared by every command.
type Globals struct {
	DB               string `help:"Path to SQLite database." env:"DB_PATH" default:"data/climate.db"`
	ForecastStart    int    `help:"First forecast year." env:"FORECAST_START" default:"2025"`
	ForecastEnd      int    `help:"Last forecast year." env:"FORECAST_END" default:"2050"`
	TemperatureTable string `help:"Table for temperature predictions." env:"TEMPERATURE_TABLE" default:"future_predictions"`
	SeaLevelTable    string `help:"Table for sea-level predictions." env:"SEA_LEVEL_TABLE" default:"sea_level_predictions"`
}

func (g *Globals) forecastConfig() forecast.Config {
	return forecast.Config{
		StartYear:        g.ForecastStart,
		EndYear:          g.ForecastEnd,
		TemperatureTable: g.TemperatureTable,
		SeaLevelTable:    g.SeaLevelTable,
	}
}

// openStore opens and migrates the database. The caller closes the returned DB.
func (g *Globals) openStore(ctx context.Context) (*store.Store, *sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(g.DB), 0o755); err != nil {
		return nil, nil, err
	}
	db, err := store.Open(g.DB)
	if err != nil {
		return nil, nil, err
	}
	st := store.New(db)
	if err := st.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return st, db, nil
}

// SourceFlags locate the source CSVs for import and scheduled refresh.
type SourceFlags struct {
	TemperatureCSV string `help:"Temperature CSV path or URL." env:"TEMPERATURE_CSV"`
	CO2CSV         string `name:"co2-csv" help:"CO2 concentration CSV path or URL." env:"CO2_CSV"`
	SeaLevelCSV    string `help:"Sea-level CSV path or URL." env:"SEA_LEVEL_CSV"`
}

func (f SourceFlags) sources() ingest.Sources {
	return ingest.Sources{Temperature: f.TemperatureCSV, CO2: f.CO2CSV, SeaLevel: f.SeaLevelCSV}
}

type CLI struct {
	Globals `embed:""`

	Import   ImportCmd   `cmd:"" help:"Load source CSVs into the database."`
	Forecast ForecastCmd `cmd:"" help:"Train both models and write the anchored forecasts."`
	Evaluate EvaluateCmd `cmd:"" help:"Train both models and report metrics without writing."`
	Serve    ServeCmd    `cmd:"" help:"Serve the JSON API."`
	Plot     PlotCmd     `cmd:"" help:"Render stored forecasts as PNG charts."`
	Summary  SummaryCmd  `cmd:"" help:"Write a plain-language summary of stored forecasts."`
	Archive  ArchiveCmd  `cmd:"" help:"Show archived source files, or print one by hash."`
}

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: load .env: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("climatedashboard"),
		kong.Description("Hybrid trend + gradient-boosted climate forecasts."),
		kong.UsageOnError(),
		kong.Vars{"news_api_url": news.DefaultURL},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	start := time.Now()
	err := kctx.Run(&cli.Globals)
	if err != nil {
		log.Printf("%s failed after %v", kctx.Command(), time.Since(start).Round(time.Millisecond))
	}
	kctx.FatalIfErrorf(err)
}
