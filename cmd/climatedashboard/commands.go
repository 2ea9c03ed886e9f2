package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/api"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/chart"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/forecast"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/ingest"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/narrative"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/news"
)

type ImportCmd struct {
	SourceFlags `embed:""`
}

func (c *ImportCmd) Run(g *Globals, ctx context.Context) error {
	st, db, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	summary, err := ingest.NewImporter(st, ingest.NewFetcher()).Import(ctx, c.sources())
	if err != nil {
		return err
	}
	printImportSummary(os.Stdout, summary)
	return nil
}

type ForecastCmd struct{}

func (c *ForecastCmd) Run(g *Globals, ctx context.Context) error {
	st, db, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	out, err := forecast.NewPipeline(st, g.forecastConfig()).Run(ctx)
	if err != nil {
		return err
	}
	printForecast(os.Stdout, out)
	return nil
}

type EvaluateCmd struct{}

func (c *EvaluateCmd) Run(g *Globals, ctx context.Context) error {
	st, db, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	out, err := forecast.NewPipeline(st, g.forecastConfig()).Train(ctx)
	if err != nil {
		return err
	}
	temps, seas, err := out.Evaluate()
	if err != nil {
		return err
	}
	printEvaluation(os.Stdout, out, temps, seas)
	return nil
}

type ServeCmd struct {
	Port            string        `help:"HTTP server port." env:"PORT" default:"5000"`
	RefreshInterval time.Duration `help:"Re-import and re-forecast on this interval (0 disables)." env:"REFRESH_INTERVAL" default:"0s"`
	NewsAPIKey      string        `name:"news-api-key" help:"NewsAPI key for /api/news." env:"NEWS_API_KEY"`
	NewsAPIURL      string        `name:"news-api-url" help:"NewsAPI search endpoint." env:"NEWS_API_URL" default:"${news_api_url}"`
	SourceFlags     `embed:""`
}

func (c *ServeCmd) Run(g *Globals, ctx context.Context) error {
	st, db, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	cfg := g.forecastConfig()
	if err := forecast.ValidateConfig(cfg); err != nil {
		return err
	}

	if c.RefreshInterval > 0 {
		scheduler := ingest.NewScheduler(forecast.NewPipeline(st, cfg), c.RefreshInterval)
		if src := c.sources(); !src.Empty() {
			scheduler.SetImporter(ingest.NewImporter(st, ingest.NewFetcher()), src)
		}
		go scheduler.Run(ctx)
	} else {
		log.Println("scheduled refresh disabled")
	}

	if c.NewsAPIKey == "" {
		log.Println("NEWS_API_KEY not set, /api/news will serve a placeholder")
	}

	server := api.NewServer(st, c.Port, api.Tables{Temperature: cfg.TemperatureTable, SeaLevel: cfg.SeaLevelTable})
	server.SetDatabasePath(g.DB)
	server.SetNews(news.NewClient(c.NewsAPIURL, c.NewsAPIKey))
	return server.Run(ctx)
}

type PlotCmd struct {
	Out string `help:"Directory for PNG charts." default:"plots" type:"path"`
}

func (c *PlotCmd) Run(g *Globals, ctx context.Context) error {
	st, db, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	temps, err := st.Temperature(ctx)
	if err != nil {
		return err
	}
	tempPreds, err := st.Predictions(ctx, g.TemperatureTable)
	if err != nil {
		return err
	}
	p, err := chart.Temperature(temps, tempPreds)
	if err != nil {
		return err
	}
	tempPath := filepath.Join(c.Out, "temperature.png")
	if err := chart.Save(p, tempPath); err != nil {
		return err
	}

	sea, err := st.SeaLevel(ctx)
	if err != nil {
		return err
	}
	seaPreds, err := st.Predictions(ctx, g.SeaLevelTable)
	if err != nil {
		return err
	}
	p, err = chart.SeaLevel(sea, seaPreds)
	if err != nil {
		return err
	}
	seaPath := filepath.Join(c.Out, "sea_level.png")
	if err := chart.Save(p, seaPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s\n", tempPath, seaPath)
	return nil
}

type SummaryCmd struct {
	OpenAIAPIKey string `name:"openai-api-key" help:"OpenAI API key." env:"OPENAI_API_KEY"`
}

func (c *SummaryCmd) Run(g *Globals, ctx context.Context) error {
	summarizer, err := narrative.NewSummarizer(c.OpenAIAPIKey)
	if err != nil {
		return err
	}

	st, db, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var facts narrative.Facts
	if facts.Temperature, err = st.Predictions(ctx, g.TemperatureTable); err != nil {
		return err
	}
	if facts.SeaLevel, err = st.Predictions(ctx, g.SeaLevelTable); err != nil {
		return err
	}

	text, err := summarizer.Summarize(ctx, facts)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

type ArchiveCmd struct {
	Hash string `arg:"" optional:"" help:"SHA-256 of an archived file to print."`
}

func (c *ArchiveCmd) Run(g *Globals, ctx context.Context) error {
	st, db, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Hash == "" {
		stats, err := st.SourcePayloadStats(ctx)
		if err != nil {
			return err
		}
		printArchiveStats(os.Stdout, stats)
		return nil
	}

	p, err := st.SourcePayloadByHash(ctx, c.Hash)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("no archived file with hash %s", c.Hash)
	}
	body, err := st.SourcePayloadData(ctx, p.ID)
	if err != nil {
		return err
	}
	log.Printf("archive: %s from %s fetched %s", p.Source, p.Location, p.FetchedAt.Format(time.RFC3339))
	_, err = os.Stdout.Write(body)
	return err
}
