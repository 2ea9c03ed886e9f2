package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/hashicorp/go-multierror"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/metrics"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/store"
)

// Sources are the locations of the three source CSVs. Empty entries are
// skipped.
type Sources struct {
	Temperature string
	CO2         string
	SeaLevel    string
}

func (s Sources) Empty() bool {
	return s.Temperature == "" && s.CO2 == "" && s.SeaLevel == ""
}

type ImportSummary struct {
	TemperatureRows int
	CO2Rows         int
	SeaLevelRows    int
	Flags           []string
}

// payloadRetentionDays bounds how long raw source files stay archived.
const payloadRetentionDays = 365

type Importer struct {
	store   *store.Store
	fetcher *Fetcher
}

// fetched is one raw source file awaiting archive.
type fetched struct {
	source   string
	location string
	body     []byte
}

func NewImporter(s *store.Store, f *Fetcher) *Importer {
	return &Importer{store: s, fetcher: f}
}

// Import fetches and parses every configured source, then replaces the
// matching tables in one transaction. Nothing is written if any source fails.
func (im *Importer) Import(ctx context.Context, src Sources) (*ImportSummary, error) {
	if src.Empty() {
		return nil, fmt.Errorf("import: no sources configured")
	}

	var (
		data store.SourceData
		errs *multierror.Error
		raws []fetched
	)

	if src.Temperature != "" {
		body, err := im.fetcher.Fetch(ctx, src.Temperature)
		if err == nil {
			data.Temperature, err = ParseTemperature(bytes.NewReader(body))
			raws = append(raws, fetched{"temperature", src.Temperature, body})
		}
		errs = multierror.Append(errs, wrapSource("temperature", src.Temperature, err))
	}
	if src.CO2 != "" {
		body, err := im.fetcher.Fetch(ctx, src.CO2)
		if err == nil {
			data.CO2, err = ParseCO2(bytes.NewReader(body))
			raws = append(raws, fetched{"co2_concentration", src.CO2, body})
		}
		errs = multierror.Append(errs, wrapSource("co2", src.CO2, err))
	}
	if src.SeaLevel != "" {
		body, err := im.fetcher.Fetch(ctx, src.SeaLevel)
		if err == nil {
			data.SeaLevel, err = ParseSeaLevel(bytes.NewReader(body))
			raws = append(raws, fetched{"sea_level", src.SeaLevel, body})
		}
		errs = multierror.Append(errs, wrapSource("sea level", src.SeaLevel, err))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	summary := &ImportSummary{
		TemperatureRows: len(data.Temperature),
		CO2Rows:         len(data.CO2),
		SeaLevelRows:    len(data.SeaLevel),
	}
	summary.Flags = append(summary.Flags, CheckTemperature(data.Temperature)...)
	summary.Flags = append(summary.Flags, CheckCO2(data.CO2)...)
	summary.Flags = append(summary.Flags, CheckSeaLevel(data.SeaLevel)...)
	for _, f := range summary.Flags {
		log.Printf("import: warning: %s", f)
	}

	if err := im.store.ReplaceSources(ctx, data); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	im.archive(ctx, raws)

	metrics.SourceRowsImported.WithLabelValues("temperature").Add(float64(summary.TemperatureRows))
	metrics.SourceRowsImported.WithLabelValues("co2_concentration").Add(float64(summary.CO2Rows))
	metrics.SourceRowsImported.WithLabelValues("sea_level").Add(float64(summary.SeaLevelRows))
	log.Printf("import: replaced temperature=%d co2=%d sea_level=%d rows",
		summary.TemperatureRows, summary.CO2Rows, summary.SeaLevelRows)
	return summary, nil
}

// archive keeps a compressed copy of each imported file. Failures are logged;
// the import itself has already committed.
func (im *Importer) archive(ctx context.Context, raws []fetched) {
	for _, r := range raws {
		id, err := im.store.StoreSourcePayload(ctx, r.source, r.location, r.body)
		if err != nil {
			log.Printf("import: archive %s: %v", r.source, err)
			continue
		}
		if id == 0 {
			log.Printf("import: %s unchanged since last archive", r.source)
		}
	}
	if n, err := im.store.CleanupSourcePayloads(ctx, payloadRetentionDays); err != nil {
		log.Printf("import: cleanup archived payloads: %v", err)
	} else if n > 0 {
		log.Printf("import: removed %d archived payloads older than %d days", n, payloadRetentionDays)
	}
}

func wrapSource(name, location string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s (%s): %w", name, location, err)
}
