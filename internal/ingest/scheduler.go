package ingest

import (
	"context"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/forecast"
)

// Runner is one forecast refresh. *forecast.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*forecast.Outcome, error)
}

// Scheduler refreshes the source tables and reruns the forecast pipeline on
// a fixed interval. Refreshes never overlap; a failed one leaves the previous
// predictions in place.
type Scheduler struct {
	runner   Runner
	importer *Importer
	sources  Sources
	interval time.Duration
	clock    clockwork.Clock
}

func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		clock:    clockwork.NewRealClock(),
	}
}

// SetImporter makes every refresh re-import src before forecasting.
func (s *Scheduler) SetImporter(im *Importer, src Sources) {
	s.importer = im
	s.sources = src
}

func (s *Scheduler) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	s.clock = c
}

// Run refreshes immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("scheduler: refreshing every %v", s.interval)
	s.refresh(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-ticker.Chan():
			s.refresh(ctx)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	start := s.clock.Now()

	if s.importer != nil && !s.sources.Empty() {
		if _, err := s.importer.Import(ctx, s.sources); err != nil {
			log.Printf("scheduler: import failed, keeping previous data: %v", err)
			return
		}
	}

	if _, err := s.runner.Run(ctx); err != nil {
		log.Printf("scheduler: forecast refresh failed: %v", err)
		return
	}
	log.Printf("scheduler: forecast refreshed in %v", s.clock.Since(start).Round(time.Millisecond))
}
