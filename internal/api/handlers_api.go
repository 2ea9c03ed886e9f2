package api

import (
	"context"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/news"
)

const (
	forecastRunsLimit = 20
	newsTimeout       = 10 * time.Second
)

// nullable encodes NaN as JSON null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type TemperatureResponse struct {
	Years          []int      `json:"years"`
	ObservedC      []*float64 `json:"observed_c"`
	AnthropogenicC []*float64 `json:"anthropogenic_c"`
}

type SeaLevelResponse struct {
	Years []int      `json:"years"`
	GMSL  []*float64 `json:"gmsl"`
}

type PredictionsResponse struct {
	Years       []int      `json:"years"`
	Predictions []*float64 `json:"predictions"`
}

type HealthStatus struct {
	Status           string     `json:"status"`
	MigrationVersion int        `json:"migration_version"`
	LastRun          *RunStatus `json:"last_run,omitempty"`
}

type RunStatus struct {
	ID              string     `json:"id"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	Success         bool       `json:"success"`
	Error           string     `json:"error,omitempty"`
	TemperatureRows int64      `json:"temperature_rows"`
	SeaLevelRows    int64      `json:"sea_level_rows"`
	TrendEquation   string     `json:"trend_equation,omitempty"`
}

func runStatus(r models.ForecastRun) RunStatus {
	rs := RunStatus{
		ID:              r.ID,
		StartedAt:       r.StartedAt,
		Success:         r.Success,
		Error:           r.ErrorMessage.String,
		TemperatureRows: r.TemperatureRows.Int64,
		SeaLevelRows:    r.SeaLevelRows.Int64,
		TrendEquation:   r.TrendEquation.String,
	}
	if r.FinishedAt.Valid {
		t := r.FinishedAt.Time
		rs.FinishedAt = &t
	}
	return rs
}

type NewsResponse struct {
	Articles []news.Article `json:"articles"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version, err := s.store.MigrationVersion(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
		return
	}

	health := HealthStatus{Status: "ok", MigrationVersion: version}
	runs, err := s.store.RecentForecastRuns(r.Context(), 1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(runs) > 0 {
		rs := runStatus(runs[0])
		health.LastRun = &rs
		if !rs.Success {
			health.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Temperature(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := TemperatureResponse{
		Years:          make([]int, len(records)),
		ObservedC:      make([]*float64, len(records)),
		AnthropogenicC: make([]*float64, len(records)),
	}
	for i, rec := range records {
		resp.Years[i] = rec.Year
		resp.ObservedC[i] = nullable(rec.ObservedC)
		resp.AnthropogenicC[i] = nullable(rec.AnthropogenicC)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSeaLevel(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.SeaLevel(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := SeaLevelResponse{
		Years: make([]int, len(records)),
		GMSL:  make([]*float64, len(records)),
	}
	for i, rec := range records {
		resp.Years[i] = rec.Year
		resp.GMSL[i] = nullable(rec.GMSL)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredictions(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		preds, err := s.store.Predictions(r.Context(), table)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp := PredictionsResponse{
			Years:       make([]int, len(preds)),
			Predictions: make([]*float64, len(preds)),
		}
		for i, p := range preds {
			resp.Years[i] = p.Year
			resp.Predictions[i] = nullable(p.Value)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleForecastRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.RecentForecastRuns(r.Context(), forecastRunsLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]RunStatus, len(runs))
	for i, run := range runs {
		out[i] = runStatus(run)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleNews proxies recent headlines. Upstream failures are reported as a
// single system article so the news panel still renders.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), newsTimeout)
	defer cancel()

	articles, err := s.latestNews(ctx)
	if err != nil {
		log.Printf("api: news: %v", err)
		articles = []news.Article{{
			Title:       "News unavailable",
			Description: "Could not fetch news: " + err.Error(),
			URL:         "#",
			PublishedAt: time.Now().UTC().Format(time.RFC3339),
			Source:      "System",
		}}
	}
	writeJSON(w, http.StatusOK, NewsResponse{Articles: articles})
}

func (s *Server) latestNews(ctx context.Context) ([]news.Article, error) {
	if s.news == nil {
		return nil, news.ErrNoAPIKey
	}
	return s.news.Latest(ctx)
}
