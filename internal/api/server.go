package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/metrics"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/news"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/store"
)

// Tables names the prediction tables the API reads from.
type Tables struct {
	Temperature string
	SeaLevel    string
}

type Server struct {
	store  *store.Store
	port   string
	tables Tables
	dbPath string
	news   *news.Client
}

func NewServer(store *store.Store, port string, tables Tables) *Server {
	return &Server{
		store:  store,
		port:   port,
		tables: tables,
	}
}

// SetDatabasePath records where the database lives for the admin status
// endpoint.
func (s *Server) SetDatabasePath(path string) {
	s.dbPath = path
}

// SetNews enables /api/news. Without a client the endpoint serves its
// fallback article.
func (s *Server) SetNews(c *news.Client) {
	s.news = c
}

type route struct {
	method      string
	path        string
	description string
	handler     http.HandlerFunc
}

func (s *Server) routes() []route {
	return []route{
		{"GET", "/health", "Migration version and last forecast run", s.handleHealth},
		{"GET", "/api/temperature", "Get historical temperature data", s.handleTemperature},
		{"GET", "/api/sea-level", "Get historical sea level data", s.handleSeaLevel},
		{"GET", "/api/temperature-predictions", "Get temperature predictions", s.handlePredictions(s.tables.Temperature)},
		{"GET", "/api/sea-level-predictions", "Get sea level predictions", s.handlePredictions(s.tables.SeaLevel)},
		{"GET", "/api/news", "Get recent climate change news articles", s.handleNews},
		{"GET", "/api/forecast-runs", "Recent forecast pipeline runs", s.handleForecastRuns},
		{"GET", "/api/admin/database-status", "Check database connection status", s.handleDatabaseStatus},
		{"GET", "/api/admin/read-database", "Read a sample of every table", s.handleReadDatabase},
		{"GET", "/api/admin/api-details", "Get API details and configuration", s.handleAPIDetails},
		{"GET", "/metrics", "Prometheus metrics", promhttp.Handler().ServeHTTP},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, rt := range s.routes() {
		s.handle(mux, rt.method+" "+rt.path, rt.handler)
	}
	return mux
}

// handle registers fn behind the CORS header and request counter.
func (s *Server) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		rec.Header().Set("Access-Control-Allow-Origin", "*")
		fn(rec, r)
		metrics.APIRequestsTotal.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
	})
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
