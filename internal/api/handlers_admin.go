package api

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/news"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/store"
)

// sampleLimit caps rows per table in /api/admin/read-database.
const sampleLimit = 100

const newsCheckTimeout = 5 * time.Second

type DatabaseStatus struct {
	Status         string              `json:"status"`
	Connected      bool                `json:"connected"`
	DatabasePath   string              `json:"database_path"`
	DatabaseExists bool                `json:"database_exists"`
	SizeBytes      int64               `json:"database_size_bytes"`
	SizeMB         float64             `json:"database_size_mb"`
	Tables         []string            `json:"tables"`
	TableCounts    map[string]int64    `json:"table_counts"`
	SourceArchive  *store.PayloadStats `json:"source_archive,omitempty"`
	Error          string              `json:"error,omitempty"`
	Message        string              `json:"message"`
}

type TableSnapshot struct {
	Columns     []models.ColumnInfo `json:"columns"`
	RowCount    int64               `json:"row_count"`
	SampleData  []map[string]any    `json:"sample_data"`
	ShowingRows int                 `json:"showing_rows"`
	TotalRows   int64               `json:"total_rows"`
}

type DatabaseContents struct {
	Status  string                   `json:"status"`
	Tables  []string                 `json:"tables"`
	Data    map[string]TableSnapshot `json:"data"`
	Error   string                   `json:"error,omitempty"`
	Message string                   `json:"message"`
}

type Endpoint struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

type ServerInfo struct {
	GoVersion   string `json:"go_version"`
	CORSEnabled bool   `json:"cors_enabled"`
}

type APIDetails struct {
	Status         string      `json:"status"`
	APIBaseURL     string      `json:"api_base_url"`
	TotalEndpoints int         `json:"total_endpoints"`
	Endpoints      []Endpoint  `json:"endpoints"`
	NewsAPI        news.Status `json:"news_api"`
	ServerInfo     ServerInfo  `json:"server_info"`
}

func (s *Server) databaseExists() bool {
	if s.dbPath == "" || s.dbPath == ":memory:" {
		return false
	}
	_, err := os.Stat(s.dbPath)
	return err == nil
}

func (s *Server) handleDatabaseStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.databaseStatus(r.Context())
	if err != nil {
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, DatabaseStatus{
			Status:         "error",
			DatabasePath:   s.dbPath,
			DatabaseExists: s.databaseExists(),
			Error:          err.Error(),
			Message:        "Database connection failed: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) databaseStatus(ctx context.Context) (*DatabaseStatus, error) {
	tables, err := s.store.Tables(ctx)
	if err != nil {
		return nil, err
	}
	size, err := s.store.SizeBytes(ctx)
	if err != nil {
		return nil, err
	}
	archive, err := s.store.SourcePayloadStats(ctx)
	if err != nil {
		return nil, err
	}

	status := &DatabaseStatus{
		Status:         "success",
		Connected:      true,
		DatabasePath:   s.dbPath,
		DatabaseExists: s.databaseExists(),
		SizeBytes:      size,
		SizeMB:         math.Round(float64(size)/(1024*1024)*100) / 100,
		Tables:         make([]string, len(tables)),
		TableCounts:    make(map[string]int64, len(tables)),
		SourceArchive:  archive,
		Message:        fmt.Sprintf("Database connected successfully. Found %d tables.", len(tables)),
	}
	for i, t := range tables {
		status.Tables[i] = t.Name
		status.TableCounts[t.Name] = t.RowCount
	}
	return status, nil
}

func (s *Server) handleReadDatabase(w http.ResponseWriter, r *http.Request) {
	contents, err := s.readDatabase(r.Context())
	if err != nil {
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, DatabaseContents{
			Status:  "error",
			Error:   err.Error(),
			Message: "Failed to read database: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, contents)
}

func (s *Server) readDatabase(ctx context.Context) (*DatabaseContents, error) {
	tables, err := s.store.Tables(ctx)
	if err != nil {
		return nil, err
	}

	contents := &DatabaseContents{
		Status:  "success",
		Tables:  make([]string, len(tables)),
		Data:    make(map[string]TableSnapshot, len(tables)),
		Message: fmt.Sprintf("Successfully read %d tables", len(tables)),
	}
	for i, t := range tables {
		cols, err := s.store.Columns(ctx, t.Name)
		if err != nil {
			return nil, err
		}
		rows, err := s.store.SampleRows(ctx, t.Name, sampleLimit)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []map[string]any{}
		}
		contents.Tables[i] = t.Name
		contents.Data[t.Name] = TableSnapshot{
			Columns:     cols,
			RowCount:    t.RowCount,
			SampleData:  rows,
			ShowingRows: len(rows),
			TotalRows:   t.RowCount,
		}
	}
	return contents, nil
}

func (s *Server) handleAPIDetails(w http.ResponseWriter, r *http.Request) {
	routes := s.routes()
	endpoints := make([]Endpoint, len(routes))
	for i, rt := range routes {
		endpoints[i] = Endpoint{Path: rt.path, Method: rt.method, Description: rt.description}
	}

	writeJSON(w, http.StatusOK, APIDetails{
		Status:         "success",
		APIBaseURL:     "http://" + r.Host,
		TotalEndpoints: len(endpoints),
		Endpoints:      endpoints,
		NewsAPI:        s.newsStatus(r.Context()),
		ServerInfo:     ServerInfo{GoVersion: runtime.Version(), CORSEnabled: true},
	})
}

func (s *Server) newsStatus(ctx context.Context) news.Status {
	if s.news == nil {
		return news.Status{Status: "unconfigured", Message: "news client disabled"}
	}
	ctx, cancel := context.WithTimeout(ctx, newsCheckTimeout)
	defer cancel()
	return s.news.Check(ctx)
}
