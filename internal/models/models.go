package models

import (
	"database/sql"
	"time"
)

type TemperatureRecord struct {
	Year           int
	AnthropogenicC float64 // °C
	ObservedC      float64 // °C anomaly
	AnthropogenicF float64 // W/m²
}

type CO2Record struct {
	Year int
	PPM  float64
}

type SeaLevelRecord struct {
	Year int
	GMSL float64 // mm relative to baseline
}

// Prediction is one persisted forecast row.
type Prediction struct {
	Year  int     `json:"year"`
	Value float64 `json:"prediction"`
}

type ForecastRun struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      sql.NullTime
	Success         bool
	ErrorMessage    sql.NullString
	TemperatureRows sql.NullInt64
	SeaLevelRows    sql.NullInt64
	TrendEquation   sql.NullString
}

type TableStatus struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
