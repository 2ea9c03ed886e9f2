package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

// StartForecastRun records the start of a pipeline run and returns it.
func (s *Store) StartForecastRun(ctx context.Context) (*models.ForecastRun, error) {
	run := &models.ForecastRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO forecast_runs (id, started_at, success)
		VALUES (?, ?, FALSE)
	`, run.ID, run.StartedAt)
	if err != nil {
		return nil, storeErr("start forecast run", err)
	}
	return run, nil
}

// CompleteForecastRun updates the run with its outcome.
func (s *Store) CompleteForecastRun(ctx context.Context, run *models.ForecastRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt.Time = time.Now().UTC()
	run.FinishedAt.Valid = true

	_, err := s.db.ExecContext(ctx, `
		UPDATE forecast_runs SET
			finished_at = ?,
			success = ?,
			error_message = ?,
			temperature_rows = ?,
			sea_level_rows = ?,
			trend_equation = ?
		WHERE id = ?
	`, run.FinishedAt, run.Success, run.ErrorMessage, run.TemperatureRows,
		run.SeaLevelRows, run.TrendEquation, run.ID)
	if err != nil {
		return storeErr("complete forecast run", err)
	}
	return nil
}

// RecentForecastRuns returns the latest runs, newest first.
func (s *Store) RecentForecastRuns(ctx context.Context, limit int) ([]models.ForecastRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, success, error_message,
			   temperature_rows, sea_level_rows, trend_equation
		FROM forecast_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, storeErr("query forecast runs", err)
	}
	defer rows.Close()

	var results []models.ForecastRun
	for rows.Next() {
		var r models.ForecastRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Success, &r.ErrorMessage,
			&r.TemperatureRows, &r.SeaLevelRows, &r.TrendEquation); err != nil {
			return nil, storeErr("scan forecast run", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate forecast runs", err)
	}
	return results, nil
}
