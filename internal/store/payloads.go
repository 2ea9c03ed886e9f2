package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"
)

// SourcePayload is one archived source file as fetched during an import.
type SourcePayload struct {
	ID          int64
	FetchedAt   time.Time
	Source      string
	Location    string
	PayloadHash string
	SizeBytes   int64
}

// PayloadStats summarises the source_payloads archive.
type PayloadStats struct {
	TotalCount      int            `json:"total_count"`
	TotalSizeBytes  int64          `json:"total_size_bytes"`
	OldestFetchedAt time.Time      `json:"oldest_fetched_at"`
	NewestFetchedAt time.Time      `json:"newest_fetched_at"`
	CountBySource   map[string]int `json:"count_by_source"`
}

func payloadHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// StoreSourcePayload archives a gzipped copy of payload. Returns the new ID,
// or 0 if an identical payload is already stored.
func (s *Store) StoreSourcePayload(ctx context.Context, source, location string, payload []byte) (int64, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return 0, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("close gzip: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO source_payloads (fetched_at, source, location, payload_compressed, payload_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(payload_hash) DO NOTHING
	`, time.Now().UTC(), source, location, buf.Bytes(), payloadHash(payload))
	if err != nil {
		return 0, storeErr("insert source payload", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr("insert source payload", err)
	}
	if n == 0 {
		return 0, nil
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, storeErr("insert source payload", err)
	}
	return id, nil
}

// SourcePayloadData returns the decompressed payload with the given ID.
func (s *Store) SourcePayloadData(ctx context.Context, id int64) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload_compressed FROM source_payloads WHERE id = ?`, id).
		Scan(&compressed)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get source payload %d", id), err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// SourcePayloadByHash looks up a payload by the SHA-256 of its uncompressed
// bytes. Returns nil if none is stored.
func (s *Store) SourcePayloadByHash(ctx context.Context, hash string) (*SourcePayload, error) {
	var p SourcePayload
	err := s.db.QueryRowContext(ctx, `
		SELECT id, fetched_at, source, location, payload_hash, LENGTH(payload_compressed)
		FROM source_payloads WHERE payload_hash = ?
	`, hash).Scan(&p.ID, &p.FetchedAt, &p.Source, &p.Location, &p.PayloadHash, &p.SizeBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get source payload by hash", err)
	}
	return &p, nil
}

func (s *Store) SourcePayloadStats(ctx context.Context) (*PayloadStats, error) {
	stats := &PayloadStats{CountBySource: make(map[string]int)}

	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(payload_compressed)), 0),
		       MIN(fetched_at), MAX(fetched_at)
		FROM source_payloads
	`).Scan(&stats.TotalCount, &stats.TotalSizeBytes, &oldest, &newest)
	if err != nil {
		return nil, storeErr("source payload stats", err)
	}
	stats.OldestFetchedAt = parseSQLiteTime(oldest)
	stats.NewestFetchedAt = parseSQLiteTime(newest)

	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM source_payloads GROUP BY source`)
	if err != nil {
		return nil, storeErr("source payload counts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, storeErr("scan source payload counts", err)
		}
		stats.CountBySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate source payload counts", err)
	}
	return stats, nil
}

// CleanupSourcePayloads deletes archived payloads fetched more than
// retentionDays ago and returns how many were removed.
func (s *Store) CleanupSourcePayloads(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	result, err := s.db.ExecContext(ctx, `DELETE FROM source_payloads WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, storeErr("cleanup source payloads", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr("cleanup source payloads", err)
	}
	return n, nil
}

// parseSQLiteTime reads MIN/MAX aggregates, which lose the DATETIME column
// type and come back as text.
func parseSQLiteTime(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02 15:04:05.999999999 -0700 MST", "2006-01-02 15:04:05.999999999-07:00", time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v.String); err == nil {
			return t
		}
	}
	return time.Time{}
}
