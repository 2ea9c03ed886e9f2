package store

import (
	"context"
	"fmt"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/models"
)

// Tables lists user tables with their row counts.
func (s *Store) Tables(ctx context.Context) ([]models.TableStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, storeErr("list tables", err)
	}

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, storeErr("scan table name", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate tables", err)
	}

	tables := make([]models.TableStatus, 0, len(names))
	for _, name := range names {
		var count int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&count); err != nil {
			return nil, storeErr("count "+name, err)
		}
		tables = append(tables, models.TableStatus{Name: name, RowCount: count})
	}
	return tables, nil
}

// SizeBytes reports the database size from its page count. It works for
// in-memory databases too, which have no file to stat.
func (s *Store) SizeBytes(ctx context.Context) (int64, error) {
	var pages, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pages); err != nil {
		return 0, storeErr("page count", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, storeErr("page size", err)
	}
	return pages * pageSize, nil
}

func (s *Store) Columns(ctx context.Context, table string) ([]models.ColumnInfo, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", models.ErrDataIntegrity, table)
	}
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, storeErr("table info "+table, err)
	}
	defer rows.Close()

	var cols []models.ColumnInfo
	for rows.Next() {
		var (
			cid       int
			col       models.ColumnInfo
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dfltValue, &pk); err != nil {
			return nil, storeErr("scan table info "+table, err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate table info "+table, err)
	}
	return cols, nil
}

// SampleRows returns up to limit rows of table as column->value maps, ordered
// by year when the table has a year column. Blobs are summarised by size.
func (s *Store) SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	cols, err := s.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + quoteIdent(table)
	for _, c := range cols {
		if c.Name == "year" {
			query += " ORDER BY year"
			break
		}
	}
	query += " LIMIT ?"

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, storeErr("sample "+table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, storeErr("sample columns "+table, err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, storeErr("scan sample "+table, err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = fmt.Sprintf("<%d bytes>", len(b))
				continue
			}
			row[name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate sample "+table, err)
	}
	return out, nil
}
