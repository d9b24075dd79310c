package store

import (
	"context"
	"fmt"

	"github.com/roach88/wurm/internal/sqlgen"
)

// Rows is a fully read result set. Each row holds one value per selected
// column as returned by the driver: nil, int64, float64, string or []byte.
type Rows [][]any

// Query runs a statement and reads every row it returns.
//
// Rows are buffered before Query returns so the single connection is free
// again when the caller processes them. Failures are translated like Exec's.
func (s *Store) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("query", "stmt", query, "args", len(args))

	stmt, err := s.prepare(ctx, query)
	if err != nil {
		return nil, translate(err, "prepare statement")
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, translate(err, "execute query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, translate(err, "read columns")
	}

	var out Rows
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, translate(err, "scan row")
		}
		out = append(out, values)
	}

	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate rows")
	}

	return out, nil
}

// TableInfo describes one table in the database.
type TableInfo struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// Tables lists the user tables of the database with their row counts,
// ordered by name.
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.Query(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	// Return empty slice instead of nil
	tables := make([]TableInfo, 0, len(rows))
	for _, row := range rows {
		name, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("list tables: unexpected name %T", row[0])
		}
		counted, err := s.Query(ctx, "SELECT COUNT(*) FROM "+sqlgen.Quote(name))
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		n, _ := counted[0][0].(int64)
		tables = append(tables, TableInfo{Name: name, Rows: n})
	}
	return tables, nil
}
