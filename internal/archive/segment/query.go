package segment

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store provides ranged reads over a node's segment files. It uses
// DuckDB to scan the Parquet segments, so a read touches only the row
// groups overlapping the requested range.
type Store struct {
	dir  string
	meta *Meta
	db   *sql.DB
}

// Open opens a segmented archive node directory.
func Open(dir string) (*Store, error) {
	meta, err := LoadMeta(dir)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	return &Store{dir: dir, meta: meta, db: db}, nil
}

// Meta returns the node descriptor.
func (s *Store) Meta() Meta {
	return *s.meta
}

// Dir returns the node directory.
func (s *Store) Dir() string {
	return s.dir
}

// Close closes the store.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Segments lists the node's segments.
func (s *Store) Segments() ([]Segment, error) {
	return List(s.dir)
}

// ReadRange returns the stored points with fromMs <= timestamp < untilMs
// in ascending timestamp order. A node with no segments yields no rows.
func (s *Store) ReadRange(ctx context.Context, fromMs, untilMs int64) ([]PointRow, error) {
	pattern := filepath.Join(s.dir, "*.parquet")

	query := `
		SELECT timestamp_ms, value
		FROM read_parquet($1)
		WHERE timestamp_ms >= $2 AND timestamp_ms < $3
		ORDER BY timestamp_ms
	`

	rows, err := s.db.QueryContext(ctx, query, pattern, fromMs, untilMs)
	if err != nil {
		// read_parquet fails when the glob matches no files; a node with
		// no segments yet holds no data.
		return nil, nil
	}
	defer rows.Close()

	var points []PointRow
	for rows.Next() {
		var p PointRow
		if err := rows.Scan(&p.TimestampMs, &p.Value); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}
