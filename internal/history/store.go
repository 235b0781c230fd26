package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS generations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id TEXT NOT NULL UNIQUE,
    output_path TEXT NOT NULL,
    quality TEXT NOT NULL,
    provider TEXT NOT NULL,
    segments INTEGER NOT NULL,
    true_duration REAL NOT NULL,
    nominal_duration INTEGER NOT NULL,
    created_at TEXT NOT NULL
)`

// Entry is one completed generation.
type Entry struct {
	ID              int64
	VideoID         string
	OutputPath      string
	Quality         string
	Provider        string
	Segments        int
	TrueDuration    float64
	NominalDuration int
	CreatedAt       time.Time
}

// Store persists generation history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init history db: %w", err)
		}
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts an entry. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (
            video_id, output_path, quality, provider, segments,
            true_duration, nominal_duration, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.VideoID,
		e.OutputPath,
		e.Quality,
		e.Provider,
		e.Segments,
		e.TrueDuration,
		e.NominalDuration,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

// List returns the most recent entries first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, video_id, output_path, quality, provider, segments,
        true_duration, nominal_duration, created_at
        FROM generations ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(
			&e.ID,
			&e.VideoID,
			&e.OutputPath,
			&e.Quality,
			&e.Provider,
			&e.Segments,
			&e.TrueDuration,
			&e.NominalDuration,
			&created,
		); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return entries, nil
}
