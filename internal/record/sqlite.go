package record

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Pass ":memory:" for an
// in-memory database (used by tests).
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS post_records (
		publisher_id TEXT NOT NULL,
		ts INTEGER NOT NULL,
		generated_message TEXT NOT NULL,
		img_url TEXT NOT NULL,
		weather_icon_url TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (publisher_id, ts)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	if err := Validate(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO post_records (publisher_id, ts, generated_message, img_url, weather_icon_url)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.PublisherID, rec.Timestamp, rec.GeneratedMessage, rec.ImgURL, rec.WeatherIconURL)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Latest(ctx context.Context, publisherID string, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT publisher_id, ts, generated_message, img_url, weather_icon_url
		 FROM post_records WHERE publisher_id = ? ORDER BY ts DESC LIMIT ?`,
		publisherID, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.PublisherID, &rec.Timestamp, &rec.GeneratedMessage, &rec.ImgURL, &rec.WeatherIconURL); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
