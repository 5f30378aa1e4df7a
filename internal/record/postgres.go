package record

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps records in a post_records table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS post_records (
			publisher_id TEXT NOT NULL,
			ts BIGINT NOT NULL,
			generated_message TEXT NOT NULL,
			img_url TEXT NOT NULL,
			weather_icon_url TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (publisher_id, ts)
		)`,
	}
	for _, q := range queries {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	if err := Validate(rec); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO post_records (publisher_id, ts, generated_message, img_url, weather_icon_url)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.PublisherID, rec.Timestamp, rec.GeneratedMessage, rec.ImgURL, rec.WeatherIconURL)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, publisherID string, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT publisher_id, ts, generated_message, img_url, weather_icon_url
		 FROM post_records WHERE publisher_id = $1 ORDER BY ts DESC LIMIT $2`,
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

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
