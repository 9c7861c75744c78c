// Package db provides PostgreSQL access for processed interview experiences.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// schema is applied in order by Migrate; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS experiences (
		seq                BIGSERIAL PRIMARY KEY,
		id                 TEXT NOT NULL UNIQUE,
		company            TEXT NOT NULL DEFAULT '',
		role               TEXT NOT NULL DEFAULT '',
		difficulty         TEXT NOT NULL DEFAULT '',
		verdict            TEXT NOT NULL DEFAULT '',
		feedback_sentiment TEXT NOT NULL DEFAULT '',
		nlp_processed      BOOLEAN NOT NULL DEFAULT FALSE,
		source             TEXT NOT NULL DEFAULT '',
		submitted_at       TEXT NOT NULL DEFAULT '',
		record             JSONB NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_experiences_company ON experiences (LOWER(company))`,
	`CREATE INDEX IF NOT EXISTS idx_experiences_sentiment ON experiences (feedback_sentiment)`,
}

// Migrate creates the experiences table and its indexes.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
