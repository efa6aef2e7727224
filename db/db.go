package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
)

func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify the connection with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database within %v: %w (close error: %v)", timeout, err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

// EnsureSchema creates the tournaments table if it does not exist yet. The
// whole engine persists a tournament as a single row; roster and results are
// JSONB and the version column backs optimistic concurrency in updates.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS tournaments (
			id                 TEXT PRIMARY KEY,
			name               TEXT NOT NULL,
			date               TIMESTAMPTZ NOT NULL,
			entry_fee          BIGINT NOT NULL CHECK (entry_fee >= 0),
			max_players        INTEGER NOT NULL CHECK (max_players > 0),
			prize_pool         BIGINT NOT NULL CHECK (prize_pool >= 0),
			status             TEXT NOT NULL CHECK (status IN ('upcoming', 'ongoing', 'completed')),
			registered_players JSONB NOT NULL DEFAULT '[]'::jsonb,
			results            JSONB,
			banner_key         TEXT,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
			version            BIGINT NOT NULL DEFAULT 1
		)`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure tournaments schema: %w", err)
	}
	return nil
}
