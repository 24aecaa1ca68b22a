package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewClient(ctx context.Context, connectionString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Ping to verify connection using a short timeout context
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

// RunMigrations creates necessary tables if they don't exist
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
	CREATE TABLE IF NOT EXISTS images (
		image_id UUID PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT 'unknown',
		original_key TEXT NOT NULL DEFAULT '',
		thumbnail_key TEXT NOT NULL DEFAULT '',
		original_name TEXT NOT NULL DEFAULT '',
		original_width INTEGER NOT NULL DEFAULT 0,
		original_height INTEGER NOT NULL DEFAULT 0,
		thumbnail_width INTEGER NOT NULL DEFAULT 0,
		thumbnail_height INTEGER NOT NULL DEFAULT 0,
		original_size BIGINT NOT NULL DEFAULT 0,
		thumbnail_size BIGINT NOT NULL DEFAULT 0,
		content_type TEXT NOT NULL DEFAULT '',
		thumbnail_content_type TEXT NOT NULL DEFAULT '',
		upload_time TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		processed_time TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		-- pending_upload rows are written by the upload adapter and keyed
		-- by their own id; the ingestor never updates them.
		status TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS images_user_upload_idx
		ON images (user_id, upload_time DESC);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create images table: %w", err)
	}
	log.Println("Migrations executed successfully")
	return nil
}
