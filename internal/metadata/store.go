package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"photo-gallery/internal/models"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("image record not found")

const recordColumns = `image_id, user_id, original_key, thumbnail_key, original_name,
	original_width, original_height, thumbnail_width, thumbnail_height,
	original_size, thumbnail_size, content_type, thumbnail_content_type,
	upload_time, processed_time, status, error_message`

// Store persists image records in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Put inserts a new image record. Records are append-only; the pipeline
// never updates a row once written.
func (s *Store) Put(ctx context.Context, rec *models.ImageRecord) error {
	query := `
		INSERT INTO images (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.pool.Exec(ctx, query,
		rec.ImageID, rec.UserID, rec.OriginalKey, rec.ThumbnailKey, rec.OriginalName,
		rec.OriginalWidth, rec.OriginalHeight, rec.ThumbnailWidth, rec.ThumbnailHeight,
		rec.OriginalSize, rec.ThumbnailSize, rec.ContentType, rec.ThumbnailContentType,
		rec.UploadTime, rec.ProcessedTime, rec.Status, rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert image record: %w", err)
	}
	return nil
}

// ListByUser returns a user's processed images, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]models.ImageRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM images
		WHERE user_id = $1 AND status = $2 AND thumbnail_key <> ''
		ORDER BY upload_time DESC
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, userID, models.StatusProcessed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query images for user %s: %w", userID, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListProcessed scans for processed images regardless of user, newest first.
// Used as the fallback when the indexed user query fails.
func (s *Store) ListProcessed(ctx context.Context, limit int) ([]models.ImageRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM images
		WHERE status = $1 AND thumbnail_key <> ''
		ORDER BY upload_time DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, models.StatusProcessed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to scan images: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FindByUserAndID looks up a single record by image id and owner.
func (s *Store) FindByUserAndID(ctx context.Context, userID string, imageID uuid.UUID) (*models.ImageRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM images
		WHERE image_id = $1 AND user_id = $2
	`
	return s.findOne(ctx, query, imageID, userID)
}

// FindByUserAndOriginalKey looks a record up by its source object key.
// Kept for clients that predate stable image ids.
func (s *Store) FindByUserAndOriginalKey(ctx context.Context, userID, originalKey string) (*models.ImageRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM images
		WHERE original_key = $1 AND user_id = $2
		ORDER BY upload_time DESC
		LIMIT 1
	`
	return s.findOne(ctx, query, originalKey, userID)
}

// Delete removes a record by primary key.
func (s *Store) Delete(ctx context.Context, imageID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM images WHERE image_id = $1`, imageID)
	if err != nil {
		return fmt.Errorf("failed to delete image record %s: %w", imageID, err)
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, query string, args ...any) (*models.ImageRecord, error) {
	var rec models.ImageRecord
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&rec.ImageID, &rec.UserID, &rec.OriginalKey, &rec.ThumbnailKey, &rec.OriginalName,
		&rec.OriginalWidth, &rec.OriginalHeight, &rec.ThumbnailWidth, &rec.ThumbnailHeight,
		&rec.OriginalSize, &rec.ThumbnailSize, &rec.ContentType, &rec.ThumbnailContentType,
		&rec.UploadTime, &rec.ProcessedTime, &rec.Status, &rec.ErrorMessage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query image record: %w", err)
	}
	return &rec, nil
}

func scanRecords(rows pgx.Rows) ([]models.ImageRecord, error) {
	var records []models.ImageRecord
	for rows.Next() {
		var rec models.ImageRecord
		err := rows.Scan(
			&rec.ImageID, &rec.UserID, &rec.OriginalKey, &rec.ThumbnailKey, &rec.OriginalName,
			&rec.OriginalWidth, &rec.OriginalHeight, &rec.ThumbnailWidth, &rec.ThumbnailHeight,
			&rec.OriginalSize, &rec.ThumbnailSize, &rec.ContentType, &rec.ThumbnailContentType,
			&rec.UploadTime, &rec.ProcessedTime, &rec.Status, &rec.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image records: %w", err)
	}
	return records, nil
}
