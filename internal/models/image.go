package models

import (
	"time"

	"github.com/google/uuid"
)

type ImageStatus string

const (
	// StatusPendingUpload is written by the upload adapter when a presigned
	// URL is issued. The ingestion pipeline writes its own row keyed by a
	// fresh id, so pending rows never transition; they only record intent.
	StatusPendingUpload ImageStatus = "pending_upload"
	StatusProcessed     ImageStatus = "processed"
	StatusError         ImageStatus = "error"
)

// ImageRecord is one row per upload the system has seen: a successfully
// processed image, a failed one, or a presigned upload that may never land.
type ImageRecord struct {
	ImageID              uuid.UUID   `json:"image_id" db:"image_id"`
	UserID               string      `json:"user_id" db:"user_id"`
	OriginalKey          string      `json:"original_key" db:"original_key"`
	ThumbnailKey         string      `json:"thumbnail_key" db:"thumbnail_key"`
	OriginalName         string      `json:"original_name" db:"original_name"`
	OriginalWidth        int         `json:"original_width" db:"original_width"`
	OriginalHeight       int         `json:"original_height" db:"original_height"`
	ThumbnailWidth       int         `json:"thumbnail_width" db:"thumbnail_width"`
	ThumbnailHeight      int         `json:"thumbnail_height" db:"thumbnail_height"`
	OriginalSize         int64       `json:"original_size" db:"original_size"`
	ThumbnailSize        int64       `json:"thumbnail_size" db:"thumbnail_size"`
	ContentType          string      `json:"content_type" db:"content_type"`
	ThumbnailContentType string      `json:"thumbnail_content_type" db:"thumbnail_content_type"`
	UploadTime           time.Time   `json:"upload_time" db:"upload_time"`
	ProcessedTime        time.Time   `json:"processed_time" db:"processed_time"`
	Status               ImageStatus `json:"status" db:"status"`
	ErrorMessage         string      `json:"error_message,omitempty" db:"error_message"`
}
