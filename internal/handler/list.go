package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"photo-gallery/internal/ingest"
	"photo-gallery/internal/models"
)

const (
	defaultListLimit = 50
	listCacheTTL     = 10 * time.Minute
	viewURLTTL       = 15 * time.Minute
)

type ImageView struct {
	ID              string `json:"id"`
	OriginalKey     string `json:"originalKey"`
	ThumbnailKey    string `json:"thumbnailKey"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	OriginalName    string `json:"originalName"`
	UploadTime      string `json:"uploadTime"`
	ProcessedTime   string `json:"processedTime,omitempty"`
	Size            int64  `json:"size"`
	OriginalWidth   int    `json:"originalWidth"`
	OriginalHeight  int    `json:"originalHeight"`
	ThumbnailWidth  int    `json:"thumbnailWidth"`
	ThumbnailHeight int    `json:"thumbnailHeight"`
	ContentType     string `json:"contentType"`
}

type ListResponse struct {
	Images []ImageView `json:"images"`
	Count  int         `json:"count"`
	UserID string      `json:"user_id"`
}

// ListImages returns a user's processed images, newest first. The indexed
// query is tried first, then a table scan, then raw enumeration of the
// thumbnail bucket, so a metadata-store outage degrades rather than fails.
func (h *Handler) ListImages(c *gin.Context) {
	userID := c.Param("user_id")

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			errorJSON(c, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	// Only the default view is cached; the key is shared with the
	// ingestor's invalidation.
	cacheable := limit == defaultListLimit
	if cacheable && h.cache != nil {
		if cached, err := h.cache.Get(ctx, userImagesCacheKey(userID)); err == nil {
			var resp ListResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	records, err := h.metadata.ListByUser(ctx, userID, limit)
	if err != nil {
		log.Printf("Indexed query failed for user %s, falling back to scan: %v", userID, err)
		records = h.scanFallback(ctx, userID, limit)
	}
	if len(records) == 0 {
		records = h.blobFallback(ctx, userID, limit)
	}

	images := make([]ImageView, 0, len(records))
	for _, rec := range records {
		// Skip rows whose artifact has gone missing from the blob store.
		exists, err := h.blobs.StatObject(ctx, h.cfg.ThumbnailBucket, rec.ThumbnailKey)
		if err != nil {
			log.Printf("Could not stat thumbnail %s: %v", rec.ThumbnailKey, err)
			continue
		}
		if !exists {
			log.Printf("Thumbnail not accessible, skipping: %s", rec.ThumbnailKey)
			continue
		}

		thumbnailURL, err := h.blobs.PresignedGetURL(ctx, h.cfg.ThumbnailBucket, rec.ThumbnailKey, viewURLTTL)
		if err != nil {
			log.Printf("Could not presign thumbnail %s: %v", rec.ThumbnailKey, err)
		}

		// Blob-store fallback entries have no stable id; the thumbnail key
		// stands in, as clients only use it for display and delete-by-key.
		id := rec.ImageID.String()
		if rec.ImageID == uuid.Nil {
			id = rec.ThumbnailKey
		}

		view := ImageView{
			ID:              id,
			OriginalKey:     rec.OriginalKey,
			ThumbnailKey:    rec.ThumbnailKey,
			ThumbnailURL:    thumbnailURL,
			OriginalName:    rec.OriginalName,
			UploadTime:      rec.UploadTime.Format(time.RFC3339),
			Size:            rec.OriginalSize,
			OriginalWidth:   rec.OriginalWidth,
			OriginalHeight:  rec.OriginalHeight,
			ThumbnailWidth:  rec.ThumbnailWidth,
			ThumbnailHeight: rec.ThumbnailHeight,
			ContentType:     rec.ContentType,
		}
		if !rec.ProcessedTime.IsZero() {
			view.ProcessedTime = rec.ProcessedTime.Format(time.RFC3339)
		}
		images = append(images, view)
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].UploadTime > images[j].UploadTime
	})

	resp := ListResponse{Images: images, Count: len(images), UserID: userID}

	if cacheable && h.cache != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := h.cache.Set(ctx, userImagesCacheKey(userID), string(data), listCacheTTL); err != nil {
				log.Printf("Could not cache listing for user %s: %v", userID, err)
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

// scanFallback retries the listing as a full scan filtered client-side.
func (h *Handler) scanFallback(ctx context.Context, userID string, limit int) []models.ImageRecord {
	all, err := h.metadata.ListProcessed(ctx, limit)
	if err != nil {
		log.Printf("Scan fallback failed for user %s: %v", userID, err)
		return nil
	}

	var records []models.ImageRecord
	for _, rec := range all {
		if rec.UserID == userID {
			records = append(records, rec)
		}
	}
	return records
}

// blobFallback reconstructs listing entries from the thumbnail bucket when
// the metadata store has nothing to offer.
func (h *Handler) blobFallback(ctx context.Context, userID string, limit int) []models.ImageRecord {
	objects, err := h.blobs.ListObjects(ctx, h.cfg.ThumbnailBucket, ingest.ThumbnailPrefix, limit)
	if err != nil {
		log.Printf("Blob-store fallback listing failed: %v", err)
		return nil
	}

	var records []models.ImageRecord
	for _, obj := range objects {
		tags := h.blobs.GetObjectTags(ctx, h.cfg.ThumbnailBucket, obj.Key)
		owner := tags["user-id"]
		if owner == "" {
			owner = "unknown"
		}
		if owner != userID {
			continue
		}

		records = append(records, models.ImageRecord{
			UserID:        owner,
			OriginalKey:   strings.TrimPrefix(obj.Key, ingest.ThumbnailPrefix),
			ThumbnailKey:  obj.Key,
			OriginalName:  strings.TrimPrefix(obj.Key, ingest.ThumbnailPrefix),
			ThumbnailSize: obj.Size,
			UploadTime:    obj.LastModified,
			Status:        models.StatusProcessed,
		})
	}
	return records
}
