package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"photo-gallery/internal/metadata"
	"photo-gallery/internal/models"
)

// DeleteImage removes a record's thumbnail blob and metadata row. A failed
// blob delete is tolerated; a failed metadata delete is not.
func (h *Handler) DeleteImage(c *gin.Context) {
	userID := c.Param("user_id")
	imageIDParam := c.Param("image_id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	rec, err := h.lookupRecord(ctx, userID, imageIDParam)
	if errors.Is(err, metadata.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "Image not found",
			fmt.Sprintf("Image %s not found for user %s", imageIDParam, userID))
		return
	}
	if err != nil {
		log.Printf("Error looking up image %s for user %s: %v", imageIDParam, userID, err)
		errorJSON(c, http.StatusInternalServerError, "Failed to delete image", err.Error())
		return
	}

	if rec.ThumbnailKey != "" {
		if err := h.blobs.RemoveObject(ctx, h.cfg.ThumbnailBucket, rec.ThumbnailKey); err != nil {
			log.Printf("Error deleting thumbnail %s: %v", rec.ThumbnailKey, err)
		}
	}

	if err := h.metadata.Delete(ctx, rec.ImageID); err != nil {
		log.Printf("Error deleting metadata for image %s: %v", rec.ImageID, err)
		errorJSON(c, http.StatusInternalServerError, "Failed to delete image metadata", err.Error())
		return
	}

	if h.cache != nil {
		if err := h.cache.Delete(ctx, userImagesCacheKey(userID)); err != nil {
			log.Printf("Could not invalidate listing cache for user %s: %v", userID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":               "Image deleted successfully",
		"deleted_image_id":      rec.ImageID.String(),
		"deleted_thumbnail_key": rec.ThumbnailKey,
	})
}

// lookupRecord finds the record by image id, then by original key for
// clients that predate stable ids.
func (h *Handler) lookupRecord(ctx context.Context, userID, imageIDParam string) (*models.ImageRecord, error) {
	if imageID, err := uuid.Parse(imageIDParam); err == nil {
		rec, err := h.metadata.FindByUserAndID(ctx, userID, imageID)
		if err == nil || !errors.Is(err, metadata.ErrNotFound) {
			return rec, err
		}
	}
	return h.metadata.FindByUserAndOriginalKey(ctx, userID, imageIDParam)
}
