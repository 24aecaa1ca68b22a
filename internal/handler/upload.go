package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"photo-gallery/internal/identity"
	"photo-gallery/internal/models"
)

type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type UploadResponse struct {
	UploadURL        string `json:"uploadUrl"`
	ViewURL          string `json:"viewUrl"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"originalFilename"`
	Bucket           string `json:"bucket"`
	UploadID         string `json:"uploadId"`
	UserID           string `json:"userId"`
	ContentType      string `json:"contentType"`
	ExpiresIn        int    `json:"expiresIn"`
	Message          string `json:"message"`
}

var allowedContentTypes = []string{
	"image/jpeg", "image/jpg", "image/png", "image/gif",
	"image/webp", "image/bmp", "image/tiff",
}

var allowedUploadExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true, ".tif": true,
}

// Upload issues a time-limited presigned URL for a direct upload and
// records the intent as a pending_upload row.
func (h *Handler) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid JSON in request body", err.Error())
		return
	}

	if req.Filename == "" {
		errorJSON(c, http.StatusBadRequest, "Filename is required", "Provide a filename in the request body")
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !isAllowedContentType(contentType) {
		errorJSON(c, http.StatusBadRequest, "Invalid file type. Only images are allowed.", strings.Join(allowedContentTypes, ", "))
		return
	}
	if !validFilename(req.Filename) {
		errorJSON(c, http.StatusBadRequest, "Invalid filename", "Use safe characters and an image extension")
		return
	}

	userID := identity.FromAuthorizationHeader(c.GetHeader("Authorization"))
	now := time.Now().UTC()

	// Unique object key so concurrent uploads of the same filename never
	// collide in the bucket.
	uniqueName := fmt.Sprintf("%s_%s_%s_%s",
		userID, now.Format("20060102_150405"), uuid.New().String()[:8], req.Filename)

	uploadTags := map[string]string{
		"user-id":           userID,
		"original-filename": req.Filename,
		"upload-timestamp":  now.Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	uploadURL, err := h.blobs.PresignedPutURL(ctx, h.cfg.UploadBucket, uniqueName, contentType, uploadTags, h.cfg.PresignTTL())
	if err != nil {
		log.Printf("Error generating presigned upload URL: %v", err)
		errorJSON(c, http.StatusInternalServerError, "Failed to generate upload URL", err.Error())
		return
	}

	viewURL, err := h.blobs.PresignedGetURL(ctx, h.cfg.UploadBucket, uniqueName, h.cfg.PresignTTL())
	if err != nil {
		log.Printf("Error generating view URL for %s: %v", uniqueName, err)
	}

	uploadID := uuid.New()
	rec := &models.ImageRecord{
		ImageID:       uploadID,
		UserID:        userID,
		OriginalKey:   uniqueName,
		OriginalName:  req.Filename,
		ContentType:   contentType,
		UploadTime:    now,
		ProcessedTime: now,
		Status:        models.StatusPendingUpload,
	}
	// The pending row is informational; its failure must not fail the
	// upload itself.
	if err := h.metadata.Put(ctx, rec); err != nil {
		log.Printf("Error storing pending upload record %s: %v", uploadID, err)
	}

	c.JSON(http.StatusOK, UploadResponse{
		UploadURL:        uploadURL,
		ViewURL:          viewURL,
		Filename:         uniqueName,
		OriginalFilename: req.Filename,
		Bucket:           h.cfg.UploadBucket,
		UploadID:         uploadID.String(),
		UserID:           userID,
		ContentType:      contentType,
		ExpiresIn:        h.cfg.PresignTTLSecs,
		Message:          "Upload URL generated successfully",
	})
}

func isAllowedContentType(contentType string) bool {
	for _, t := range allowedContentTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

func validFilename(filename string) bool {
	if filename == "" || len(filename) > 255 {
		return false
	}

	dangerous := []string{"..", "/", "\\", "<", ">", ":", "\"", "|", "?", "*"}
	for _, ch := range dangerous {
		if strings.Contains(filename, ch) {
			return false
		}
	}

	return allowedUploadExtensions[strings.ToLower(filepath.Ext(filename))]
}
