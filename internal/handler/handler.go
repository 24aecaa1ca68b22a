package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"photo-gallery/internal/config"
	"photo-gallery/internal/models"
	miniostore "photo-gallery/internal/storage/minio"
)

// MetadataStore is the slice of the record store the adapters use.
type MetadataStore interface {
	Put(ctx context.Context, rec *models.ImageRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ImageRecord, error)
	ListProcessed(ctx context.Context, limit int) ([]models.ImageRecord, error)
	FindByUserAndID(ctx context.Context, userID string, imageID uuid.UUID) (*models.ImageRecord, error)
	FindByUserAndOriginalKey(ctx context.Context, userID, originalKey string) (*models.ImageRecord, error)
	Delete(ctx context.Context, imageID uuid.UUID) error
}

// BlobStore is the slice of the object store the adapters use.
type BlobStore interface {
	PresignedPutURL(ctx context.Context, bucketName, objectName, contentType string, objectTags map[string]string, expires time.Duration) (string, error)
	PresignedGetURL(ctx context.Context, bucketName, objectName string, expires time.Duration) (string, error)
	RemoveObject(ctx context.Context, bucketName, objectName string) error
	ListObjects(ctx context.Context, bucketName, prefix string, maxItems int) ([]miniostore.ObjectInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string) (bool, error)
	GetObjectTags(ctx context.Context, bucketName, objectName string) map[string]string
}

// Cache caches listing responses.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Handler struct {
	metadata MetadataStore
	blobs    BlobStore
	cache    Cache
	cfg      *config.Config
}

func NewHandler(metadata MetadataStore, blobs BlobStore, cache Cache, cfg *config.Config) *Handler {
	return &Handler{
		metadata: metadata,
		blobs:    blobs,
		cache:    cache,
		cfg:      cfg,
	}
}

// NewRouter wires the HTTP surface: upload, list, delete, health, with CORS
// on every response and a 200 no-op for preflight.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:              []string{"*"},
		AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:              []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key", "X-Amz-Security-Token"},
		OptionsResponseStatusCode: http.StatusOK,
	}))

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		errorJSON(c, http.StatusMethodNotAllowed, "Method not allowed", "HTTP method not supported on this route")
	})
	r.NoRoute(func(c *gin.Context) {
		errorJSON(c, http.StatusNotFound, "Not found", "No such route")
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/upload", h.Upload)
	r.GET("/images/:user_id", h.ListImages)
	r.DELETE("/images/:user_id/:image_id", h.DeleteImage)

	return r
}

func errorJSON(c *gin.Context, status int, errText, message string) {
	c.JSON(status, gin.H{"error": errText, "message": message})
}

func userImagesCacheKey(userID string) string {
	return "images:user:" + userID
}
