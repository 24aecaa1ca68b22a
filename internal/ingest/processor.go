package ingest

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"photo-gallery/internal/models"
	miniostore "photo-gallery/internal/storage/minio"
)

// Thumbnails are immutable per key, so clients may cache them for a year.
const thumbnailCacheControl = "max-age=31536000, public"

// BlobStore is the slice of the object store the pipeline needs.
type BlobStore interface {
	GetObject(ctx context.Context, bucketName, objectName string) (*miniostore.Object, error)
	PutObject(ctx context.Context, bucketName, objectName string, data []byte, contentType, cacheControl string, objectTags map[string]string) error
}

// RecordStore persists image records.
type RecordStore interface {
	Put(ctx context.Context, rec *models.ImageRecord) error
}

// Cache invalidates cached listings after a successful ingestion.
type Cache interface {
	Delete(ctx context.Context, key string) error
}

type Processor struct {
	blobs           BlobStore
	records         RecordStore
	cache           Cache
	thumbnailBucket string
	thumbnailSize   int
}

func NewProcessor(blobs BlobStore, records RecordStore, cache Cache, thumbnailBucket string, thumbnailSize int) *Processor {
	return &Processor{
		blobs:           blobs,
		records:         records,
		cache:           cache,
		thumbnailBucket: thumbnailBucket,
		thumbnailSize:   thumbnailSize,
	}
}

// ProcessNotification runs the pipeline over every record in the batch.
// Records are handled strictly in order and a failure on one never stops
// the rest; failed objects surface only as error-status records.
func (p *Processor) ProcessNotification(ctx context.Context, n *Notification) {
	for _, record := range n.Records {
		bucket := record.S3.Bucket.Name
		key := record.S3.Object.Key
		if err := p.processRecord(ctx, bucket, key); err != nil {
			log.Printf("Failed to process %s/%s: %v", bucket, key, err)
		}
	}
}

func (p *Processor) processRecord(ctx context.Context, sourceBucket, rawKey string) error {
	// Event keys arrive URL-encoded.
	sourceKey, err := url.QueryUnescape(rawKey)
	if err != nil {
		sourceKey = rawKey
	}

	if strings.HasPrefix(sourceKey, ThumbnailPrefix) {
		log.Printf("Skipping thumbnail object: %s", sourceKey)
		return nil
	}
	if !IsImageKey(sourceKey) {
		log.Printf("Skipping non-image object: %s", sourceKey)
		return nil
	}

	// The target key is derived from the source key alone, so re-uploading
	// the same object overwrites its previous thumbnail.
	targetKey := ThumbnailPrefix + sourceKey
	now := time.Now().UTC()

	rec := &models.ImageRecord{
		ImageID:       uuid.New(),
		UserID:        "unknown",
		OriginalKey:   sourceKey,
		OriginalName:  sourceKey,
		UploadTime:    now,
		ProcessedTime: now,
	}

	log.Printf("Processing: %s/%s -> %s", sourceBucket, sourceKey, targetKey)

	obj, err := p.blobs.GetObject(ctx, sourceBucket, sourceKey)
	if err != nil {
		p.writeErrorRecord(ctx, rec, err)
		return fmt.Errorf("failed to download source object: %w", err)
	}

	rec.UserID = tagValue(obj.Tags, userIDTagKeys, "unknown")
	rec.OriginalName = tagValue(obj.Tags, nameTagKeys, sourceKey)
	rec.UploadTime = tagTime(obj.Tags, timeTagKeys, now)
	rec.ContentType = obj.ContentType
	rec.OriginalSize = obj.Size

	thumb, origW, origH, err := MakeThumbnail(obj.Data, obj.ContentType, sourceKey, p.thumbnailSize)
	if err != nil {
		p.writeErrorRecord(ctx, rec, err)
		return err
	}

	rec.OriginalWidth = origW
	rec.OriginalHeight = origH
	rec.ThumbnailWidth = thumb.Width
	rec.ThumbnailHeight = thumb.Height
	rec.ThumbnailSize = int64(len(thumb.Data))
	rec.ThumbnailContentType = thumb.ContentType

	// The artifact write must succeed before the processed record is
	// written, or a listing could reference a thumbnail that is not there.
	putErr := p.blobs.PutObject(ctx, p.thumbnailBucket, targetKey, thumb.Data, thumb.ContentType, thumbnailCacheControl, map[string]string{
		"source-bucket": sourceBucket,
		"source-key":    sourceKey,
		"user-id":       rec.UserID,
		"processed-at":  now.Format(time.RFC3339),
	})
	if putErr != nil {
		p.writeErrorRecord(ctx, rec, putErr)
		return fmt.Errorf("failed to store thumbnail: %w", putErr)
	}

	rec.ThumbnailKey = targetKey
	rec.Status = models.StatusProcessed
	rec.ProcessedTime = time.Now().UTC()
	if err := p.records.Put(ctx, rec); err != nil {
		return fmt.Errorf("failed to store metadata record: %w", err)
	}

	if p.cache != nil {
		cacheKey := fmt.Sprintf("images:user:%s", rec.UserID)
		if err := p.cache.Delete(ctx, cacheKey); err != nil {
			log.Printf("Warning: failed to invalidate cache for %s: %v", cacheKey, err)
		}
	}

	log.Printf("Successfully processed %s as image %s", sourceKey, rec.ImageID)
	return nil
}

// writeErrorRecord persists an error-status record carrying whatever was
// known before the failure. The write itself is best-effort: if it also
// fails it is only logged, never allowed to abort the batch.
func (p *Processor) writeErrorRecord(ctx context.Context, rec *models.ImageRecord, cause error) {
	rec.Status = models.StatusError
	rec.ErrorMessage = cause.Error()
	rec.ThumbnailKey = ""
	rec.ProcessedTime = time.Now().UTC()

	if err := p.records.Put(ctx, rec); err != nil {
		log.Printf("Failed to write error record for %s: %v", rec.OriginalKey, err)
	}
}
