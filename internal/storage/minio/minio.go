package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"
)

type Client struct {
	client *minio.Client
}

// Object is the result of fetching a stored object together with the
// metadata the ingestion pipeline needs.
type Object struct {
	Data        []byte
	ContentType string
	Size        int64
	Tags        map[string]string
}

// ObjectInfo is a single entry from a bucket listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// NewClient creates a new Minio client and ensures the given buckets exist.
func NewClient(endpoint, accessKey, secretKey string, useSSL bool, buckets ...string) (*Client, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	client := &Client{client: minioClient}

	for _, bucketName := range buckets {
		if err := client.ensureBucketExists(context.Background(), bucketName); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket %s exists: %w", bucketName, err)
		}
	}

	log.Printf("Minio client initialized successfully with buckets: %v", buckets)
	return client, nil
}

// ensureBucketExists creates a bucket if it doesn't exist
func (c *Client) ensureBucketExists(ctx context.Context, bucketName string) error {
	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = c.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("Created bucket: %s", bucketName)
	}

	return nil
}

// GetObject downloads an object and its tags from the specified bucket.
func (c *Client) GetObject(ctx context.Context, bucketName, objectName string) (*Object, error) {
	obj, err := c.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucketName, objectName, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat object %s/%s: %w", bucketName, objectName, err)
	}

	// Tags are best-effort: older uploads may carry none at all.
	objectTags := map[string]string{}
	if t, err := c.client.GetObjectTagging(ctx, bucketName, objectName, minio.GetObjectTaggingOptions{}); err == nil {
		objectTags = t.ToMap()
	} else {
		log.Printf("Could not read tags for %s/%s: %v", bucketName, objectName, err)
	}

	return &Object{
		Data:        data,
		ContentType: stat.ContentType,
		Size:        stat.Size,
		Tags:        objectTags,
	}, nil
}

// PutObject uploads an object with the given content type, cache directive
// and tags.
func (c *Client) PutObject(ctx context.Context, bucketName, objectName string, data []byte, contentType, cacheControl string, objectTags map[string]string) error {
	_, err := c.client.PutObject(ctx, bucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
		UserTags:     objectTags,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s/%s: %w", bucketName, objectName, err)
	}

	log.Printf("Successfully uploaded %s to bucket %s (%d bytes)", objectName, bucketName, len(data))
	return nil
}

// PresignedPutURL generates a time-limited URL for uploading an object. The
// content type and tags are bound into the signature, so the uploader must
// send them back verbatim.
func (c *Client) PresignedPutURL(ctx context.Context, bucketName, objectName, contentType string, objectTags map[string]string, expires time.Duration) (string, error) {
	headers := http.Header{}
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}
	if len(objectTags) > 0 {
		t, err := tags.NewTags(objectTags, true)
		if err != nil {
			return "", fmt.Errorf("failed to build object tags: %w", err)
		}
		headers.Set("X-Amz-Tagging", t.String())
	}

	presignedURL, err := c.client.PresignHeader(ctx, http.MethodPut, bucketName, objectName, expires, url.Values{}, headers)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}

	return presignedURL.String(), nil
}

// PresignedGetURL generates a presigned URL for viewing an object.
func (c *Client) PresignedGetURL(ctx context.Context, bucketName, objectName string, expires time.Duration) (string, error) {
	presignedURL, err := c.client.PresignedGetObject(ctx, bucketName, objectName, expires, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignedURL.String(), nil
}

// RemoveObject deletes an object from the specified bucket.
func (c *Client) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	err := c.client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object %s/%s: %w", bucketName, objectName, err)
	}
	return nil
}

// ListObjects lists up to maxItems objects under the given prefix.
func (c *Client) ListObjects(ctx context.Context, bucketName, prefix string, maxItems int) ([]ObjectInfo, error) {
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var infos []ObjectInfo
	for obj := range c.client.ListObjects(listCtx, bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", bucketName, obj.Err)
		}
		infos = append(infos, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
		if maxItems > 0 && len(infos) >= maxItems {
			break
		}
	}

	return infos, nil
}

// StatObject reports whether an object exists.
func (c *Client) StatObject(ctx context.Context, bucketName, objectName string) (bool, error) {
	_, err := c.client.StatObject(ctx, bucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s/%s: %w", bucketName, objectName, err)
	}
	return true, nil
}

// GetObjectTags fetches the tag set of an object, returning an empty map on
// failure.
func (c *Client) GetObjectTags(ctx context.Context, bucketName, objectName string) map[string]string {
	t, err := c.client.GetObjectTagging(ctx, bucketName, objectName, minio.GetObjectTaggingOptions{})
	if err != nil {
		return map[string]string{}
	}
	return t.ToMap()
}
