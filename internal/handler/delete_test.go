package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-gallery/internal/models"
)

func TestDeleteImage_Success(t *testing.T) {
	rec := processedRecord("alice", "cat.jpg", time.Now().UTC())
	md := &fakeMetadata{records: []models.ImageRecord{rec}}
	blobs := &fakeBlobs{}
	kv := newFakeKV()
	router := newTestRouter(md, blobs, kv)

	w := doRequest(router, http.MethodDelete, "/images/alice/"+rec.ImageID.String(), "", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, rec.ImageID.String(), resp["deleted_image_id"])
	assert.Equal(t, "thumb-cat.jpg", resp["deleted_thumbnail_key"])

	assert.Equal(t, []string{"thumbnails/thumb-cat.jpg"}, blobs.removed)
	require.Len(t, md.deleted, 1)
	assert.Equal(t, rec.ImageID, md.deleted[0])
	assert.Equal(t, []string{"images:user:alice"}, kv.deleted)
}

func TestDeleteImage_NotFound(t *testing.T) {
	md := &fakeMetadata{}
	router := newTestRouter(md, &fakeBlobs{}, nil)

	w := doRequest(router, http.MethodDelete, "/images/alice/ffffffff-ffff-ffff-ffff-ffffffffffff", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Image not found")
	assert.Empty(t, md.deleted)
}

func TestDeleteImage_WrongUser(t *testing.T) {
	rec := processedRecord("alice", "cat.jpg", time.Now().UTC())
	md := &fakeMetadata{records: []models.ImageRecord{rec}}
	router := newTestRouter(md, &fakeBlobs{}, nil)

	w := doRequest(router, http.MethodDelete, "/images/bob/"+rec.ImageID.String(), "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteImage_ByOriginalKey(t *testing.T) {
	rec := processedRecord("alice", "cat.jpg", time.Now().UTC())
	md := &fakeMetadata{records: []models.ImageRecord{rec}}
	router := newTestRouter(md, &fakeBlobs{}, nil)

	// Older clients pass the original key where the id belongs.
	w := doRequest(router, http.MethodDelete, "/images/alice/cat.jpg", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, md.deleted, 1)
	assert.Equal(t, rec.ImageID, md.deleted[0])
}

func TestDeleteImage_BlobFailureTolerated(t *testing.T) {
	rec := processedRecord("alice", "cat.jpg", time.Now().UTC())
	md := &fakeMetadata{records: []models.ImageRecord{rec}}
	blobs := &fakeBlobs{removeErr: errors.New("blob store down")}
	router := newTestRouter(md, blobs, nil)

	w := doRequest(router, http.MethodDelete, "/images/alice/"+rec.ImageID.String(), "", nil)

	// The metadata row still goes even when the blob delete fails.
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, md.deleted, 1)
}

func TestDeleteImage_MetadataFailureIsHard(t *testing.T) {
	rec := processedRecord("alice", "cat.jpg", time.Now().UTC())
	md := &fakeMetadata{
		records:   []models.ImageRecord{rec},
		deleteErr: errors.New("metadata store down"),
	}
	router := newTestRouter(md, &fakeBlobs{}, nil)

	w := doRequest(router, http.MethodDelete, "/images/alice/"+rec.ImageID.String(), "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to delete image metadata")
}
