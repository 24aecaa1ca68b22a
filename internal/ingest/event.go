package ingest

import (
	"encoding/json"
	"fmt"
)

// Notification is a blob-store write event batch in the S3 event format
// that MinIO bucket notifications publish to the queue.
type Notification struct {
	Records []EventRecord `json:"Records"`
}

type EventRecord struct {
	EventName string `json:"eventName"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"`
			Size int64  `json:"size"`
		} `json:"object"`
	} `json:"s3"`
}

// ParseNotification decodes an event payload. A payload that cannot be
// decoded is the one failure that aborts a whole invocation.
func ParseNotification(body []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal storage notification: %w", err)
	}
	return &n, nil
}
