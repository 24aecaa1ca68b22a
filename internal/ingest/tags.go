package ingest

import (
	"time"
)

// Upload tags have gone through a few naming conventions over time; each
// field is probed over its candidates in priority order.
var (
	userIDTagKeys = []string{"user-id", "user_id", "User-Id", "userid"}
	nameTagKeys   = []string{"original-filename", "original_filename", "original-name", "Original-Filename"}
	timeTagKeys   = []string{"upload-timestamp", "upload_timestamp", "upload-time", "Upload-Timestamp"}
)

// tagValue returns the first non-empty value among the candidate keys, or
// the fallback when none is present.
func tagValue(tags map[string]string, candidates []string, fallback string) string {
	for _, key := range candidates {
		if v, ok := tags[key]; ok && v != "" {
			return v
		}
	}
	return fallback
}

// tagTime parses the first candidate tag as RFC 3339, falling back to the
// given time when absent or unparseable.
func tagTime(tags map[string]string, candidates []string, fallback time.Time) time.Time {
	raw := tagValue(tags, candidates, "")
	if raw == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback
	}
	return t
}
