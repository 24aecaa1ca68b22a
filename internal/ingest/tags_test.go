package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTagValue_PriorityOrder(t *testing.T) {
	tags := map[string]string{
		"user_id": "second-choice",
		"user-id": "first-choice",
	}
	assert.Equal(t, "first-choice", tagValue(tags, userIDTagKeys, "unknown"))
}

func TestTagValue_LegacyConventions(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{"snake case", map[string]string{"user_id": "alice"}, "alice"},
		{"title case", map[string]string{"User-Id": "bob"}, "bob"},
		{"collapsed", map[string]string{"userid": "carol"}, "carol"},
		{"absent", map[string]string{"unrelated": "x"}, "unknown"},
		{"empty value", map[string]string{"user-id": ""}, "unknown"},
		{"nil map", nil, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tagValue(tt.tags, userIDTagKeys, "unknown"))
		})
	}
}

func TestTagTime(t *testing.T) {
	fallback := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	stamp := time.Date(2024, 5, 20, 8, 30, 0, 0, time.UTC)

	got := tagTime(map[string]string{"upload-timestamp": stamp.Format(time.RFC3339)}, timeTagKeys, fallback)
	assert.True(t, got.Equal(stamp))

	got = tagTime(map[string]string{"upload-timestamp": "not a time"}, timeTagKeys, fallback)
	assert.True(t, got.Equal(fallback))

	got = tagTime(nil, timeTagKeys, fallback)
	assert.True(t, got.Equal(fallback))
}
