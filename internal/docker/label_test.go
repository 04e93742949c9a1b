package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildServiceLabels verifies the label set applied to service
// containers carries the full identity needed to rediscover them.
func TestBuildServiceLabels(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	labels := BuildServiceLabels("voice-app", "db", "/home/dev/voice-app", createdAt)

	assert.Equal(t, "devstrap", labels[LabelManagedBy])
	assert.Equal(t, "voice-app", labels[LabelProject])
	assert.Equal(t, "db", labels[LabelService])
	assert.Equal(t, "/home/dev/voice-app", labels[LabelProjectRoot])
	assert.Equal(t, "2025-06-01T12:30:00Z", labels[LabelCreatedAt])
}

// TestBuildServiceLabels_TimestampNormalizedToUTC verifies the
// created-at label is stable regardless of the host timezone.
func TestBuildServiceLabels_TimestampNormalizedToUTC(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	createdAt := time.Date(2025, 6, 1, 21, 30, 0, 0, loc)

	labels := BuildServiceLabels("app", "db", "/p", createdAt)
	assert.Equal(t, "2025-06-01T12:30:00Z", labels[LabelCreatedAt])
}

// TestBuildServiceLabels_RoundTrip verifies that labels written by
// BuildServiceLabels parse back to the same identity.
func TestBuildServiceLabels_RoundTrip(t *testing.T) {
	labels := BuildServiceLabels("voice-app", "redis", "/home/dev/voice-app", time.Now())

	project, service, err := ParseServiceLabels(labels)
	require.NoError(t, err)
	assert.Equal(t, "voice-app", project)
	assert.Equal(t, "redis", service)
}

// TestParseServiceLabels_Errors verifies foreign or corrupted label
// sets are rejected rather than misattributed.
func TestParseServiceLabels_Errors(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
	}{
		{
			name:   "no labels at all",
			labels: map[string]string{},
		},
		{
			name: "foreign container",
			labels: map[string]string{
				"com.docker.compose.project": "other",
			},
		},
		{
			name: "managed-by with wrong value",
			labels: map[string]string{
				LabelManagedBy: "someone-else",
				LabelProject:   "app",
				LabelService:   "db",
			},
		},
		{
			name: "missing project",
			labels: map[string]string{
				LabelManagedBy: ManagedByValue,
				LabelService:   "db",
			},
		},
		{
			name: "missing service",
			labels: map[string]string{
				LabelManagedBy: ManagedByValue,
				LabelProject:   "app",
			},
		},
		{
			name: "invalid service name",
			labels: map[string]string{
				LabelManagedBy: ManagedByValue,
				LabelProject:   "app",
				LabelService:   "my_db",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseServiceLabels(tt.labels)
			assert.Error(t, err)
		})
	}
}

// TestContainerName verifies the canonical container naming scheme.
func TestContainerName(t *testing.T) {
	assert.Equal(t, "devstrap-voice-app-db", ContainerName("voice-app", "db"))
	assert.Equal(t, "devstrap-api-redis", ContainerName("api", "redis"))
}
