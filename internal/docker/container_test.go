package docker

import (
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"

	"github.com/shinji-kodama/devstrap/internal/model"
)

// TestContainerToServiceInfo verifies the API-to-domain mapping,
// including the leading-slash name artifact and state translation.
func TestContainerToServiceInfo(t *testing.T) {
	c := types.Container{
		ID:    "abc123def456789",
		Names: []string{"/devstrap-voice-app-db"},
		Image: "postgres:16",
		State: "running",
		Labels: map[string]string{
			LabelManagedBy: ManagedByValue,
			LabelProject:   "voice-app",
			LabelService:   "db",
		},
	}

	info := containerToServiceInfo(c)
	assert.Equal(t, "db", info.Service)
	assert.Equal(t, "voice-app", info.Project)
	assert.Equal(t, "abc123def456789", info.ContainerID)
	assert.Equal(t, "devstrap-voice-app-db", info.ContainerName)
	assert.Equal(t, model.ServiceRunning, info.Status)
	assert.Equal(t, "postgres:16", info.Image)
}

// TestContainerToServiceInfo_StoppedStates verifies every non-running
// state maps to stopped.
func TestContainerToServiceInfo_StoppedStates(t *testing.T) {
	for _, state := range []string{"exited", "created", "paused", "dead"} {
		t.Run(state, func(t *testing.T) {
			info := containerToServiceInfo(types.Container{State: state})
			assert.Equal(t, model.ServiceStopped, info.Status)
		})
	}
}

// TestContainerToServiceInfo_HalfLabelled verifies the mapping
// tolerates containers without devstrap labels instead of failing.
func TestContainerToServiceInfo_HalfLabelled(t *testing.T) {
	info := containerToServiceInfo(types.Container{ID: "abc", State: "running"})
	assert.Empty(t, info.Service)
	assert.Empty(t, info.Project)
	assert.Empty(t, info.ContainerName)
}

// TestContainerToServiceInfo_CorruptLabels verifies a container with
// an invalid service label maps with an empty identity rather than
// carrying a name that could never have been created.
func TestContainerToServiceInfo_CorruptLabels(t *testing.T) {
	info := containerToServiceInfo(types.Container{
		ID:    "abc",
		State: "running",
		Labels: map[string]string{
			LabelManagedBy: ManagedByValue,
			LabelProject:   "voice-app",
			LabelService:   "my_db",
		},
	})
	assert.Empty(t, info.Service)
	assert.Empty(t, info.Project)
	assert.Equal(t, model.ServiceRunning, info.Status)
}

// TestShortID verifies container ID truncation to the 12-character
// display form.
func TestShortID(t *testing.T) {
	assert.Equal(t, "abc123def456", shortID("abc123def456789abcdef"))
	assert.Equal(t, "short", shortID("short"))
	assert.Equal(t, "", shortID(""))
}
