package docker

import (
	"fmt"
	"time"

	"github.com/shinji-kodama/devstrap/internal/model"
)

// Label key constants define the Docker label keys used to mark and
// identify the service containers devstrap manages. These labels are
// the sole persistence mechanism — there is no state file; everything
// the services commands know about a project's containers is
// reconstructed from Docker API queries.
//
// All keys share the "devstrap." prefix to namespace them and avoid
// collisions with labels set by other tools (Docker Compose, VS Code,
// etc.).
const (
	// LabelPrefix is the common prefix for all devstrap labels.
	LabelPrefix = "devstrap."

	// LabelManagedBy identifies containers managed by devstrap.
	// This is the primary label used for filtering and discovery.
	// Key: "devstrap.managed-by", Value: always "devstrap".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelProject stores the project name the service belongs to.
	// Key: "devstrap.project", Value: project name (e.g., "voice-app").
	LabelProject = LabelPrefix + "project"

	// LabelService stores the service name within the project.
	// Key: "devstrap.service", Value: service name (e.g., "db").
	LabelService = LabelPrefix + "service"

	// LabelProjectRoot stores the absolute path of the project root,
	// so status output can flag containers whose project directory
	// has since been deleted.
	// Key: "devstrap.project-root", Value: absolute path.
	LabelProjectRoot = LabelPrefix + "project-root"

	// LabelCreatedAt stores the RFC3339 timestamp of container creation.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "devstrap"

// BuildServiceLabels constructs the Docker label map applied to a
// service container. The labels carry enough metadata to rebuild a
// model.ServiceInfo from container inspection alone.
func BuildServiceLabels(project, service, projectRoot string, createdAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy:   ManagedByValue,
		LabelProject:     project,
		LabelService:     service,
		LabelProjectRoot: projectRoot,
		// UTC keeps the timestamp stable regardless of the host
		// machine's timezone.
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// ParseServiceLabels extracts the service identity from a container's
// label map. Returns an error when a required devstrap label is
// missing, which indicates the container was not created by devstrap
// (or was created by an incompatible version).
func ParseServiceLabels(labels map[string]string) (project, service string, err error) {
	if labels[LabelManagedBy] != ManagedByValue {
		return "", "", fmt.Errorf("container is not managed by devstrap (missing %s label)", LabelManagedBy)
	}

	project = labels[LabelProject]
	service = labels[LabelService]
	if project == "" || service == "" {
		return "", "", fmt.Errorf("devstrap labels incomplete: project=%q service=%q", project, service)
	}

	if err := model.ValidateName(service); err != nil {
		return "", "", fmt.Errorf("invalid service label: %w", err)
	}

	return project, service, nil
}

// ContainerName returns the canonical container name for a project's
// service: "devstrap-<project>-<service>". A deterministic name makes
// the containers recognizable in `docker ps` output and lets up
// detect an existing container for the same service.
func ContainerName(project, service string) string {
	return fmt.Sprintf("devstrap-%s-%s", project, service)
}
