// container.go implements lifecycle operations for devstrap-managed
// service containers: discovery, creation, stop, and removal.
//
// Discovery, stop, and removal go through the Docker SDK with
// label-based filters. Creation shells out to `docker run`, because
// the SDK's ContainerCreate + ContainerStart workflow requires
// constructing Config/HostConfig/NetworkingConfig structs for what is
// a single well-understood CLI invocation — the same trade-off git
// tooling makes by invoking the git binary.
package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/shinji-kodama/devstrap/internal/model"
)

// stopTimeout is the grace period (seconds) a service container gets
// between SIGTERM and SIGKILL when stopped. Databases need a moment
// to flush.
var stopTimeout = 10

// ListProjectServices queries the Docker daemon for all containers
// carrying devstrap labels for the given project, including stopped
// ones. This is the primary discovery entry point for the services
// and status commands.
func ListProjectServices(ctx context.Context, cli *Client, project string) ([]model.ServiceInfo, error) {
	// Filter server-side on both labels: cheaper than listing all
	// containers and filtering in Go.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
		filters.Arg("label", LabelProject+"="+project),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ServiceInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToServiceInfo(c))
	}

	return result, nil
}

// FindService returns the ServiceInfo for one named service of a
// project, or a ServiceInfo with ServiceAbsent status when no
// container exists for it.
func FindService(ctx context.Context, cli *Client, project, service string) (model.ServiceInfo, error) {
	services, err := ListProjectServices(ctx, cli, project)
	if err != nil {
		return model.ServiceInfo{}, err
	}

	for _, s := range services {
		if s.Service == service {
			return s, nil
		}
	}

	return model.ServiceInfo{
		Service: service,
		Project: project,
		Status:  model.ServiceAbsent,
	}, nil
}

// containerToServiceInfo converts a Docker API Container struct to
// the domain ServiceInfo. This is a pure mapping function; it
// tolerates missing labels (Service/Project come out empty) so that
// listing never fails on a half-labelled container.
func containerToServiceInfo(c types.Container) model.ServiceInfo {
	// Docker returns names as a slice with a leading "/" that is an
	// artifact of the API, not meaningful to users.
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	status := model.ServiceStopped
	if c.State == "running" {
		status = model.ServiceRunning
	}

	// Label parsing is tolerant here: a container with foreign or
	// incomplete labels still lists, just with an empty identity.
	project, service, err := ParseServiceLabels(c.Labels)
	if err != nil {
		project, service = "", ""
	}

	return model.ServiceInfo{
		Service:       service,
		Project:       project,
		ContainerID:   c.ID,
		ContainerName: name,
		Status:        status,
		Image:         c.Image,
		Labels:        c.Labels,
	}
}

// RunService creates and starts a container for the given service
// spec via `docker run -d`, applying the devstrap labels, port
// mappings, and environment from the spec.
//
// If a container with the canonical name already exists, the caller
// is expected to have checked via FindService first; `docker run`
// fails with a name conflict otherwise, which surfaces through the
// returned error.
func RunService(ctx context.Context, project, projectRoot string, spec model.ServiceSpec) error {
	name := ContainerName(project, spec.Name)
	labels := BuildServiceLabels(project, spec.Name, projectRoot, time.Now())

	args := []string{"run", "-d", "--name", name}
	for k, v := range labels {
		args = append(args, "--label", k+"="+v)
	}
	for _, p := range spec.Ports {
		args = append(args, "-p", p)
	}
	for k, v := range spec.Env {
		args = append(args, "-e", k+"="+v)
	}
	args = append(args, spec.Image)

	// #nosec G204 — args are built from the validated service spec
	cmd := exec.CommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("docker run failed for service %q: %s", spec.Name, strings.TrimSpace(string(output))),
			err,
		)
	}
	return nil
}

// StartContainer starts an existing (stopped) container by ID.
func StartContainer(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.Inner().ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start container %s", shortID(containerID)),
			err,
		)
	}
	return nil
}

// StopContainer gracefully stops a running container by ID, giving it
// stopTimeout seconds before the daemon escalates to SIGKILL.
func StopContainer(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{Timeout: &stopTimeout}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop container %s", shortID(containerID)),
			err,
		)
	}
	return nil
}

// RemoveContainer removes a container by ID. Force removal is used so
// a wedged container cannot block teardown; removeVolumes also drops
// the container's anonymous volumes for a complete cleanup.
func RemoveContainer(ctx context.Context, cli *Client, containerID string, removeVolumes bool) error {
	err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: removeVolumes,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %s", shortID(containerID)),
			err,
		)
	}
	return nil
}

// shortID truncates a container ID to the 12-character form docker's
// own CLI displays.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// ComposeUp starts services from a compose file: "docker compose -f
// <file> up -d" in the project directory. Used when the project
// configures services.compose_file instead of individual containers.
//
// The -d flag runs containers detached so the bootstrap can continue
// to the serve step.
func ComposeUp(ctx context.Context, projectDir, composeFile string) error {
	return runCompose(ctx, projectDir, []string{"compose", "-f", composeFile, "up", "-d"})
}

// ComposeDown stops and removes compose-managed services. When
// removeVolumes is true, named and anonymous volumes are removed too.
func ComposeDown(ctx context.Context, projectDir, composeFile string, removeVolumes bool) error {
	args := []string{"compose", "-f", composeFile, "down"}
	if removeVolumes {
		args = append(args, "-v")
	}
	return runCompose(ctx, projectDir, args)
}

// ComposePS returns the raw `docker compose ps` output for status
// display. Compose owns the state of its services; re-deriving it
// from labels would duplicate what compose already reports.
func ComposePS(ctx context.Context, projectDir, composeFile string) (string, error) {
	// #nosec G204 — composeFile comes from the validated project config
	cmd := exec.CommandContext(ctx, "docker", "compose", "-f", composeFile, "ps")
	cmd.Dir = projectDir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("docker compose ps failed: %s", strings.TrimSpace(string(output))),
			err,
		)
	}
	return string(output), nil
}

// runCompose executes a docker compose command as a child process in
// the given directory. "docker compose" (plugin subcommand) is used
// rather than the legacy standalone docker-compose binary.
//
// On failure the combined output is folded into the error, because
// compose failures most commonly stem from Docker daemon issues and
// the daemon's message is the useful part.
func runCompose(ctx context.Context, projectDir string, args []string) error {
	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Dir = projectDir
	cmd.Env = os.Environ()

	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("docker compose failed: %s", strings.TrimSpace(string(output))),
			err,
		)
	}
	return nil
}
