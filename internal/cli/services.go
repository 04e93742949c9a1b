// Package cli — services.go implements the "devstrap services"
// command group: up, down, and status for the ancillary dev service
// containers a project declares (databases, brokers, caches).
//
// Two management modes exist, selected by the config:
//   - compose_file: everything is delegated to `docker compose` with
//     the configured file.
//   - containers: each ServiceSpec is run as a single labelled
//     container through the Docker API. devstrap.* labels are the
//     only state — discovery always goes back to the daemon.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devstrap/internal/config"
	"github.com/shinji-kodama/devstrap/internal/docker"
	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/shinji-kodama/devstrap/internal/port"
)

// serviceStartTimeout bounds how long services up waits for a started
// container to accept connections on each published port. Database
// images routinely take a few seconds on first start (initdb), so the
// bound is generous.
const serviceStartTimeout = 30 * time.Second

// NewServicesCommand creates the "services" cobra command with its
// up/down/status subcommands.
func NewServicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Manage the project's dev service containers",
		Long: `Manage the ancillary dev services declared in devstrap.yaml.

Services are either individual containers managed through the Docker
API and tagged with devstrap labels, or — when a compose file is
configured — delegated to docker compose.

Examples:
  devstrap services up
  devstrap services status
  devstrap services down --volumes`,
	}

	cmd.AddCommand(newServicesUpCommand())
	cmd.AddCommand(newServicesDownCommand())
	cmd.AddCommand(newServicesStatusCommand())

	return cmd
}

// newServicesUpCommand creates the "services up" subcommand.
func newServicesUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Start all declared dev services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := discoverConfig()
			if err != nil {
				return err
			}
			return servicesUp(cmd.Context(), cfg)
		},
	}
}

// newServicesDownCommand creates the "services down" subcommand.
func newServicesDownCommand() *cobra.Command {
	var removeVolumes bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop and remove the project's dev service containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := discoverConfig()
			if err != nil {
				return err
			}
			return servicesDown(cmd.Context(), cfg, removeVolumes)
		},
	}

	cmd.Flags().BoolVar(&removeVolumes, "volumes", false, "Also remove service data volumes")
	return cmd
}

// newServicesStatusCommand creates the "services status" subcommand.
func newServicesStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the project's dev services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := discoverConfig()
			if err != nil {
				return err
			}
			return servicesStatus(cmd.Context(), cfg)
		},
	}
}

// discoverConfig loads the project config from the current directory.
func discoverConfig() (*config.Config, error) {
	cwd, err := currentDir()
	if err != nil {
		return nil, err
	}
	return config.Discover(cwd)
}

// servicesUp starts every declared service. Shared with the up
// command's orchestration.
//
// For container mode, each service is reconciled individually:
// running containers are left alone, stopped ones are restarted, and
// absent ones are created with `docker run`.
func servicesUp(ctx context.Context, cfg *config.Config) error {
	if cfg.Services.ComposeFile != "" {
		VerboseLog("Delegating services to docker compose (%s)", cfg.Services.ComposeFile)
		return docker.ComposeUp(ctx, cfg.Root, cfg.Services.ComposeFile)
	}
	if len(cfg.Services.Containers) == 0 {
		VerboseLog("No services declared")
		return nil
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err // NewClient already returns CLIError with ExitDockerNotRunning
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	for _, spec := range cfg.Services.Containers {
		existing, err := docker.FindService(ctx, cli, cfg.Name, spec.Name)
		if err != nil {
			return err
		}

		switch existing.Status {
		case model.ServiceRunning:
			VerboseLog("Service %q already running (%s)", spec.Name, existing.ContainerName)

		case model.ServiceStopped:
			VerboseLog("Starting existing container for service %q", spec.Name)
			if err := docker.StartContainer(ctx, cli, existing.ContainerID); err != nil {
				return err
			}
			if err := awaitServicePorts(ctx, spec, serviceStartTimeout); err != nil {
				return err
			}

		case model.ServiceAbsent:
			VerboseLog("Creating container for service %q (%s)", spec.Name, spec.Image)
			if err := docker.RunService(ctx, cfg.Name, cfg.Root, spec); err != nil {
				return err
			}
			if err := awaitServicePorts(ctx, spec, serviceStartTimeout); err != nil {
				return err
			}
		}
	}

	return nil
}

// awaitServicePorts blocks until every published host port of the
// service accepts TCP connections, so the steps that follow (the dev
// server, typically) see a ready database instead of a connection
// refused during its first seconds.
//
// Services without port mappings return immediately; there is nothing
// observable to wait for.
func awaitServicePorts(ctx context.Context, spec model.ServiceSpec, timeout time.Duration) error {
	scanner := port.NewScanner()
	for _, mapping := range spec.Ports {
		hostPort, _, _ := strings.Cut(mapping, ":")
		p, err := strconv.Atoi(hostPort)
		if err != nil {
			// Validation guarantees host:container shape but not
			// numeric ports ("127.0.0.1:5432:5432" forms land here);
			// skip rather than guess.
			continue
		}

		VerboseLog("Waiting for service %q on port %d", spec.Name, p)
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		err = scanner.WaitReachable(waitCtx, "127.0.0.1", p, 500*time.Millisecond)
		cancel()
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("service %q did not become reachable on port %d", spec.Name, p), err)
		}
	}
	return nil
}

// servicesDown stops and removes every managed container of the
// project. Compose mode delegates to `docker compose down`.
func servicesDown(ctx context.Context, cfg *config.Config, removeVolumes bool) error {
	if cfg.Services.ComposeFile != "" {
		return docker.ComposeDown(ctx, cfg.Root, cfg.Services.ComposeFile, removeVolumes)
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	services, err := docker.ListProjectServices(ctx, cli, cfg.Name)
	if err != nil {
		return err
	}
	if len(services) == 0 {
		if !IsJSONOutput() {
			fmt.Println("No service containers to remove.")
		}
		return nil
	}

	for _, svc := range services {
		VerboseLog("Removing container %s (service %q)", svc.ContainerName, svc.Service)
		if svc.Status == model.ServiceRunning {
			if err := docker.StopContainer(ctx, cli, svc.ContainerID); err != nil {
				return err
			}
		}
		if err := docker.RemoveContainer(ctx, cli, svc.ContainerID, removeVolumes); err != nil {
			return err
		}
	}

	if !IsJSONOutput() {
		fmt.Printf("Removed %d service container(s).\n", len(services))
	}
	return nil
}

// servicesStatus displays the state of every declared service,
// including declared-but-absent ones, so the report always covers the
// full configuration.
func servicesStatus(ctx context.Context, cfg *config.Config) error {
	if cfg.Services.ComposeFile != "" {
		out, err := docker.ComposePS(ctx, cfg.Root, cfg.Services.ComposeFile)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	existing, err := docker.ListProjectServices(ctx, cli, cfg.Name)
	if err != nil {
		return err
	}

	infos := mergeDeclaredServices(cfg, existing)

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(infos, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(infos) == 0 {
		fmt.Println("No services declared.")
		return nil
	}
	for _, info := range infos {
		name := info.ContainerName
		if name == "" {
			name = "-"
		}
		fmt.Printf("  %-16s %-10s %s\n", info.Service, info.Status, name)
	}
	return nil
}

// mergeDeclaredServices combines the declared service list with the
// discovered containers: every declared service appears exactly once,
// absent ones with ServiceAbsent status, and stray containers (label
// match but no longer declared) are appended so the user sees them.
func mergeDeclaredServices(cfg *config.Config, existing []model.ServiceInfo) []model.ServiceInfo {
	byName := make(map[string]model.ServiceInfo, len(existing))
	for _, svc := range existing {
		byName[svc.Service] = svc
	}

	infos := make([]model.ServiceInfo, 0, len(cfg.Services.Containers))
	seen := make(map[string]bool, len(cfg.Services.Containers))
	for _, spec := range cfg.Services.Containers {
		seen[spec.Name] = true
		if svc, ok := byName[spec.Name]; ok {
			infos = append(infos, svc)
			continue
		}
		infos = append(infos, model.ServiceInfo{
			Service: spec.Name,
			Project: cfg.Name,
			Status:  model.ServiceAbsent,
			Image:   spec.Image,
		})
	}

	// Stray containers come last, sorted by name for stable output.
	var strays []model.ServiceInfo
	for _, svc := range existing {
		if !seen[svc.Service] {
			strays = append(strays, svc)
		}
	}
	sort.Slice(strays, func(i, j int) bool { return strays[i].Service < strays[j].Service })
	return append(infos, strays...)
}
