// Package model defines the domain types for the devstrap CLI.
//
// These types describe a bootstrap plan — the ordered sequence of
// delegations to external tools (venv creation, dependency installs,
// the dev server) — and the results of executing it. They are shared
// by every other package so that the CLI layer, the runner, and the
// toolchain wrappers agree on one vocabulary.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// StepKind identifies which bootstrap operation a Step performs.
// The kinds correspond one-to-one with the operations of the original
// bootstrap procedure: create an isolated runtime, install backend
// dependencies, install frontend dependencies, start ancillary
// services, and run the dev server.
type StepKind string

const (
	// StepVenv creates (or reuses) the Python virtual environment.
	StepVenv StepKind = "venv"

	// StepBackendInstall installs backend dependencies from the
	// requirements manifest into the virtual environment.
	StepBackendInstall StepKind = "backend-install"

	// StepFrontendInstall installs frontend dependencies with the
	// detected (or configured) Node package manager.
	StepFrontendInstall StepKind = "frontend-install"

	// StepServices starts ancillary dev service containers.
	StepServices StepKind = "services"

	// StepServe runs the hot-reload dev server in the foreground.
	// It is always the last step of a plan because it blocks until
	// interrupted.
	StepServe StepKind = "serve"
)

// String returns the string representation of StepKind.
func (k StepKind) String() string {
	return string(k)
}

// IsValid checks whether the StepKind value is one of the predefined kinds.
func (k StepKind) IsValid() bool {
	switch k {
	case StepVenv, StepBackendInstall, StepFrontendInstall, StepServices, StepServe:
		return true
	default:
		return false
	}
}

// Step is a single unit of a bootstrap plan: one delegation to an
// external tool, executed in a specific working directory with an
// optional extra environment.
//
// Steps never change the devstrap process's own working directory —
// Dir is handed to exec.Cmd so that a failing or interrupted step
// leaves the process where it started.
type Step struct {
	// Kind identifies the operation this step performs.
	Kind StepKind

	// Name is a short human-readable label shown in progress output,
	// e.g. "create virtualenv" or "npm install".
	Name string

	// Dir is the working directory for the step's process.
	// Must be an absolute path by the time the runner sees it.
	Dir string

	// Command is the argv to execute. Command[0] is the binary name,
	// resolved via PATH unless it is already a path.
	Command []string

	// Env holds extra environment variables for the step's process,
	// merged over the inherited environment. Typically populated from
	// the project's env file.
	Env map[string]string
}

// StepStatus is the outcome classification of an executed step.
type StepStatus string

const (
	// StepOK means the step's process exited with status zero.
	StepOK StepStatus = "ok"

	// StepFailed means the step's process exited non-zero or could
	// not be started at all.
	StepFailed StepStatus = "failed"

	// StepSkipped means the step was not attempted because an earlier
	// step failed and keep-going mode was off.
	StepSkipped StepStatus = "skipped"
)

// String returns the string representation of StepStatus.
func (s StepStatus) String() string {
	return string(s)
}

// StepResult records the outcome of one executed (or skipped) step.
// A full plan execution produces one StepResult per Step, in order,
// so callers can report exactly what happened even in keep-going mode.
type StepResult struct {
	// Kind and Name are copied from the Step for reporting.
	Kind StepKind `json:"kind"`
	Name string   `json:"name"`

	// Status is the outcome classification.
	Status StepStatus `json:"status"`

	// ExitStatus is the process exit status. Zero on success, -1 when
	// the process could not be started or the step was skipped.
	ExitStatus int `json:"exitStatus"`

	// Duration is how long the step's process ran.
	Duration time.Duration `json:"duration"`

	// Err is the failure cause, nil for ok/skipped steps. It is not
	// serialized; the CLI layer formats it separately.
	Err error `json:"-"`
}

// ServiceSpec describes one ancillary dev service container declared
// in the project configuration (e.g. a database the backend needs).
// Services are the only Docker-backed resources devstrap manages.
type ServiceSpec struct {
	// Name identifies the service within the project. Must contain
	// only alphanumeric characters and hyphens.
	Name string `yaml:"name" json:"name"`

	// Image is the container image reference, e.g. "postgres:16".
	Image string `yaml:"image" json:"image"`

	// Ports lists port mappings in "hostPort:containerPort" form.
	Ports []string `yaml:"ports,omitempty" json:"ports,omitempty"`

	// Env holds environment variables for the service container.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// Validate checks that the ServiceSpec is usable: non-empty name and
// image, valid name characters, and well-formed port mappings.
func (s *ServiceSpec) Validate() error {
	if err := ValidateName(s.Name); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if s.Image == "" {
		return fmt.Errorf("service %q: image must not be empty", s.Name)
	}
	for _, p := range s.Ports {
		host, ctr, ok := strings.Cut(p, ":")
		if !ok || host == "" || ctr == "" {
			return fmt.Errorf("service %q: invalid port mapping %q (want host:container)", s.Name, p)
		}
	}
	return nil
}

// ServiceStatus is the lifecycle state of a service container as
// reconstructed from the Docker API.
type ServiceStatus string

const (
	// ServiceRunning indicates the container is running.
	ServiceRunning ServiceStatus = "running"

	// ServiceStopped indicates the container exists but is not running.
	ServiceStopped ServiceStatus = "stopped"

	// ServiceAbsent indicates no container exists for the service.
	ServiceAbsent ServiceStatus = "absent"
)

// String returns the string representation of ServiceStatus.
func (s ServiceStatus) String() string {
	return string(s)
}

// ServiceInfo holds runtime information about one managed service
// container, fetched from the Docker API. There is no state file —
// Docker labels are the only persistence mechanism.
type ServiceInfo struct {
	// Service is the service name from the devstrap.service label.
	Service string `json:"service"`

	// Project is the project name from the devstrap.project label.
	Project string `json:"project"`

	// ContainerID is the Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable container name.
	ContainerName string `json:"containerName"`

	// Status is the lifecycle state derived from the container state.
	Status ServiceStatus `json:"status"`

	// Image is the container image reference.
	Image string `json:"image"`

	// Labels is the full label set on the container.
	Labels map[string]string `json:"labels,omitempty"`
}

// ToolCheck records the result of probing one external tool that the
// bootstrap depends on (python, pip, node, npm, docker). Used by the
// status command's environment report.
type ToolCheck struct {
	// Tool is the binary name that was probed.
	Tool string `json:"tool"`

	// Found reports whether the binary was found on PATH.
	Found bool `json:"found"`

	// Path is the resolved binary path when found.
	Path string `json:"path,omitempty"`

	// Version is the tool's self-reported version string when it
	// could be captured, e.g. "Python 3.12.4".
	Version string `json:"version,omitempty"`

	// Required marks tools the current project actually needs.
	// Missing optional tools are reported but do not fail checks.
	Required bool `json:"required"`
}

// nameRegex validates project and service names: alphanumeric plus
// hyphens, starting and ending with an alphanumeric character.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid project or service
// name. Names end up in Docker container names and label values, so
// the character set is kept deliberately narrow.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// ExitCode defines the CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigInvalid indicates the devstrap configuration file
	// exists but could not be parsed or failed validation.
	ExitConfigInvalid ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitToolMissing indicates a required external tool (python,
	// npm, ...) was not found on PATH.
	ExitToolMissing ExitCode = 4

	// ExitStepFailed indicates a bootstrap step's process exited
	// non-zero.
	ExitStepFailed ExitCode = 5

	// ExitPortInUse indicates the configured dev server port is
	// already bound by another process.
	ExitPortInUse ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
