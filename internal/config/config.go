// Package config loads and validates the devstrap project configuration.
//
// Configuration lives in a devstrap.yaml (or devstrap.jsonc, when the
// author wants comments) at the project root, discovered by upward
// search from the current directory. Every field is optional: with no
// config file at all, the defaults reproduce the classic two-tier
// bootstrap — a .venv virtualenv, `pip install -r requirements.txt`,
// `uvicorn main:app --reload`, and `npm install` in ./frontend.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/devstrap/internal/model"
)

// Config file names probed during upward discovery, in priority order.
// YAML is the primary format; JSONC is accepted for projects that keep
// commented configuration alongside devcontainer-style files.
var configFileNames = []string{
	"devstrap.yaml",
	"devstrap.yml",
	"devstrap.jsonc",
}

// Reload mode values for ServerConfig.Reload.
const (
	// ReloadBuiltin means the server command reloads itself (uvicorn
	// --reload, vite, air, ...). devstrap just runs it.
	ReloadBuiltin = "builtin"

	// ReloadWatch means devstrap supervises the server with its own
	// file watcher and restarts the process on source changes.
	ReloadWatch = "watch"

	// ReloadOff disables reloading entirely. The server runs once.
	ReloadOff = "off"
)

// Config is the root of the devstrap project configuration.
//
// Root is filled in by the loader (the directory containing the config
// file, or the starting directory when no file exists) and is never
// read from the file itself.
type Config struct {
	// Name is the project name used for Docker labels and container
	// name prefixes. Defaults to the base name of the project root.
	Name string `yaml:"name" json:"name"`

	// EnvFile is the dotenv file loaded into step and server
	// environments, relative to the project root. Defaults to ".env".
	// A missing env file is not an error.
	EnvFile string `yaml:"env_file" json:"env_file"`

	// RequiredEnv lists environment variable names that must be
	// present (in the process environment or the env file) for the
	// project to run. The status command reports missing ones.
	RequiredEnv []string `yaml:"required_env" json:"required_env"`

	// Backend configures the Python side of the project.
	Backend BackendConfig `yaml:"backend" json:"backend"`

	// Frontend configures the Node side of the project.
	Frontend FrontendConfig `yaml:"frontend" json:"frontend"`

	// Services configures ancillary dev dependency containers.
	Services ServicesConfig `yaml:"services" json:"services"`

	// Root is the absolute path of the project root directory.
	// Populated by the loader, not by the file.
	Root string `yaml:"-" json:"-"`
}

// BackendConfig describes the Python backend: where it lives, which
// interpreter and virtualenv to use, the requirements manifest, and
// the dev server.
type BackendConfig struct {
	// Dir is the backend directory relative to the project root.
	// Defaults to "." (backend at the root, as in the original layout).
	Dir string `yaml:"dir" json:"dir"`

	// Python overrides interpreter auto-detection (python3, then
	// python). May be a bare name or a path.
	Python string `yaml:"python" json:"python"`

	// Venv is the virtualenv directory relative to Dir. Defaults to ".venv".
	Venv string `yaml:"venv" json:"venv"`

	// Requirements is the pip manifest relative to Dir.
	// Defaults to "requirements.txt".
	Requirements string `yaml:"requirements" json:"requirements"`

	// Server configures the dev server process.
	Server ServerConfig `yaml:"server" json:"server"`
}

// ServerConfig describes the hot-reload dev server process.
type ServerConfig struct {
	// Command is the argv run from the backend directory with the
	// virtualenv's bin directory prepended to PATH.
	// Defaults to [uvicorn main:app --reload].
	Command []string `yaml:"command" json:"command"`

	// Host and Port are where the server is expected to bind. Used
	// for the pre-start availability check and status reporting, not
	// injected into the command.
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	// Reload selects the reload strategy: builtin, watch, or off.
	// Defaults to builtin because the default uvicorn command
	// carries --reload itself.
	Reload string `yaml:"reload" json:"reload"`

	// Watch lists extra directories (relative to the backend dir)
	// for the watch supervisor. Defaults to the backend dir itself.
	Watch []string `yaml:"watch" json:"watch"`
}

// FrontendConfig describes the Node frontend.
type FrontendConfig struct {
	// Dir is the frontend directory relative to the project root.
	// Defaults to "frontend". An absent directory disables the
	// frontend install step rather than failing.
	Dir string `yaml:"dir" json:"dir"`

	// PackageManager overrides lockfile-based detection.
	// One of npm, yarn, pnpm, bun.
	PackageManager string `yaml:"package_manager" json:"package_manager"`
}

// ServicesConfig describes ancillary dev services. Either a compose
// file (delegated to `docker compose`) or a list of single containers
// managed directly through the Docker API — not both.
type ServicesConfig struct {
	// ComposeFile is a docker compose YAML relative to the project
	// root. When set, Containers must be empty.
	ComposeFile string `yaml:"compose_file" json:"compose_file"`

	// Containers lists individually managed service containers.
	Containers []model.ServiceSpec `yaml:"containers" json:"containers"`
}

// Default returns a Config carrying the zero-config defaults for the
// given project root. This is what `devstrap up` runs with when no
// config file exists.
func Default(root string) *Config {
	cfg := &Config{Root: root}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in every unset field with its documented default.
// Called by the loader after parsing, so a partial config file only
// overrides what it mentions.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = sanitizeProjectName(filepath.Base(c.Root))
	}
	if c.EnvFile == "" {
		c.EnvFile = ".env"
	}
	if c.Backend.Dir == "" {
		c.Backend.Dir = "."
	}
	if c.Backend.Venv == "" {
		c.Backend.Venv = ".venv"
	}
	if c.Backend.Requirements == "" {
		c.Backend.Requirements = "requirements.txt"
	}
	if len(c.Backend.Server.Command) == 0 {
		c.Backend.Server.Command = []string{"uvicorn", "main:app", "--reload"}
	}
	if c.Backend.Server.Host == "" {
		c.Backend.Server.Host = "127.0.0.1"
	}
	if c.Backend.Server.Port == 0 {
		c.Backend.Server.Port = 8000
	}
	if c.Backend.Server.Reload == "" {
		c.Backend.Server.Reload = ReloadBuiltin
	}
	if c.Frontend.Dir == "" {
		c.Frontend.Dir = "frontend"
	}
}

// Validate checks the parsed configuration for contradictions and
// invalid values. It assumes applyDefaults has already run.
func (c *Config) Validate() error {
	if err := model.ValidateName(c.Name); err != nil {
		return fmt.Errorf("project name: %w", err)
	}

	switch c.Backend.Server.Reload {
	case ReloadBuiltin, ReloadWatch, ReloadOff:
	default:
		return fmt.Errorf("server.reload: invalid value %q (valid: builtin, watch, off)", c.Backend.Server.Reload)
	}

	if c.Backend.Server.Port < 1 || c.Backend.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range (1-65535)", c.Backend.Server.Port)
	}

	switch c.Frontend.PackageManager {
	case "", "npm", "yarn", "pnpm", "bun":
	default:
		return fmt.Errorf("frontend.package_manager: invalid value %q (valid: npm, yarn, pnpm, bun)", c.Frontend.PackageManager)
	}

	// Compose delegation and direct container management are mutually
	// exclusive — mixing them would split ownership of the same
	// project's services across two mechanisms.
	if c.Services.ComposeFile != "" && len(c.Services.Containers) > 0 {
		return fmt.Errorf("services: compose_file and containers are mutually exclusive")
	}
	for i := range c.Services.Containers {
		if err := c.Services.Containers[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// BackendDir returns the absolute path of the backend directory.
func (c *Config) BackendDir() string {
	return filepath.Join(c.Root, c.Backend.Dir)
}

// FrontendDir returns the absolute path of the frontend directory.
func (c *Config) FrontendDir() string {
	return filepath.Join(c.Root, c.Frontend.Dir)
}

// VenvDir returns the absolute path of the virtualenv directory.
func (c *Config) VenvDir() string {
	return filepath.Join(c.BackendDir(), c.Backend.Venv)
}

// RequirementsPath returns the absolute path of the pip manifest.
func (c *Config) RequirementsPath() string {
	return filepath.Join(c.BackendDir(), c.Backend.Requirements)
}

// EnvFilePath returns the absolute path of the dotenv file.
func (c *Config) EnvFilePath() string {
	return filepath.Join(c.Root, c.EnvFile)
}

// sanitizeProjectName converts a directory base name into a valid
// project name: invalid characters are replaced with hyphens and the
// result is trimmed. Falls back to "devstrap" if nothing survives.
func sanitizeProjectName(base string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "devstrap"
	}
	return name
}
