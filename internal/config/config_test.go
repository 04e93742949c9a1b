package config

import (
	"path/filepath"
	"testing"

	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault verifies the zero-config defaults: a .venv virtualenv,
// requirements.txt, the uvicorn reload command on 127.0.0.1:8000, and
// a frontend/ directory. These defaults are the contract for running
// devstrap in a project with no config file.
func TestDefault(t *testing.T) {
	cfg := Default("/home/dev/voice-app")

	assert.Equal(t, "voice-app", cfg.Name)
	assert.Equal(t, ".env", cfg.EnvFile)
	assert.Equal(t, ".", cfg.Backend.Dir)
	assert.Equal(t, ".venv", cfg.Backend.Venv)
	assert.Equal(t, "requirements.txt", cfg.Backend.Requirements)
	assert.Equal(t, []string{"uvicorn", "main:app", "--reload"}, cfg.Backend.Server.Command)
	assert.Equal(t, "127.0.0.1", cfg.Backend.Server.Host)
	assert.Equal(t, 8000, cfg.Backend.Server.Port)
	assert.Equal(t, ReloadBuiltin, cfg.Backend.Server.Reload)
	assert.Equal(t, "frontend", cfg.Frontend.Dir)

	require.NoError(t, cfg.Validate())
}

// TestApplyDefaults_PartialConfig verifies that defaults only fill
// unset fields and never overwrite explicit values.
func TestApplyDefaults_PartialConfig(t *testing.T) {
	cfg := &Config{
		Root: "/home/dev/api",
		Name: "custom-name",
		Backend: BackendConfig{
			Dir: "backend",
			Server: ServerConfig{
				Port: 9000,
			},
		},
	}
	cfg.applyDefaults()

	// Explicit values survive.
	assert.Equal(t, "custom-name", cfg.Name)
	assert.Equal(t, "backend", cfg.Backend.Dir)
	assert.Equal(t, 9000, cfg.Backend.Server.Port)

	// Unset fields get their defaults.
	assert.Equal(t, ".venv", cfg.Backend.Venv)
	assert.Equal(t, "127.0.0.1", cfg.Backend.Server.Host)
	assert.Equal(t, ReloadBuiltin, cfg.Backend.Server.Reload)
}

// TestValidate covers the validation rules: reload mode enum, port
// range, package manager enum, and the compose/containers exclusion.
func TestValidate(t *testing.T) {
	// valid returns a complete, passing config that each case mutates.
	valid := func() *Config {
		return Default("/home/dev/app")
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		hasError bool
	}{
		{
			name:     "defaults are valid",
			mutate:   func(c *Config) {},
			hasError: false,
		},
		{
			name:     "watch reload mode",
			mutate:   func(c *Config) { c.Backend.Server.Reload = ReloadWatch },
			hasError: false,
		},
		{
			name:     "off reload mode",
			mutate:   func(c *Config) { c.Backend.Server.Reload = ReloadOff },
			hasError: false,
		},
		{
			name:     "unknown reload mode",
			mutate:   func(c *Config) { c.Backend.Server.Reload = "auto" },
			hasError: true,
		},
		{
			name:     "invalid project name",
			mutate:   func(c *Config) { c.Name = "my app" },
			hasError: true,
		},
		{
			name:     "port zero",
			mutate:   func(c *Config) { c.Backend.Server.Port = 0 },
			hasError: true,
		},
		{
			name:     "port too high",
			mutate:   func(c *Config) { c.Backend.Server.Port = 70000 },
			hasError: true,
		},
		{
			name:     "valid package manager",
			mutate:   func(c *Config) { c.Frontend.PackageManager = "pnpm" },
			hasError: false,
		},
		{
			name:     "unknown package manager",
			mutate:   func(c *Config) { c.Frontend.PackageManager = "cargo" },
			hasError: true,
		},
		{
			name: "compose file alone",
			mutate: func(c *Config) {
				c.Services.ComposeFile = "docker-compose.yml"
			},
			hasError: false,
		},
		{
			name: "containers alone",
			mutate: func(c *Config) {
				c.Services.Containers = []model.ServiceSpec{{Name: "db", Image: "postgres:16"}}
			},
			hasError: false,
		},
		{
			name: "compose file and containers together",
			mutate: func(c *Config) {
				c.Services.ComposeFile = "docker-compose.yml"
				c.Services.Containers = []model.ServiceSpec{{Name: "db", Image: "postgres:16"}}
			},
			hasError: true,
		},
		{
			name: "invalid container spec",
			mutate: func(c *Config) {
				c.Services.Containers = []model.ServiceSpec{{Name: "db", Image: ""}}
			},
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestPathHelpers verifies that the absolute-path accessors compose
// Root with the configured relative paths.
func TestPathHelpers(t *testing.T) {
	cfg := &Config{
		Root:    "/home/dev/app",
		EnvFile: ".env",
		Backend: BackendConfig{
			Dir:          "api",
			Venv:         ".venv",
			Requirements: "requirements.txt",
		},
		Frontend: FrontendConfig{Dir: "web"},
	}

	assert.Equal(t, filepath.Join("/home/dev/app", "api"), cfg.BackendDir())
	assert.Equal(t, filepath.Join("/home/dev/app", "web"), cfg.FrontendDir())
	assert.Equal(t, filepath.Join("/home/dev/app", "api", ".venv"), cfg.VenvDir())
	assert.Equal(t, filepath.Join("/home/dev/app", "api", "requirements.txt"), cfg.RequirementsPath())
	assert.Equal(t, filepath.Join("/home/dev/app", ".env"), cfg.EnvFilePath())
}

// TestPathHelpers_BackendAtRoot verifies the default "." backend dir
// resolves to the project root itself.
func TestPathHelpers_BackendAtRoot(t *testing.T) {
	cfg := Default("/home/dev/app")
	assert.Equal(t, filepath.Clean("/home/dev/app"), filepath.Clean(cfg.BackendDir()))
}

// TestSanitizeProjectName verifies directory base names become valid
// project names: lowered, invalid runes replaced with hyphens, and a
// fallback when nothing usable survives.
func TestSanitizeProjectName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"voice-app", "voice-app"},
		{"VoiceApp", "voiceapp"},
		{"my project", "my-project"},
		{"my_project", "my-project"},
		{"app.v2", "app-v2"},
		{"---", "devstrap"},
		{"日本語", "devstrap"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeProjectName(tt.input))
		})
	}
}
