// load.go implements configuration discovery and parsing.
//
// Discovery walks upward from the starting directory looking for a
// devstrap.yaml / devstrap.yml / devstrap.jsonc, the same way tools
// like git find their repository root. The first directory containing
// any candidate wins; within a directory the candidates are probed in
// priority order.
//
// JSONC files are stripped of comments with tidwall/jsonc before
// being handed to encoding/json; YAML files go straight to yaml.v3.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/devstrap/internal/model"
)

// FindConfigFile searches for a devstrap config file starting at
// startDir and walking up toward the filesystem root. It returns the
// absolute path of the first file found, or an empty string (and nil
// error) when no config file exists anywhere above startDir.
//
// Not finding a file is deliberately not an error: zero-config
// operation with built-in defaults is a supported mode.
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}

	for {
		for _, name := range configFileNames {
			candidate := filepath.Join(dir, name)
			if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without finding a config file.
			return "", nil
		}
		dir = parent
	}
}

// Load parses the config file at path, applies defaults, and
// validates the result. The returned Config's Root is the directory
// containing the file.
//
// Parse and validation failures return a CLIError with
// ExitConfigInvalid: a present-but-broken config must stop the
// bootstrap rather than silently falling back to defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	cfg := &Config{}

	// Format selection is by extension only. Content sniffing would
	// accept misnamed files, which makes diagnostics worse.
	if strings.HasSuffix(path, ".jsonc") {
		// jsonc.ToJSON rewrites comments and trailing commas into
		// whitespace, preserving byte offsets for error reporting.
		clean := jsonc.ToJSON(raw)
		if err := json.Unmarshal(clean, cfg); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigInvalid,
				fmt.Sprintf("failed to parse %s", path), err)
		}
	} else {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigInvalid,
				fmt.Sprintf("failed to parse %s", path), err)
		}
	}

	cfg.Root = filepath.Dir(path)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("invalid config in %s", path), err)
	}

	return cfg, nil
}

// Discover locates and loads the project configuration for the given
// starting directory. When no config file exists, it returns the
// zero-config defaults rooted at startDir.
//
// This is the entry point every CLI command uses.
func Discover(startDir string) (*Config, error) {
	path, err := FindConfigFile(startDir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "config discovery failed", err)
	}

	if path == "" {
		root, absErr := filepath.Abs(startDir)
		if absErr != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, "failed to resolve project root", absErr)
		}
		return Default(root), nil
	}

	return Load(path)
}

// LoadEnvFile reads the project's dotenv file into a map. A missing
// file yields an empty map, matching the original application's
// optional .env behavior; a present-but-unreadable or malformed file
// is an error.
//
// The values are NOT applied to the devstrap process environment.
// They are passed to step and server processes explicitly, so that
// running devstrap does not mutate its own environment.
func LoadEnvFile(cfg *Config) (map[string]string, error) {
	path := cfg.EnvFilePath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("failed to read env file %s", path), err)
	}
	return env, nil
}

// MissingRequiredEnv returns the names from cfg.RequiredEnv that are
// present neither in the loaded env file nor in the process
// environment. Used by the status command to surface incomplete
// configuration before the server fails at runtime.
func MissingRequiredEnv(cfg *Config, fileEnv map[string]string) []string {
	var missing []string
	for _, key := range cfg.RequiredEnv {
		if _, ok := fileEnv[key]; ok {
			continue
		}
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		missing = append(missing, key)
	}
	return missing
}
