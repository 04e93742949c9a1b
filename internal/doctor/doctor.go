// Package doctor probes the external tools a project's bootstrap
// depends on and reports what it finds. The checks are advisory: a
// missing optional tool (docker on a project with no services) is
// reported but not fatal, while a missing required one fails the
// status command's check mode.
package doctor

import (
	"context"
	"os/exec"
	"strings"

	"github.com/shinji-kodama/devstrap/internal/config"
	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/shinji-kodama/devstrap/internal/nodejs"
)

// probeEntry describes one tool to locate and whether the current
// project actually needs it.
type probeEntry struct {
	tool     string
	required bool
}

// CheckTools probes every tool the given project configuration can
// invoke and returns one ToolCheck per tool, in a stable order.
//
// Which tools count as required depends on the config: the Python
// interpreter always, node and the frontend package manager only when
// a frontend manifest exists, docker only when services are declared.
func CheckTools(ctx context.Context, cfg *config.Config) []model.ToolCheck {
	interpreter := cfg.Backend.Python
	if interpreter == "" {
		interpreter = "python3"
	}

	hasFrontend := nodejs.HasManifest(cfg.FrontendDir())
	hasServices := cfg.Services.ComposeFile != "" || len(cfg.Services.Containers) > 0

	// When detection fails (bad override in config), the override is
	// still probed so the report shows it missing rather than hiding it.
	pmName := cfg.Frontend.PackageManager
	if pm, err := nodejs.DetectPackageManager(cfg.FrontendDir(), cfg.Frontend.PackageManager); err == nil {
		pmName = pm.String()
	}

	probes := []probeEntry{
		{interpreter, true},
		{"node", hasFrontend},
		{pmName, hasFrontend},
		{"docker", hasServices},
	}

	checks := make([]model.ToolCheck, 0, len(probes))
	for _, p := range probes {
		check := probeTool(ctx, p.tool)
		check.Required = p.required
		checks = append(checks, check)
	}
	return checks
}

// probeTool looks up one tool on PATH and, when found, captures its
// version banner via `<tool> --version`.
func probeTool(ctx context.Context, tool string) model.ToolCheck {
	check := model.ToolCheck{Tool: tool}

	path, err := exec.LookPath(tool)
	if err != nil {
		return check
	}
	check.Found = true
	check.Path = path

	// Version capture is best-effort; a tool that exists but cannot
	// print its version is still "found". CombinedOutput because some
	// tools (older Pythons, notably) print the banner to stderr.
	// #nosec G204 — tool names come from the fixed probe set and config
	out, err := exec.CommandContext(ctx, tool, "--version").CombinedOutput()
	if err == nil {
		line, _, _ := strings.Cut(string(out), "\n")
		check.Version = strings.TrimSpace(line)
	}
	return check
}

// MissingRequired returns the names of required tools that were not
// found, for the status command's failure summary.
func MissingRequired(checks []model.ToolCheck) []string {
	var missing []string
	for _, c := range checks {
		if c.Required && !c.Found {
			missing = append(missing, c.Tool)
		}
	}
	return missing
}
