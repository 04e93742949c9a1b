// Package cli — status.go implements the "devstrap status" command.
//
// status reports whether the development environment is ready to run:
// which external tools are present and their versions, whether the
// virtualenv / manifests / node_modules exist, whether the required
// env keys are set, whether the server port is free, and the state of
// declared services.
//
// By default the report is informational and the command exits 0.
// With --check, missing required tools or env keys turn into a
// non-zero exit for use in CI and setup scripts.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devstrap/internal/config"
	"github.com/shinji-kodama/devstrap/internal/docker"
	"github.com/shinji-kodama/devstrap/internal/doctor"
	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/shinji-kodama/devstrap/internal/nodejs"
	"github.com/shinji-kodama/devstrap/internal/port"
	"github.com/shinji-kodama/devstrap/internal/python"
)

// Report glyph styles. Colors degrade gracefully on dumb terminals —
// lipgloss detects the color profile and falls back to plain text.
var (
	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleFail = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
)

// statusReport is the full environment report, also the --json shape.
type statusReport struct {
	Project          string              `json:"project"`
	Root             string              `json:"root"`
	Tools            []model.ToolCheck   `json:"tools"`
	Venv             bool                `json:"venv"`
	Requirements     bool                `json:"requirements"`
	FrontendManifest bool                `json:"frontendManifest"`
	NodeModules      bool                `json:"nodeModules"`
	EnvFile          bool                `json:"envFile"`
	MissingEnv       []string            `json:"missingEnv,omitempty"`
	PortFree         bool                `json:"portFree"`
	Port             int                 `json:"port"`
	Services         []model.ServiceInfo `json:"services,omitempty"`
}

// statusFlags holds the flag values for the status command.
type statusFlags struct {
	check bool // --check: non-zero exit on missing requirements
}

// NewStatusCommand creates the "status" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStatusCommand() *cobra.Command {
	flags := &statusFlags{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the state of the development environment",
		Long: `Report whether the development environment is ready:
external tools and versions, virtualenv and manifest presence,
required env keys, server port availability, and dev service states.

Examples:
  devstrap status
  devstrap status --json
  devstrap status --check`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.check, "check", false, "Exit non-zero when required tools or env keys are missing")

	return cmd
}

// runStatus is the main logic function for the status command.
func runStatus(ctx context.Context, flags *statusFlags) error {
	cfg, err := discoverConfig()
	if err != nil {
		return err
	}

	report := buildStatusReport(ctx, cfg)

	// Service discovery is best-effort: an unreachable Docker daemon
	// must not break the rest of the report, because many projects
	// declare no services at all.
	if hasServices(cfg) && cfg.Services.ComposeFile == "" {
		if cli, dockerErr := docker.NewClient(); dockerErr == nil {
			if services, listErr := docker.ListProjectServices(ctx, cli, cfg.Name); listErr == nil {
				report.Services = mergeDeclaredServices(cfg, services)
			} else {
				VerboseLog("Could not list services: %v", listErr)
			}
			_ = cli.Close()
		} else {
			VerboseLog("Docker unavailable: %v", dockerErr)
		}
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
	} else {
		printStatusText(cfg, report)
	}

	if flags.check {
		if missing := doctor.MissingRequired(report.Tools); len(missing) > 0 {
			return model.NewCLIError(model.ExitToolMissing,
				fmt.Sprintf("required tools missing: %s", strings.Join(missing, ", ")))
		}
		if len(report.MissingEnv) > 0 {
			return model.NewCLIError(model.ExitConfigInvalid,
				fmt.Sprintf("required env keys missing: %s", strings.Join(report.MissingEnv, ", ")))
		}
	}
	return nil
}

// buildStatusReport gathers the non-Docker parts of the report.
func buildStatusReport(ctx context.Context, cfg *config.Config) *statusReport {
	report := &statusReport{
		Project: cfg.Name,
		Root:    cfg.Root,
		Tools:   doctor.CheckTools(ctx, cfg),
		Port:    cfg.Backend.Server.Port,
	}

	report.Venv = python.VenvExists(cfg.VenvDir())
	report.Requirements = fileExists(cfg.RequirementsPath())
	report.FrontendManifest = nodejs.HasManifest(cfg.FrontendDir())
	report.NodeModules = dirExists(filepath.Join(cfg.FrontendDir(), "node_modules"))
	report.EnvFile = fileExists(cfg.EnvFilePath())

	if fileEnv, err := config.LoadEnvFile(cfg); err == nil {
		report.MissingEnv = config.MissingRequiredEnv(cfg, fileEnv)
	}

	report.PortFree = port.NewScanner().IsAvailable(cfg.Backend.Server.Host, cfg.Backend.Server.Port)

	return report
}

// printStatusText renders the human-readable report.
func printStatusText(cfg *config.Config, report *statusReport) {
	fmt.Printf("Project %q (%s)\n\n", report.Project, report.Root)

	fmt.Println("  Tools:")
	for _, tool := range report.Tools {
		switch {
		case tool.Found:
			fmt.Printf("    %s %-10s %s\n", glyphOK(), tool.Tool, tool.Version)
		case tool.Required:
			fmt.Printf("    %s %-10s not found (required)\n", glyphFail(), tool.Tool)
		default:
			fmt.Printf("    %s %-10s not found\n", glyphWarn(), tool.Tool)
		}
	}

	fmt.Println()
	fmt.Println("  Project:")
	printCheck("virtualenv ("+cfg.Backend.Venv+")", report.Venv, true)
	printCheck("requirements manifest", report.Requirements, false)
	printCheck("frontend manifest", report.FrontendManifest, false)
	printCheck("node_modules", report.NodeModules, false)
	printCheck("env file ("+cfg.EnvFile+")", report.EnvFile, false)

	if len(report.MissingEnv) > 0 {
		fmt.Printf("    %s missing required env: %s\n", glyphFail(), strings.Join(report.MissingEnv, ", "))
	}

	fmt.Println()
	if report.PortFree {
		fmt.Printf("  Server port %d: %s free\n", report.Port, glyphOK())
	} else {
		fmt.Printf("  Server port %d: %s in use\n", report.Port, glyphFail())
	}

	if len(report.Services) > 0 {
		fmt.Println()
		fmt.Println("  Services:")
		for _, svc := range report.Services {
			glyph := glyphWarn()
			if svc.Status == model.ServiceRunning {
				glyph = glyphOK()
			}
			fmt.Printf("    %s %-16s %s\n", glyph, svc.Service, svc.Status)
		}
	}
}

// printCheck renders one boolean project check line. Absent optional
// items warn; absent expected items fail.
func printCheck(label string, present, expected bool) {
	switch {
	case present:
		fmt.Printf("    %s %s\n", glyphOK(), label)
	case expected:
		fmt.Printf("    %s %s missing\n", glyphFail(), label)
	default:
		fmt.Printf("    %s %s missing\n", glyphWarn(), label)
	}
}

func glyphOK() string   { return styleOK.Render("✓") }
func glyphWarn() string { return styleWarn.Render("•") }
func glyphFail() string { return styleFail.Render("✗") }

// fileExists reports whether path is an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dirExists reports whether path is an existing directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
