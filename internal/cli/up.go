// Package cli — up.go implements the "devstrap up" command.
//
// up is the primary user-facing operation: it performs the whole
// bootstrap that the historical setup script did, in a sane order.
//
// Orchestration steps:
//  1. Discover and validate the project configuration
//  2. Load the project's env file
//  3. Create the virtualenv (unless it already exists)
//  4. Install backend dependencies from the requirements manifest
//  5. Install frontend dependencies with the detected package manager
//  6. Start declared dev services (unless --no-services)
//  7. Run the hot-reload dev server in the foreground (unless --no-serve)
//
// The original script ran its steps unconditionally, continuing after
// failures; up is fail-fast by default, with --keep-going restoring
// the historical behavior.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devstrap/internal/config"
	"github.com/shinji-kodama/devstrap/internal/model"
)

// upFlags holds the flag values for the up command.
type upFlags struct {
	noServe    bool // --no-serve: bootstrap only, don't run the server
	noServices bool // --no-services: skip dev service containers
	keepGoing  bool // --keep-going: continue past failing steps
}

// NewUpCommand creates the "up" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewUpCommand() *cobra.Command {
	flags := &upFlags{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap the development environment and run the dev server",
		Long: `Bootstrap the project's development environment end to end.

The command creates the Python virtualenv if needed, installs backend
and frontend dependencies from their manifests, starts declared dev
services, and finally runs the hot-reload dev server in the foreground
until interrupted.

Examples:
  devstrap up
  devstrap up --no-serve
  devstrap up --keep-going --no-services`,

		Args: cobra.NoArgs,

		// RunE is used instead of Run so we can return errors. Cobra
		// passes them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.noServe, "no-serve", false, "Install everything but don't start the dev server")
	cmd.Flags().BoolVar(&flags.noServices, "no-services", false, "Don't start dev service containers")
	cmd.Flags().BoolVar(&flags.keepGoing, "keep-going", false, "Continue executing steps after a failure")

	return cmd
}

// runUp is the main orchestration function for the up command.
func runUp(ctx context.Context, flags *upFlags) error {
	// Step 1: Discover the project configuration. Zero-config
	// projects get the built-in defaults.
	cwd, err := currentDir()
	if err != nil {
		return err
	}
	cfg, err := config.Discover(cwd)
	if err != nil {
		return err
	}
	VerboseLog("Project root: %s", cfg.Root)
	VerboseLog("Project name: %s", cfg.Name)

	// Step 2: Load the env file once; every child process gets the
	// same view of it.
	fileEnv, err := config.LoadEnvFile(cfg)
	if err != nil {
		return err
	}
	VerboseLog("Loaded %d env file entries", len(fileEnv))

	// Steps 3-5: Build and run the install plan.
	steps, err := buildInstallPlan(cfg, fileEnv, planOptions{backend: true, frontend: true, keepGoing: flags.keepGoing})
	if err != nil {
		return err
	}

	results, runErr := newRunner(flags.keepGoing).Run(ctx, steps)
	printStepResults(results)
	if runErr != nil && !flags.keepGoing {
		return runErr
	}

	// Step 6: Start dev services.
	if !flags.noServices && hasServices(cfg) {
		if err := servicesUp(ctx, cfg); err != nil {
			if !flags.keepGoing {
				return err
			}
			VerboseLog("services up failed, continuing (--keep-going): %v", err)
		}
	}

	// Step 7: Run the dev server in the foreground. Its error is
	// authoritative for the command's exit status; install failures
	// under --keep-going were already reported above.
	if flags.noServe {
		VerboseLog("Skipping dev server (--no-serve)")
		if runErr != nil {
			return runErr
		}
		return nil
	}

	return runServer(ctx, cfg, fileEnv)
}

// hasServices reports whether the configuration declares any dev
// services at all.
func hasServices(cfg *config.Config) bool {
	return cfg.Services.ComposeFile != "" || len(cfg.Services.Containers) > 0
}

// currentDir wraps os.Getwd with the CLI error contract.
func currentDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}
	return cwd, nil
}
