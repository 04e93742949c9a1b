// Package cli — install.go implements the "devstrap install" command.
//
// install runs only the dependency installation part of the
// bootstrap: virtualenv + pip for the backend, the detected package
// manager for the frontend. It is what you run after pulling changes
// that touched a manifest, without restarting services or the server.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devstrap/internal/config"
	"github.com/shinji-kodama/devstrap/internal/model"
)

// installFlags holds the flag values for the install command.
type installFlags struct {
	only      string // --only: restrict to "backend" or "frontend"
	keepGoing bool   // --keep-going: continue past failing steps
}

// NewInstallCommand creates the "install" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewInstallCommand() *cobra.Command {
	flags := &installFlags{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install backend and frontend dependencies",
		Long: `Install the project's dependencies from their manifests.

For the backend this creates the virtualenv if needed and runs pip
against the requirements manifest; for the frontend it runs the
detected package manager's install in the frontend directory.

Examples:
  devstrap install
  devstrap install --only backend
  devstrap install --only frontend`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.only, "only", "", "Restrict installation: backend or frontend")
	cmd.Flags().BoolVar(&flags.keepGoing, "keep-going", false, "Continue executing steps after a failure")

	return cmd
}

// runInstall is the main logic function for the install command.
func runInstall(ctx context.Context, flags *installFlags) error {
	// Step 1: Validate the --only flag value before doing any work.
	opts := planOptions{backend: true, frontend: true, keepGoing: flags.keepGoing}
	switch flags.only {
	case "":
	case "backend":
		opts.frontend = false
	case "frontend":
		opts.backend = false
	default:
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid --only value %q: valid values are backend, frontend", flags.only))
	}

	// Step 2: Discover config and env file.
	cwd, err := currentDir()
	if err != nil {
		return err
	}
	cfg, err := config.Discover(cwd)
	if err != nil {
		return err
	}
	fileEnv, err := config.LoadEnvFile(cfg)
	if err != nil {
		return err
	}

	// Step 3: Build and run the plan.
	steps, err := buildInstallPlan(cfg, fileEnv, opts)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		if !IsJSONOutput() {
			fmt.Println("Nothing to install.")
		} else {
			printStepResults(nil)
		}
		return nil
	}

	results, runErr := newRunner(flags.keepGoing).Run(ctx, steps)
	printStepResults(results)
	return runErr
}
