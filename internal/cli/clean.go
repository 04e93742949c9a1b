// Package cli — clean.go implements the "devstrap clean" command.
//
// clean removes the generated dependency trees — the virtualenv and
// node_modules — returning the checkout to its pre-bootstrap state.
// With --services it also tears down the project's service containers.
//
// Both deletion targets are verified before removal: the venv must
// contain a pyvenv.cfg and node_modules must live next to a
// package.json. A directory that fails its check is refused unless
// --force is given, so a mistyped config cannot delete an unrelated
// tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/shinji-kodama/devstrap/internal/nodejs"
	"github.com/shinji-kodama/devstrap/internal/python"
)

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	services bool // --services: also remove service containers
	force    bool // --force: skip the sanity checks on deletion targets
}

// NewCleanCommand creates the "clean" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the virtualenv and node_modules",
		Long: `Remove the generated dependency trees so the next "up" starts fresh.

The virtualenv and the frontend's node_modules directory are deleted.
Source code, manifests, and lockfiles are never touched. With
--services the project's dev service containers are removed too.

Examples:
  devstrap clean
  devstrap clean --services`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.services, "services", false, "Also remove dev service containers")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Skip sanity checks on deletion targets")

	return cmd
}

// runClean is the main logic function for the clean command.
func runClean(ctx context.Context, flags *cleanFlags) error {
	cfg, err := discoverConfig()
	if err != nil {
		return err
	}

	removed := 0

	// Virtualenv: only delete a directory that actually is one,
	// unless forced. cfg.VenvDir() is derived from config, and a
	// typo there must not cost the user an unrelated directory.
	venvDir := cfg.VenvDir()
	if dirExists(venvDir) {
		if !python.VenvExists(venvDir) && !flags.force {
			return model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("%s exists but does not look like a virtualenv (no pyvenv.cfg); use --force to remove anyway", venvDir))
		}
		VerboseLog("Removing %s", venvDir)
		if err := os.RemoveAll(venvDir); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to remove virtualenv", err)
		}
		removed++
	}

	// node_modules: only meaningful next to a package.json.
	nodeModules := filepath.Join(cfg.FrontendDir(), "node_modules")
	if dirExists(nodeModules) {
		if !nodejs.HasManifest(cfg.FrontendDir()) && !flags.force {
			return model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("%s exists but no package.json found beside it; use --force to remove anyway", nodeModules))
		}
		VerboseLog("Removing %s", nodeModules)
		if err := os.RemoveAll(nodeModules); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to remove node_modules", err)
		}
		removed++
	}

	if flags.services && hasServices(cfg) {
		if err := servicesDown(ctx, cfg, false); err != nil {
			return err
		}
	}

	if !IsJSONOutput() {
		fmt.Printf("Removed %d dependency tree(s).\n", removed)
	}
	return nil
}
