// Package cli — plan.go builds bootstrap plans from the project
// configuration. The helpers here are shared by the up, install, and
// serve commands so that all three agree on step construction, env
// file handling, and venv PATH injection.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/shinji-kodama/devstrap/internal/config"
	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/shinji-kodama/devstrap/internal/nodejs"
	"github.com/shinji-kodama/devstrap/internal/python"
	"github.com/shinji-kodama/devstrap/internal/runner"
)

// planOptions selects which parts of the bootstrap to include and
// how interpreter-resolution failures are handled.
type planOptions struct {
	backend  bool
	frontend bool

	// keepGoing mirrors the runner's keep-going mode. When set, a
	// missing Python interpreter becomes a failing backend step in
	// the plan instead of aborting plan construction, so the
	// frontend install still runs.
	keepGoing bool
}

// buildInstallPlan assembles the dependency installation steps for a
// project: virtualenv creation (skipped when the venv already
// exists), pip install, and the frontend package manager install
// (skipped when no frontend manifest exists).
//
// The returned steps carry the project's env file contents so that
// installers honoring environment configuration (private registries,
// proxies) see the same environment the server will.
func buildInstallPlan(cfg *config.Config, env map[string]string, opts planOptions) ([]model.Step, error) {
	var steps []model.Step

	if opts.backend {
		interpreter, err := python.FindInterpreter(cfg.Backend.Python)
		if err != nil {
			if !opts.keepGoing {
				return nil, err
			}
			// Keep-going mode: the unresolvable interpreter stays in
			// the plan so the runner records the venv step as failed
			// and the frontend install still gets its turn.
			interpreter = cfg.Backend.Python
			if interpreter == "" {
				interpreter = "python3"
			}
			VerboseLog("Python interpreter %q not found, backend steps will fail", interpreter)
		} else {
			VerboseLog("Python interpreter: %s", interpreter)
		}

		venvDir := cfg.VenvDir()
		if python.VenvExists(venvDir) {
			VerboseLog("Reusing existing virtualenv at %s", venvDir)
		} else {
			steps = append(steps, python.VenvStep(interpreter, cfg.BackendDir(), venvDir))
		}

		if _, err := os.Stat(cfg.RequirementsPath()); err == nil {
			steps = append(steps, python.PipInstallStep(cfg.BackendDir(), venvDir, cfg.Backend.Requirements, env))
		} else {
			VerboseLog("No requirements manifest at %s, skipping backend install", cfg.RequirementsPath())
		}
	}

	if opts.frontend {
		frontendDir := cfg.FrontendDir()
		if nodejs.HasManifest(frontendDir) {
			pm, err := nodejs.DetectPackageManager(frontendDir, cfg.Frontend.PackageManager)
			if err != nil {
				return nil, model.WrapCLIError(model.ExitConfigInvalid, "frontend package manager", err)
			}
			VerboseLog("Frontend package manager: %s", pm)
			steps = append(steps, nodejs.InstallStep(frontendDir, pm, env))
		} else {
			VerboseLog("No package.json in %s, skipping frontend install", frontendDir)
		}
	}

	return steps, nil
}

// serverEnv builds the environment for the dev server process: the
// project's env file contents plus the virtualenv's bin directory
// prepended to PATH and VIRTUAL_ENV set, which is what shell
// activation does. This lets the configured server command name venv
// tools (uvicorn) without absolute paths.
func serverEnv(cfg *config.Config, fileEnv map[string]string) map[string]string {
	env := make(map[string]string, len(fileEnv)+2)
	for k, v := range fileEnv {
		env[k] = v
	}

	venvDir := cfg.VenvDir()
	binDir := python.VenvBinDir(venvDir, runtime.GOOS)
	env["VIRTUAL_ENV"] = venvDir
	env["PATH"] = binDir + string(os.PathListSeparator) + os.Getenv("PATH")

	return env
}

// newRunner constructs the step runner wired to the terminal and the
// verbose logger, with progress lines always on: install steps can
// take minutes and silence reads as a hang.
func newRunner(keepGoing bool) *runner.Runner {
	return runner.New(runner.Options{
		KeepGoing: keepGoing,
		Log: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	})
}

// watchDirs resolves the configured watch directories to absolute
// paths, defaulting to the backend directory itself.
func watchDirs(cfg *config.Config) []string {
	if len(cfg.Backend.Server.Watch) == 0 {
		return []string{cfg.BackendDir()}
	}

	dirs := make([]string, 0, len(cfg.Backend.Server.Watch))
	for _, d := range cfg.Backend.Server.Watch {
		dirs = append(dirs, filepath.Join(cfg.BackendDir(), d))
	}
	return dirs
}
