// Package python wraps the Python toolchain operations devstrap
// needs: interpreter discovery, virtualenv creation, and pip
// installation from a requirements manifest.
//
// Design decisions:
//   - We shell out to the python binary rather than linking any
//     embedding layer. venv and pip already own environment creation
//     and dependency resolution; devstrap only sequences them.
//   - All paths are computed relative to the backend directory so the
//     devstrap process never changes its own working directory.
//   - Windows venvs place executables under Scripts/ instead of bin/;
//     the path helpers take a GOOS parameter so the layout logic is
//     testable without build tags.
package python

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/shinji-kodama/devstrap/internal/model"
)

// interpreterCandidates are probed in order when no interpreter is
// configured. python3 first: on systems that still ship a Python 2
// "python", it is the only safe choice.
var interpreterCandidates = []string{"python3", "python"}

// FindInterpreter resolves the Python interpreter to use. An explicit
// override (bare name or path) is looked up as-is; otherwise the
// candidates are probed on PATH in order.
//
// Returns a CLIError with ExitToolMissing when nothing is found,
// since every backend step depends on the interpreter.
func FindInterpreter(override string) (string, error) {
	if override != "" {
		path, err := exec.LookPath(override)
		if err != nil {
			return "", model.WrapCLIError(model.ExitToolMissing,
				fmt.Sprintf("configured python interpreter %q not found", override), err)
		}
		return path, nil
	}

	for _, candidate := range interpreterCandidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", model.NewCLIError(model.ExitToolMissing,
		"no python interpreter found on PATH (tried python3, python)")
}

// VenvBinDir returns the executables directory inside a virtualenv
// for the given GOOS. POSIX venvs use bin/, Windows venvs use Scripts/.
func VenvBinDir(venvDir, goos string) string {
	if goos == "windows" {
		return filepath.Join(venvDir, "Scripts")
	}
	return filepath.Join(venvDir, "bin")
}

// VenvTool returns the path of a tool (pip, uvicorn, ...) inside a
// virtualenv for the given GOOS. Windows executables carry .exe.
func VenvTool(venvDir, tool, goos string) string {
	if goos == "windows" {
		return filepath.Join(venvDir, "Scripts", tool+".exe")
	}
	return filepath.Join(venvDir, "bin", tool)
}

// VenvExists reports whether venvDir already holds a virtual
// environment. The marker is pyvenv.cfg, which `python -m venv`
// always writes at the environment root. A directory without the
// marker is treated as absent so a half-created venv gets rebuilt.
func VenvExists(venvDir string) bool {
	info, err := os.Stat(filepath.Join(venvDir, "pyvenv.cfg"))
	return err == nil && !info.IsDir()
}

// VenvStep builds the plan step that creates the virtual environment.
// The step is a no-op skip candidate when the venv already exists;
// callers check VenvExists before including it in a plan.
func VenvStep(interpreter, backendDir, venvDir string) model.Step {
	return model.Step{
		Kind:    model.StepVenv,
		Name:    "create virtualenv",
		Dir:     backendDir,
		Command: []string{interpreter, "-m", "venv", venvDir},
	}
}

// PipInstallStep builds the plan step that installs the requirements
// manifest into the virtualenv.
//
// The venv's own pip binary is invoked directly rather than
// activating the environment: activation is a shell concept, and the
// interpreter baked into the venv's pip already points inside it.
func PipInstallStep(backendDir, venvDir, requirements string, env map[string]string) model.Step {
	pip := VenvTool(venvDir, "pip", runtime.GOOS)
	return model.Step{
		Kind:    model.StepBackendInstall,
		Name:    "pip install -r " + filepath.Base(requirements),
		Dir:     backendDir,
		Command: []string{pip, "install", "-r", requirements},
		Env:     env,
	}
}
