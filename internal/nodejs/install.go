// Package nodejs wraps the Node.js side of the bootstrap: package
// manager detection and frontend dependency installation.
//
// Detection is lockfile-based, the same heuristic editors and CI
// images use: a pnpm-lock.yaml means the project is a pnpm project
// regardless of what else is installed on the machine. The manifest
// (package.json) stays authoritative for what gets installed; devstrap
// only decides which installer to delegate to.
package nodejs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/devstrap/internal/model"
)

// PackageManager identifies a Node package manager.
type PackageManager string

const (
	NPM  PackageManager = "npm"
	Yarn PackageManager = "yarn"
	PNPM PackageManager = "pnpm"
	Bun  PackageManager = "bun"
)

// String returns the binary name of the package manager.
func (p PackageManager) String() string {
	return string(p)
}

// lockfileManagers maps lockfile names to their owning package
// manager, in probe order. npm's package-lock.json is probed last so
// that a repo carrying both (e.g. after a migration) resolves to the
// more specific tool.
var lockfileManagers = []struct {
	lockfile string
	manager  PackageManager
}{
	{"pnpm-lock.yaml", PNPM},
	{"yarn.lock", Yarn},
	{"bun.lockb", Bun},
	{"bun.lock", Bun},
	{"package-lock.json", NPM},
}

// DetectPackageManager determines which package manager to use for
// the given frontend directory.
//
// An explicit override from config wins. Otherwise the directory's
// lockfiles are probed; with no lockfile at all, npm is the default —
// it ships with Node and `npm install` works on a bare package.json.
func DetectPackageManager(dir, override string) (PackageManager, error) {
	if override != "" {
		switch PackageManager(override) {
		case NPM, Yarn, PNPM, Bun:
			return PackageManager(override), nil
		default:
			return "", fmt.Errorf("unknown package manager %q (valid: npm, yarn, pnpm, bun)", override)
		}
	}

	for _, lm := range lockfileManagers {
		if info, err := os.Stat(filepath.Join(dir, lm.lockfile)); err == nil && !info.IsDir() {
			return lm.manager, nil
		}
	}

	return NPM, nil
}

// HasManifest reports whether the directory contains a package.json.
// A frontend directory without a manifest has nothing to install, so
// the frontend step is dropped from the plan rather than failing.
func HasManifest(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "package.json"))
	return err == nil && !info.IsDir()
}

// InstallStep builds the plan step that installs the frontend
// dependency tree. The package manager must already be resolved; the
// runner reports a missing binary as a step failure with the tool's
// own error message.
func InstallStep(dir string, pm PackageManager, env map[string]string) model.Step {
	return model.Step{
		Kind:    model.StepFrontendInstall,
		Name:    pm.String() + " install",
		Dir:     dir,
		Command: []string{pm.String(), "install"},
		Env:     env,
	}
}
