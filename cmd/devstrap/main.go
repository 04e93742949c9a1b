// Package main is the entry point for the devstrap CLI.
//
// This binary bootstraps a project's local development environment:
// virtualenv creation, backend and frontend dependency installation,
// dev service containers, and the hot-reload dev server. It delegates
// all functionality to the internal/cli package, which defines cobra
// commands.
//
// Build-time variables (version, commit, date) are injected via
// ldflags by the release process. During development they default to
// "dev", "none", and "unknown" respectively.
package main

import (
	"github.com/shinji-kodama/devstrap/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
// They provide binary identification for the --version flag output.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package. This
	// decouples the build system from the CLI framework, keeping
	// main.go minimal.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
