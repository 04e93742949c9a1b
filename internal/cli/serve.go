// Package cli — serve.go implements the "devstrap serve" command.
//
// serve runs the project's hot-reload dev server in the foreground,
// without touching dependencies or services. The server process gets
// the project's env file contents and the virtualenv bin directory on
// PATH, so the default `uvicorn main:app --reload` command resolves
// to the venv's uvicorn.
//
// Before starting, the configured port is checked for availability so
// that a conflict surfaces as a clear devstrap error instead of a
// server stack trace.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devstrap/internal/config"
	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/shinji-kodama/devstrap/internal/port"
	"github.com/shinji-kodama/devstrap/internal/server"
)

// NewServeCommand creates the "serve" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hot-reload dev server in the foreground",
		Long: `Run the project's dev server until interrupted.

In the default "builtin" reload mode the command is run as-is and is
expected to handle reloading itself (uvicorn --reload). In "watch"
mode devstrap watches the backend source tree and restarts the server
process after each change. Ctrl-C stops the server gracefully.

Examples:
  devstrap serve
  devstrap serve --verbose`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	return cmd
}

// runServe is the main logic function for the serve command.
func runServe(ctx context.Context) error {
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

	return runServer(ctx, cfg, fileEnv)
}

// runServer performs the shared serve work for the serve and up
// commands: the port pre-flight check, signal wiring, and the
// supervisor run.
func runServer(ctx context.Context, cfg *config.Config, fileEnv map[string]string) error {
	srv := cfg.Backend.Server

	// Pre-flight: the configured port must be free. A taken port
	// means another instance (or another app) is already there.
	scanner := port.NewScanner()
	if !scanner.IsAvailable(srv.Host, srv.Port) {
		return model.NewCLIError(model.ExitPortInUse,
			fmt.Sprintf("port %d on %s is already in use", srv.Port, srv.Host))
	}

	// SIGINT/SIGTERM cancel the context, which the supervisor turns
	// into a graceful stop of the server process. NotifyContext
	// restores default signal handling when the server is done, so a
	// second Ctrl-C during a slow shutdown kills devstrap outright.
	serveCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup := &server.Supervisor{
		Command:   srv.Command,
		Dir:       cfg.BackendDir(),
		Env:       serverEnv(cfg, fileEnv),
		Watch:     srv.Reload == config.ReloadWatch,
		WatchDirs: watchDirs(cfg),
		Log: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "devstrap: "+format+"\n", args...)
		},
	}

	if !IsJSONOutput() {
		fmt.Printf("Serving on http://%s:%d  (Ctrl-C to stop)\n", srv.Host, srv.Port)
	}

	return sup.Run(serveCtx)
}
