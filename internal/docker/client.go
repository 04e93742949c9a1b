// Package docker manages the ancillary dev service containers
// (databases, brokers, caches) a project declares in its devstrap
// configuration, on top of the Docker Engine SDK.
package docker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/shinji-kodama/devstrap/internal/model"
)

// pingTimeout bounds a Ping call. Docker Desktop on macOS can take a
// few seconds to answer the first request after waking up.
const pingTimeout = 5 * time.Second

// Client wraps the Docker SDK client so the rest of devstrap deals in
// model types and devstrap exit codes.
type Client struct {
	inner *client.Client
}

// NewClient connects to the Docker daemon. DOCKER_HOST wins when set;
// otherwise the platform's usual socket is probed. Connectivity is not
// verified here — call Ping for that.
func NewClient() (*Client, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		var err error
		if host, err = defaultDockerHost(); err != nil {
			return nil, model.WrapCLIError(model.ExitDockerNotRunning, "Docker socket not found", err)
		}
	}

	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host),
			err,
		)
	}
	return &Client{inner: c}, nil
}

// defaultDockerHost returns the Docker connection string for the
// current platform. Unix sockets are located by a cheap stat; a named
// pipe cannot be stat'ed, so on Windows the default pipe is returned
// as-is and Ping reports whether anything answers.
func defaultDockerHost() (string, error) {
	if runtime.GOOS == "windows" {
		return "npipe:////./pipe/docker_engine", nil
	}

	paths := []string{"/var/run/docker.sock"}
	if runtime.GOOS == "darwin" {
		// Newer Docker Desktop versions keep the socket per-user.
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, ".docker/run/docker.sock"))
		}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return "unix://" + p, nil
		}
	}
	return "", fmt.Errorf("no Docker socket at %v — is Docker running?", paths)
}

// Ping verifies the daemon is reachable and responsive.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker daemon is not responding — is Docker running?",
			err,
		)
	}
	return nil
}

// Close releases the client's resources. Safe to call more than once.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner exposes the SDK client for API calls the wrapper does not
// cover.
func (c *Client) Inner() *client.Client {
	return c.inner
}
