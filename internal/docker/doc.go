// Package docker provides Docker Engine API wrappers and container
// lifecycle management for devstrap's ancillary dev services.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Container label management — devstrap.* labels are the sole
//     state storage mechanism for managed services
//   - Service container lifecycle: run, start, stop, remove, list
//   - Docker Compose delegation for projects that declare a compose
//     file instead of individual containers
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad
// compatibility.
package docker
