// Package port implements host port pre-flight checks for devstrap.
//
// Before the dev server or a service container starts, its configured
// host port is probed with net.Listen so that conflicts surface as a
// clear CLI error instead of a tool-specific bind failure. The same
// scanner also supports waiting for a port to become reachable after
// a process has been started.
package port
