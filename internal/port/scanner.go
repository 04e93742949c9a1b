// Package port implements host port availability checks for the
// devstrap CLI.
//
// The dev server and every declared service container bind host
// ports; checking them up front turns an opaque "address already in
// use" crash deep inside uvicorn or dockerd into a clear pre-flight
// error. Availability is determined by asking the OS directly via
// net.Listen, which is more reliable than parsing /proc/net/* or
// shelling out to lsof/ss (both of which may need elevated
// permissions).
package port

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Scanner checks whether specific ports are available on the host.
//
// The struct is currently stateless, but is defined as a struct
// (rather than bare functions) so that future options (bind address,
// probe timeout) can be added without breaking the API, and so it can
// be injected as a dependency in tests.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsAvailable checks whether a TCP port is free on the given host.
//
// It attempts net.Listen on host:port; if the bind succeeds the port
// is available and the probe listener is closed immediately. An empty
// host binds all interfaces, which matches how Docker publishes
// service ports, so service-port checks pass "" as the host.
func (s *Scanner) IsAvailable(host string, portNum int) bool {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", portNum))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}

// WaitReachable blocks until something accepts TCP connections on
// host:port, polling at the given interval, or until the context is
// cancelled. It is the inverse of IsAvailable: used after starting
// the dev server or a service container to report when it is actually
// up.
//
// Returns nil as soon as a connection succeeds, or the context error
// on cancellation/timeout.
func (s *Scanner) WaitReachable(ctx context.Context, host string, portNum int, interval time.Duration) error {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", portNum))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// DialTimeout rather than Dial so a firewalled or half-open
		// port cannot stall a poll iteration past the interval.
		conn, err := net.DialTimeout("tcp", addr, interval)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
