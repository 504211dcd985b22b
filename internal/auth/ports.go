package auth

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/spotx/internal/server"
	"github.com/desertthunder/spotx/internal/shared"
)

const (
	// LoopbackHost is the only interface the callback listener binds to.
	LoopbackHost = "127.0.0.1"

	defaultProbeTimeout = 250 * time.Millisecond
)

// DefaultCallbackPorts are tried in order when no redirect URI is pinned.
var DefaultCallbackPorts = []int{8888, 8889, 8890, 8891, 8892}

// SelectPort returns the first candidate that nothing on the loopback interface accepts
// connections on. A refused or timed out dial counts as free.
func SelectPort(candidates []int, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	for _, port := range candidates {
		if !portInUse(port, timeout) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("%w: tried %v", shared.ErrNoPortAvailable, candidates)
}

func portInUse(port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(LoopbackHost, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// RedirectURI builds the loopback callback URI for port.
func RedirectURI(port int) string {
	return (&url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(LoopbackHost, strconv.Itoa(port)),
		Path:   server.CallbackPath,
	}).String()
}

// parseRedirectOverride validates a configured redirect URI and returns the port it pins.
func parseRedirectOverride(raw string) (int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	if u.Scheme != "http" {
		return 0, fmt.Errorf("%w: redirect_uri must use http, got %q", shared.ErrInvalidConfig, u.Scheme)
	}

	switch u.Hostname() {
	case LoopbackHost, "localhost":
	default:
		return 0, fmt.Errorf("%w: redirect_uri must point at %s, got %q", shared.ErrInvalidConfig, LoopbackHost, u.Hostname())
	}

	if u.Path != server.CallbackPath {
		return 0, fmt.Errorf("%w: redirect_uri path must be %s, got %q", shared.ErrInvalidConfig, server.CallbackPath, u.Path)
	}

	port, err := strconv.Atoi(u.Port())
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%w: redirect_uri needs an explicit port", shared.ErrInvalidConfig)
	}
	return port, nil
}
