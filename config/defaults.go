package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultPort is the server's TCP port.
	DefaultPort = 5678

	// DefaultRingTimeout is how long a call rings before the operator
	// is reclaimed.
	DefaultRingTimeout = 10 * time.Second

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout is the TCP/SSH connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultRetries is how many extra dial attempts the console makes.
	DefaultRetries = 0

	// DefaultGracePeriod is how long shutdown waits for sessions and the
	// HTTP server to finish.
	DefaultGracePeriod = 5 * time.Second
)

// DefaultOperators is the operator pool when none is configured.
var DefaultOperators = []string{"A", "B"}
