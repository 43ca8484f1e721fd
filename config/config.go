// Package config defines the runtime configuration for callcenter and
// provides helpers for parsing operator lists and tunnel specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ccerr "callcenter/internal/errors"
)

// Config holds every tuneable for one callcenter process, server or
// console.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host      string
	Port      int // server port (console) or listen port (-l)
	LocalPort int // console: optional source port
	Listen    bool
	Timeout   time.Duration // dial timeout
	Retries   int           // console dial attempts (0 = one try)

	// ── Dispatcher ───────────────────────────────────────────────────
	Operators      []string
	RingTimeout    time.Duration
	RequeueIgnored bool
	HTTPAddr       string // "" disables /metrics, /health, /status, /ws

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	NoColor bool
	DryRun  bool
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Port:        DefaultPort,
		Timeout:     DefaultConnTimeout,
		Retries:     DefaultRetries,
		Operators:   append([]string(nil), DefaultOperators...),
		RingTimeout: DefaultRingTimeout,
		TunnelPort:  DefaultSSHPort,
		Verbose:     1,
	}
}

// ── Operator list ────────────────────────────────────────────────────

// operatorRe restricts ids to what a console user can type as one word.
var operatorRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ParseOperators splits a comma-separated operator list such as "A,B".
// Order is preserved: the first id is the preferred operator.
func ParseOperators(spec string) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, raw := range strings.Split(spec, ",") {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if !operatorRe.MatchString(id) {
			return nil, fmt.Errorf("invalid operator id %q", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate operator id %q", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no operators in %q", spec)
	}
	return ids, nil
}

// ParseDuration accepts a Go duration ("10s", "1m30s") or a bare
// number of seconds ("10").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:@]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "ops@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q, expected [user@]host[:port]", spec)
	}
	user, host, port = m[1], m[2], DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ApplyTunnelSpec parses TunnelSpec into the Tunnel* fields.  An empty
// spec disables the tunnel.
func (c *Config) ApplyTunnelSpec() error {
	if c.TunnelSpec == "" {
		c.TunnelEnabled = false
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &ccerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: err.Error(),
			Hint: "use user@host or user@host:port"}
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &ccerr.ConfigError{Field: "port", Value: c.Port, Message: "must be 1-65535"}
	}
	if c.Timeout < 0 {
		return &ccerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}

	if c.Listen {
		return c.validateServer()
	}
	return c.validateConsole()
}

func (c *Config) validateServer() error {
	if len(c.Operators) == 0 {
		return &ccerr.ConfigError{Field: "operators", Message: "at least one operator is required",
			Hint: "e.g. --operators A,B"}
	}
	if _, err := ParseOperators(strings.Join(c.Operators, ",")); err != nil {
		return &ccerr.ConfigError{Field: "operators", Value: strings.Join(c.Operators, ","), Message: err.Error()}
	}
	if c.RingTimeout <= 0 {
		return &ccerr.ConfigError{Field: "ring-timeout", Value: c.RingTimeout, Message: "must be positive",
			Hint: "e.g. --ring-timeout 10s"}
	}
	if c.TunnelEnabled {
		return &ccerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec,
			Message: "the server cannot listen through an SSH tunnel",
			Hint:    "run the console with -T instead"}
	}
	return nil
}

func (c *Config) validateConsole() error {
	if c.Host == "" {
		return &ccerr.ConfigError{Field: "host", Message: "hostname is required",
			Hint: "callcenter <host> [port], or -l to start a server"}
	}
	if c.Retries < 0 {
		return &ccerr.ConfigError{Field: "retries", Value: c.Retries, Message: "must not be negative"}
	}
	if c.LocalPort < 0 || c.LocalPort > 65535 {
		return &ccerr.ConfigError{Field: "source-port", Value: c.LocalPort, Message: "must be 0-65535"}
	}
	if c.TunnelEnabled && c.TunnelHost == "" {
		return &ccerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: "tunnel host is required"}
	}
	if c.HTTPAddr != "" {
		return &ccerr.ConfigError{Field: "http-addr", Value: c.HTTPAddr,
			Message: "only the server (-l) serves HTTP"}
	}
	return nil
}
