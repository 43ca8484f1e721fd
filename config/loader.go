package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the CALLCENTER_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty,
// well-formed env vars override the existing value.  This should be
// called BEFORE CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("CALLCENTER_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("CALLCENTER_PORT"); v > 0 {
		cfg.Port = v
	}
	if envBool("CALLCENTER_LISTEN") {
		cfg.Listen = true
	}
	if v := envInt("CALLCENTER_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}
	if v := envInt("CALLCENTER_RETRIES"); v > 0 {
		cfg.Retries = v
	}

	// Dispatcher
	if v := os.Getenv("CALLCENTER_OPERATORS"); v != "" {
		if ids, err := ParseOperators(v); err == nil {
			cfg.Operators = ids
		}
	}
	if v := os.Getenv("CALLCENTER_RING_TIMEOUT"); v != "" {
		if d, err := ParseDuration(v); err == nil && d > 0 {
			cfg.RingTimeout = d
		}
	}
	if envBool("CALLCENTER_REQUEUE_IGNORED") {
		cfg.RequeueIgnored = true
	}
	if v := os.Getenv("CALLCENTER_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}

	// SSH tunnel
	if v := os.Getenv("CALLCENTER_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("CALLCENTER_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("CALLCENTER_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("CALLCENTER_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("CALLCENTER_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("CALLCENTER_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := envInt("CALLCENTER_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("CALLCENTER_NO_COLOR") {
		cfg.NoColor = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
