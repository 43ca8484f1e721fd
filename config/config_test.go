package config

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	ccerr "callcenter/internal/errors"
)

// ── ParseTunnelSpec ──────────────────────────────────────────────────

func TestParseTunnelSpec(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantUser string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"full", "ops@bastion.example.com:2222", "ops", "bastion.example.com", 2222, false},
		{"no port", "root@gateway", "root", "gateway", 22, false},
		{"no user", "jump-host:2200", "", "jump-host", 2200, false},
		{"host only", "gateway.local", "", "gateway.local", 22, false},
		{"bad port", "user@host:999999", "", "", 0, true},
		{"port zero", "host:0", "", "", 0, true},
		{"empty", "", "", "", 0, true},
		{"colon only", ":", "", "", 0, true},
		{"user only", "user@", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, host, port, err := ParseTunnelSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if user != tt.wantUser || host != tt.wantHost || port != tt.wantPort {
				t.Errorf("got (%q, %q, %d), want (%q, %q, %d)",
					user, host, port, tt.wantUser, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestApplyTunnelSpec(t *testing.T) {
	cfg := New()
	cfg.TunnelSpec = "ops@bastion:2200"
	if err := cfg.ApplyTunnelSpec(); err != nil {
		t.Fatal(err)
	}
	if !cfg.TunnelEnabled || cfg.TunnelUser != "ops" || cfg.TunnelHost != "bastion" || cfg.TunnelPort != 2200 {
		t.Errorf("tunnel = %+v", cfg)
	}

	cfg.TunnelSpec = "bad:spec:x"
	err := cfg.ApplyTunnelSpec()
	var ce *ccerr.ConfigError
	if !errors.As(err, &ce) || ce.Field != "tunnel" {
		t.Errorf("expected tunnel ConfigError, got %v", err)
	}

	cfg.TunnelSpec = ""
	if err := cfg.ApplyTunnelSpec(); err != nil || cfg.TunnelEnabled {
		t.Errorf("empty spec should disable the tunnel (err=%v)", err)
	}
}

// ── ParseOperators ───────────────────────────────────────────────────

func TestParseOperators(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{"A,B", []string{"A", "B"}, false},
		{" alice , bob ,carol", []string{"alice", "bob", "carol"}, false},
		{"A,,B,", []string{"A", "B"}, false},
		{"op-1,op_2,op.3", []string{"op-1", "op_2", "op.3"}, false},
		{"", nil, true},
		{" , ", nil, true},
		{"A,A", nil, true},
		{"A B", nil, true},
		{"A,B!", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOperators(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"10", 10 * time.Second, false},
		{"10s", 10 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"250ms", 250 * time.Millisecond, false},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.input, got, tt.want)
		}
	}
}

// ── Defaults ─────────────────────────────────────────────────────────

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.RingTimeout != DefaultRingTimeout {
		t.Errorf("RingTimeout = %v", cfg.RingTimeout)
	}
	if !reflect.DeepEqual(cfg.Operators, []string{"A", "B"}) {
		t.Errorf("Operators = %v", cfg.Operators)
	}

	cfg.Operators[0] = "Z"
	if DefaultOperators[0] != "A" {
		t.Error("New must copy the default operator list")
	}
}

// ── Validation ───────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	server := func(mut func(*Config)) *Config {
		c := New()
		c.Listen = true
		if mut != nil {
			mut(c)
		}
		return c
	}
	console := func(mut func(*Config)) *Config {
		c := New()
		c.Host = "localhost"
		if mut != nil {
			mut(c)
		}
		return c
	}

	tests := []struct {
		name      string
		cfg       *Config
		wantField string // "" means valid
	}{
		{"server defaults", server(nil), ""},
		{"console defaults", console(nil), ""},
		{"server with http", server(func(c *Config) { c.HTTPAddr = ":9090" }), ""},
		{"bad port", server(func(c *Config) { c.Port = 0 }), "port"},
		{"port too high", console(func(c *Config) { c.Port = 70000 }), "port"},
		{"no operators", server(func(c *Config) { c.Operators = nil }), "operators"},
		{"duplicate operators", server(func(c *Config) { c.Operators = []string{"A", "A"} }), "operators"},
		{"zero ring timeout", server(func(c *Config) { c.RingTimeout = 0 }), "ring-timeout"},
		{"server via tunnel", server(func(c *Config) { c.TunnelEnabled = true; c.TunnelHost = "gw" }), "tunnel"},
		{"console no host", console(func(c *Config) { c.Host = "" }), "host"},
		{"negative retries", console(func(c *Config) { c.Retries = -1 }), "retries"},
		{"console http", console(func(c *Config) { c.HTTPAddr = ":9090" }), "http-addr"},
		{"tunnel without host", console(func(c *Config) { c.TunnelEnabled = true }), "tunnel"},
		{"negative timeout", console(func(c *Config) { c.Timeout = -time.Second }), "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ce *ccerr.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ce.Field, tt.wantField)
			}
		})
	}
}

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	cfg := New()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"--host", "hint:", "-l"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should contain %q", err.Error(), want)
		}
	}
}
