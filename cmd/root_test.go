package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ccerr "callcenter/internal/errors"
)

// capture redirects help and dry-run output for one test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := output
	output = &buf
	t.Cleanup(func() { output = prev })
	return &buf
}

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	out := capture(t)
	require.NoError(t, Execute(context.Background(), []string{"--version"}))
	assert.Equal(t, "callcenter "+version+"\n", out.String())
}

// TestExecute_Help verifies --help (and no args) returns without error.
func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {}} {
		name := "no-args"
		if len(args) > 0 {
			name = args[0]
		}
		t.Run(name, func(t *testing.T) {
			out := capture(t)
			require.NoError(t, Execute(context.Background(), args))
			assert.Contains(t, out.String(), "--ring-timeout")
			assert.Contains(t, out.String(), "hangup <id>")
		})
	}
}

func TestExecute_DryRunServer(t *testing.T) {
	out := capture(t)
	err := Execute(context.Background(), []string{
		"-l", "-p", "8080", "-o", "X, Y ,Z", "--ring-timeout", "15", "--requeue-ignored", "--dry-run",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "server on :8080")
	assert.Contains(t, out.String(), "operators:       X,Y,Z")
	assert.Contains(t, out.String(), "ring timeout:    15s")
	assert.Contains(t, out.String(), "requeue ignored: true")
}

func TestExecute_DryRunConsole(t *testing.T) {
	out := capture(t)
	err := Execute(context.Background(), []string{
		"-T", "ops@bastion:2222", "--retries", "2", "--dry-run", "10.0.0.5", "6000",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "console to 10.0.0.5:6000")
	assert.Contains(t, out.String(), "retries:         2")
	assert.Contains(t, out.String(), "via:             bastion:2222")
}

func TestExecute_EnvThenFlags(t *testing.T) {
	t.Setenv("CALLCENTER_OPERATORS", "E1,E2")
	t.Setenv("CALLCENTER_RING_TIMEOUT", "3s")

	out := capture(t)
	require.NoError(t, Execute(context.Background(), []string{"-l", "--dry-run"}))
	assert.Contains(t, out.String(), "operators:       E1,E2")
	assert.Contains(t, out.String(), "ring timeout:    3s")

	out.Reset()
	require.NoError(t, Execute(context.Background(), []string{"-l", "--ring-timeout", "1m", "--dry-run"}))
	assert.Contains(t, out.String(), "operators:       E1,E2")
	assert.Contains(t, out.String(), "ring timeout:    1m0s")
}

// TestExecute_InvalidConfig verifies --dry-run still catches bad configs.
func TestExecute_InvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"console without host", []string{"--dry-run", "-w", "5"}, "host"},
		{"bad port", []string{"-l", "-p", "70000", "--dry-run"}, "port"},
		{"bad positional port", []string{"--dry-run", "localhost", "http"}, "port"},
		{"duplicate operators", []string{"-l", "-o", "A,A", "--dry-run"}, "operators"},
		{"bad ring timeout", []string{"-l", "--ring-timeout", "soon", "--dry-run"}, "ring-timeout"},
		{"zero ring timeout", []string{"-l", "--ring-timeout", "0", "--dry-run"}, "ring-timeout"},
		{"server through tunnel", []string{"-l", "-T", "bastion", "--dry-run"}, "tunnel"},
		{"console serving http", []string{"--http-addr", ":9090", "--dry-run", "localhost"}, "http-addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture(t)
			err := Execute(context.Background(), tt.args)
			var cfgErr *ccerr.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestExecute_TooManyArgs(t *testing.T) {
	capture(t)
	err := Execute(context.Background(), []string{"--dry-run", "a", "1", "extra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many arguments")
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	capture(t)
	assert.Error(t, Execute(context.Background(), []string{"--nonexistent-flag"}))
}
