package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callcenter/internal/capability"
	"callcenter/internal/retry"
	"callcenter/internal/transport"
	"callcenter/util"
)

func TestConnectMode_ConsoleSession(t *testing.T) {
	addr, _ := startServer(t, nil)

	var out bytes.Buffer
	mode := &ConnectMode{
		Dialer:     &transport.TCPDialer{Timeout: 2 * time.Second},
		Capability: &capability.Console{},
		Address:    addr,
		Logger:     util.NewLogger(0),
		Stdin:      strings.NewReader("call 1\ncall 2\ncall 3\nanswer A\nhangup 1\nanswer Z\n"),
		Stdout:     &out,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, mode.Run(ctx))

	want := strings.Join([]string{
		"Call 1 received",
		"Call 1 ringing for operator A",
		"Call 2 received",
		"Call 2 ringing for operator B",
		"Call 3 received",
		"Call 3 waiting in queue",
		"Call 1 answered by operator A",
		"Call 1 finished and operator A available",
		"Call 3 ringing for operator A",
	}, "\n")
	got := out.String()
	assert.True(t, strings.HasPrefix(got, want), "unexpected console output:\n%s", got)
	assert.Contains(t, got, "error: answer Z: operator \"Z\": not found")
}

func TestConnectMode_RetriesThenFails(t *testing.T) {
	port, err := util.FindFreePort()
	require.NoError(t, err)

	mode := &ConnectMode{
		Dialer:     &transport.TCPDialer{Timeout: time.Second},
		Capability: &capability.Console{},
		Address:    util.FormatAddr("127.0.0.1", port),
		Backoff:    &retry.Backoff{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxAttempts: 3},
		Logger:     util.NewLogger(0),
		Stdin:      strings.NewReader(""),
		Stdout:     &bytes.Buffer{},
	}

	err = mode.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries (3) exceeded")
	assert.Contains(t, err.Error(), "connect to")
}

func TestConnectMode_SingleAttempt(t *testing.T) {
	port, err := util.FindFreePort()
	require.NoError(t, err)

	mode := &ConnectMode{
		Dialer:     &transport.TCPDialer{Timeout: time.Second},
		Capability: &capability.Console{},
		Address:    util.FormatAddr("127.0.0.1", port),
		Logger:     util.NewLogger(0),
	}

	err = mode.Run(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "max retries")
}
