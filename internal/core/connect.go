package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"callcenter/internal/capability"
	ccerr "callcenter/internal/errors"
	"callcenter/internal/retry"
	"callcenter/internal/session"
	"callcenter/internal/transport"
	"callcenter/util"
)

// ConnectMode dials a call-center server and runs a capability (the
// operator console) on the resulting connection.
type ConnectMode struct {
	Dialer     transport.Dialer
	Capability capability.Capability
	Address    string
	Backoff    *retry.Backoff // nil = a single attempt
	Logger     *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run dials the server, retrying refused or timed-out attempts per
// Backoff, creates a session, and hands it to the capability.  The
// transport is closed when Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	defer conn.Close()

	m.Logger.Verbose("connected to %s", conn.RemoteAddr())

	sess := session.New(conn, m.stdin(), m.stdout(), m.Logger)
	return m.Capability.Handle(ctx, sess)
}

func (m *ConnectMode) dial(ctx context.Context) (net.Conn, error) {
	m.Logger.Verbose("connecting to %s", m.Address)
	if m.Backoff == nil {
		return m.Dialer.Dial(ctx, "tcp", m.Address)
	}

	b := *m.Backoff
	b.Retryable = ccerr.IsRetryable
	b.OnRetry = func(attempt int, wait time.Duration, err error) {
		m.Logger.Warn("attempt %d failed: %v; retrying in %v", attempt, err, wait.Round(time.Millisecond))
	}

	var conn net.Conn
	err := b.Do(ctx, func(int) error {
		c, err := m.Dialer.Dial(ctx, "tcp", m.Address)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	return conn, err
}
