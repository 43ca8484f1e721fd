package transport

import (
	"context"
	"net"
	"time"

	ccerr "callcenter/internal/errors"
	"callcenter/util"
)

// TCPDialer reaches the server directly.
type TCPDialer struct {
	Timeout   time.Duration
	KeepAlive time.Duration // 0 = system default
	LocalPort int           // optional source-port binding (0 = ephemeral)
}

// Dial connects to address over TCP.  Failures come back as a
// *errors.NetworkError so callers can decide whether to retry.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	if d.LocalPort > 0 {
		dialer.LocalAddr = &net.TCPAddr{Port: d.LocalPort}
	}

	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, ccerr.Wrap("dial", address, err)
	}
	return conn, nil
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }

// New returns the dialer for a console connection: direct TCP, or
// through the gateway when ssh is non-nil.
func New(ssh *SSHConfig, timeout time.Duration, localPort int, logger *util.Logger) Dialer {
	if ssh != nil {
		if ssh.Timeout == 0 {
			ssh.Timeout = timeout
		}
		return NewSSHDialer(ssh, logger)
	}
	return &TCPDialer{Timeout: timeout, LocalPort: localPort}
}
