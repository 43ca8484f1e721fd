package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"callcenter/internal/capability"
	"callcenter/internal/dispatch"
	"callcenter/internal/retry"
	"callcenter/internal/session"
	"callcenter/util"
)

// ListenMode is the call-center server.  It runs the dispatcher loop,
// accepts TCP clients and, when Web is set, serves the HTTP surface.
// The first of them to fail stops the others.
type ListenMode struct {
	Address    string // ":port"
	Loop       *dispatch.Loop
	Capability capability.Capability // run on every accepted connection
	Web        *WebServer            // optional
	Logger     *util.Logger

	// Ready, when set, is called with the bound address once the
	// listener is open.
	Ready func(addr net.Addr)
}

// Run binds Address and serves until ctx is cancelled.
func (m *ListenMode) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.Address, err)
	}
	return m.Serve(ctx, ln)
}

// Serve runs the server on an already-open listener, which it closes.
func (m *ListenMode) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	m.Logger.Info("listening on %s", ln.Addr())
	if m.Ready != nil {
		m.Ready(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Loop.Run(gctx) })
	g.Go(func() error { return m.accept(gctx, ln) })
	if m.Web != nil {
		g.Go(func() error { return m.Web.Run(gctx) })
	}

	err := g.Wait()
	m.Logger.Verbose("server stopped")
	return err
}

// accept hands each connection to the capability on its own goroutine
// and waits for all of them before returning.  Temporary accept
// failures back off instead of stopping the server.
func (m *ListenMode) accept(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	backoff := &retry.Backoff{InitialDelay: 5 * time.Millisecond, MaxDelay: time.Second}
	var delay time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if delay == 0 {
					delay = backoff.InitialDelay
				} else {
					delay = backoff.Next(delay)
				}
				m.Logger.Warn("accept: %v; retrying in %v", err, delay)
				time.Sleep(delay)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		delay = 0

		wg.Add(1)
		go func() {
			defer wg.Done()
			m.serveConn(ctx, conn)
		}()
	}
}

func (m *ListenMode) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	sess := session.New(conn, conn, conn, m.Logger)
	if err := m.Capability.Handle(ctx, sess); err != nil {
		sess.Logger.Warn("session ended: %v", err)
	}
}
