// Package capability defines what happens over an established
// connection.  Each Capability encapsulates a single behaviour
// (serve dispatcher commands, drive an interactive console) and
// operates on a Session rather than a raw net.Conn, which keeps
// capabilities testable and decoupled from transport details.
package capability

import (
	"context"

	"callcenter/internal/session"
)

// Capability handles a single connection according to a specific
// behaviour.  Implementations include serving a client on the
// server side (Dispatch) and the operator console on the client side
// (Console).
type Capability interface {
	// Handle runs the capability against the given session.
	// It blocks until the connection is done or the context is
	// cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}
