// Package session represents a single client connection lifecycle and
// the hub that fans timeout notifications out to every live session.
//
// Sessions decouple capabilities from concrete I/O sources: a
// capability doesn't need to know whether it's reading from a TCP
// socket, os.Stdin or a test buffer, it just uses the session's
// Reader/Writer.
package session

import (
	"io"
	"net"

	"github.com/google/uuid"

	"callcenter/util"
)

// Session encapsulates the runtime context for a single connection.
// Capabilities operate on sessions rather than raw connections,
// enabling clean testing and I/O abstraction.
type Session struct {
	ID     string
	Conn   net.Conn
	Stdin  io.Reader
	Stdout io.Writer
	Logger *util.Logger
}

// New creates a Session bound to the given connection and I/O pair.
// The session gets a fresh random ID and a logger tagged with it.
func New(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger) *Session {
	id := uuid.NewString()
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &Session{
		ID:     id,
		Conn:   conn,
		Stdin:  stdin,
		Stdout: stdout,
		Logger: logger.With("session " + ShortID(id)),
	}
}

// RemoteAddr returns the peer address, or "local" for sessions not
// bound to a network connection.
func (s *Session) RemoteAddr() string {
	if s.Conn == nil {
		return "local"
	}
	return s.Conn.RemoteAddr().String()
}

// ShortID returns the first eight characters of id, enough to tell
// sessions apart in logs.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
