package util

import (
	"errors"
	"io"
	"net"
	"sync"
)

// IsHarmless returns true for errors that are expected during shutdown:
// a clean EOF or a read or write on a connection we closed ourselves.
func IsHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

// CloseWrite half-closes conn when the transport supports it, so the
// peer sees EOF while replies can still be read.  It reports whether a
// half-close happened.
func CloseWrite(conn net.Conn) bool {
	type closeWriter interface{ CloseWrite() error }
	if cw, ok := conn.(closeWriter); ok {
		return cw.CloseWrite() == nil
	}
	return false
}

// SyncWriter serializes writes from several goroutines onto one writer.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter { return &SyncWriter{w: w} }

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
