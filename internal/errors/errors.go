// Package errors provides the error taxonomy shared by the call-center
// core and its transports.
//
// Sentinels classify why a command was rejected; the structured types
// carry the context (command, address, config field) that callers need
// to report the failure without crashing the server.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrNotFound reports an operator id or call id that is not known.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCommand reports a command name outside the closed set.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrInvalidCall reports a missing or malformed call identifier.
	ErrInvalidCall = errors.New("invalid call id")
	// ErrInvalidTransition reports an operator transition attempted from
	// a state that forbids it.
	ErrInvalidTransition = errors.New("invalid operator transition")
	// ErrEmptyQueue reports a dequeue with nothing waiting.
	ErrEmptyQueue = errors.New("queue is empty")
	// ErrDuplicateCall reports a new call whose id is already live.
	ErrDuplicateCall = errors.New("call already live")
)

// ── Structured error types ───────────────────────────────────────────

// CommandError is returned for every command the dispatcher refuses.
// The server turns it into an error reply and keeps serving.
type CommandError struct {
	Command string
	Args    string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Args == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Command, e.Args, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // "dial", "listen", "accept", "read", "write"
	Addr      string
	Err       error
	Retryable bool
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "auth", "hostkey", "handshake"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // flag name without dashes
	Value   interface{} // nil if missing
	Message string
	Hint    string // optional
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Command wraps err as a rejected command.  A nil err stays nil.
func Command(command, args string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Args: args, Err: err}
}

// Wrap creates a NetworkError, detecting retryability from err.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// IsRejected reports whether err is a refused command rather than a
// transport or internal failure.
func IsRejected(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	// A refused connection usually means the server is still starting.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Temporary() //nolint:staticcheck
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
