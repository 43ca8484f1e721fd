// Package core is the orchestration layer.  It composes the
// dispatcher, transports and capabilities into complete operational
// modes and provides a builder that selects the right mode from a
// Config.
//
// Architecture layers (bottom → top):
//
//	dispatch  →  transport / protocol  →  capability  →  session  →  core  →  cmd (CLI)
//
// The builder in this package is the single place where a dispatcher,
// its timer scheduler, the event loop and the notification hub are
// wired together.
package core

import "context"

// Mode represents a complete operational mode of callcenter (serve or
// console).  Each mode owns its full lifecycle from connection
// establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
