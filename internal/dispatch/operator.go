// Package dispatch is the call-center engine: operators, the waiting
// queue, the dispatcher that assigns calls to operators, the ring
// timeout that reclaims unanswered calls, and the event loop that
// serializes every entry point.
//
// Layering (bottom → top):
//
//	Operator  →  Pool / Queue  →  Dispatcher  →  Loop
//
// Only Loop is safe for concurrent use.  Everything below it assumes a
// single caller at a time.
package dispatch

import "strconv"

// CallID identifies a call.  Callers supply it; it is never negative.
type CallID int

func (c CallID) String() string { return strconv.Itoa(int(c)) }

// State is an operator's position in its state machine.
type State int

const (
	// Available operators can be offered a call.
	Available State = iota
	// Ringing operators have been offered a call and not yet answered.
	Ringing
	// Busy operators are on an answered call.
	Busy
)

func (s State) String() string {
	switch s {
	case Available:
		return "available"
	case Ringing:
		return "ringing"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

// Operator handles at most one call at a time.
//
// The assigned call is set iff the state is Ringing or Busy, and the
// reclamation timer is set iff the state is Ringing.  Every transition
// is total: a forbidden transition reports failure and changes nothing.
type Operator struct {
	id    string
	state State
	call  CallID
	timer Timer
	rings uint64 // ring counter; identifies the current ring in Timeouts
	sched Scheduler
}

func newOperator(id string, sched Scheduler) *Operator {
	return &Operator{id: id, sched: sched}
}

// ID returns the configured operator id.
func (o *Operator) ID() string { return o.id }

// State returns the current state.
func (o *Operator) State() State { return o.state }

// Call returns the assigned call, if any.
func (o *Operator) Call() (CallID, bool) {
	if o.state == Available {
		return 0, false
	}
	return o.call, true
}

// Ring offers call to an Available operator and arms its reclamation
// timer.  It returns false, without side effects, from any other state.
func (o *Operator) Ring(call CallID) bool {
	if o.state != Available {
		return false
	}
	o.rings++
	o.state = Ringing
	o.call = call
	o.timer = o.sched.Schedule(Timeout{Call: call, Operator: o.id, Ring: o.rings})
	return true
}

// Answer moves a Ringing operator to Busy.
func (o *Operator) Answer() bool {
	if o.state != Ringing {
		return false
	}
	o.stopTimer()
	o.state = Busy
	return true
}

// Reject releases the ringing call and returns it.  The second result
// is false if the operator was not Ringing.
func (o *Operator) Reject() (CallID, bool) {
	if o.state != Ringing {
		return 0, false
	}
	call := o.call
	o.release()
	return call, true
}

// Hangup ends a Ringing or Busy call.  On an Available operator it is
// a no-op returning false.
func (o *Operator) Hangup() bool {
	if o.state == Available {
		return false
	}
	o.release()
	return true
}

// ringing reports whether t still refers to this operator's current ring.
func (o *Operator) ringing(t Timeout) bool {
	return o.state == Ringing && o.id == t.Operator && o.call == t.Call && o.rings == t.Ring
}

func (o *Operator) release() {
	o.stopTimer()
	o.state = Available
	o.call = 0
}

func (o *Operator) stopTimer() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}
