package dispatch

import "time"

// Timeout is the reclamation event scheduled by every successful ring.
// Ring distinguishes successive rings of the same operator, so a timer
// that fires after its ring ended never matches a later ring, even for
// the same call id.
type Timeout struct {
	Call     CallID
	Operator string
	Ring     uint64
}

// Timer is a cancellable pending Timeout.  Stop reports whether it
// prevented delivery; false means the event already fired (or is in
// flight) and the receiver must treat it as a possible race.
type Timer interface {
	Stop() bool
}

// Scheduler arms reclamation timers.
type Scheduler interface {
	Schedule(t Timeout) Timer
}

// AfterFuncScheduler delivers each Timeout after Delay on its own
// goroutine.  Deliver must hand the event to the dispatcher's loop
// rather than touching dispatcher state directly.
type AfterFuncScheduler struct {
	Delay   time.Duration
	Deliver func(Timeout)
}

// Schedule implements [Scheduler].
func (s *AfterFuncScheduler) Schedule(t Timeout) Timer {
	return time.AfterFunc(s.Delay, func() {
		if s.Deliver != nil {
			s.Deliver(t)
		}
	})
}
