package dispatch

import (
	"fmt"
	"strings"

	ccerr "callcenter/internal/errors"
	"callcenter/internal/metrics"
	"callcenter/util"
)

// Options configures a Dispatcher.
type Options struct {
	// Operators lists operator ids in preference order.
	Operators []string
	// Scheduler arms the ring timeout of every offered call.
	Scheduler Scheduler
	// RequeueIgnored puts a call reclaimed by the ring timeout back at
	// the front of the queue instead of dropping it.
	RequeueIgnored bool

	Logger  *util.Logger       // optional
	Metrics *metrics.Collector // optional
}

// Dispatcher matches calls to operators.  Each entry point runs to
// completion, cascade included, and returns the status lines it
// produced.
//
// A Dispatcher is not safe for concurrent use; [Loop] provides the
// required serialization.
type Dispatcher struct {
	pool           *Pool
	queue          *Queue
	requeueIgnored bool
	logger         *util.Logger
	metrics        *metrics.Collector
}

// New builds a dispatcher with every operator Available and an empty
// queue.
func New(opts Options) (*Dispatcher, error) {
	pool, err := NewPool(opts.Operators, opts.Scheduler)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = util.NewLogger(0)
	}
	d := &Dispatcher{
		pool:           pool,
		queue:          NewQueue(),
		requeueIgnored: opts.RequeueIgnored,
		logger:         logger,
		metrics:        opts.Metrics,
	}
	d.observe()
	return d, nil
}

// Handle runs cmd against the matching entry point.  Refused commands
// come back as a *errors.CommandError and leave the state untouched.
func (d *Dispatcher) Handle(cmd Command, args string) (string, error) {
	args = strings.TrimSpace(args)

	var (
		msg string
		err error
	)
	switch cmd {
	case CmdCall:
		var call CallID
		if call, err = ParseCallID(args); err == nil {
			msg, err = d.OnCall(call)
		}
	case CmdAnswer:
		msg, err = d.OnAnswer(args)
	case CmdReject:
		msg, err = d.OnReject(args)
	case CmdHangup:
		var call CallID
		if call, err = ParseCallID(args); err == nil {
			msg, err = d.OnHangup(call)
		}
	default:
		err = ccerr.ErrInvalidCommand
	}

	d.observe()
	if err != nil {
		d.metrics.RecordError(err.Error())
		d.logger.Warn("%s %s refused: %v", cmd, args, err)
		return "", ccerr.Command(cmd.String(), args, err)
	}
	return msg, nil
}

// OnCall accepts a fresh call and rings the first Available operator,
// or queues the call behind every waiting call.
func (d *Dispatcher) OnCall(call CallID) (string, error) {
	if call < 0 {
		return "", fmt.Errorf("call %d: %w", call, ccerr.ErrInvalidCall)
	}
	if d.live(call) {
		return "", fmt.Errorf("call %d: %w", call, ccerr.ErrDuplicateCall)
	}
	d.metrics.CallReceived()
	return join(fmt.Sprintf("Call %d received", call), d.place(call)), nil
}

// Next places the call at the head of the queue.  It fails with
// ErrEmptyQueue when nothing is waiting.
func (d *Dispatcher) Next() (string, error) {
	call, err := d.queue.Dequeue()
	if err != nil {
		return "", err
	}
	return d.place(call), nil
}

// OnAnswer moves the operator from Ringing to Busy.  Answering an
// operator that is not ringing is a silent no-op.
func (d *Dispatcher) OnAnswer(opID string) (string, error) {
	op, err := d.pool.Get(opID)
	if err != nil {
		return "", err
	}
	if !op.Answer() {
		d.logger.Verbose("operator %s is %s, answer ignored", op.ID(), op.State())
		return "", nil
	}
	call, _ := op.Call()
	d.metrics.CallAnswered()
	d.logger.Verbose("call %d answered by %s", call, op.ID())
	return fmt.Sprintf("Call %d answered by operator %s", call, op.ID()), nil
}

// OnReject releases the operator's ringing call to the front of the
// queue and immediately places it again.
func (d *Dispatcher) OnReject(opID string) (string, error) {
	op, err := d.pool.Get(opID)
	if err != nil {
		return "", err
	}
	call, ok := op.Reject()
	if !ok {
		return "", fmt.Errorf("operator %s is %s: %w", op.ID(), op.State(), ccerr.ErrInvalidTransition)
	}
	d.metrics.CallRejected()
	d.logger.Verbose("call %d rejected by %s, requeued at front", call, op.ID())

	d.queue.EnqueueFront(call)
	next, err := d.Next()
	if err != nil {
		return "", err
	}
	return join(fmt.Sprintf("Call %d rejected by operator %s", call, op.ID()), next), nil
}

// OnHangup ends a waiting, ringing or answered call, then lets a freed
// operator pick up the next waiting call.
func (d *Dispatcher) OnHangup(call CallID) (string, error) {
	var msg string

	if d.queue.Remove(call) {
		d.metrics.CallMissed()
		msg = fmt.Sprintf("Call %d missed", call)
	} else if op := d.pool.FindHolderOf(call); op != nil {
		if op.State() == Busy {
			d.metrics.CallFinished()
			msg = fmt.Sprintf("Call %d finished and operator %s available", call, op.ID())
		} else {
			d.metrics.CallMissed()
			msg = fmt.Sprintf("Call %d missed", call)
		}
		op.Hangup()
	} else {
		return "", fmt.Errorf("call %d: %w", call, ccerr.ErrNotFound)
	}

	next, err := d.cascade()
	if err != nil {
		return "", err
	}
	return join(msg, next), nil
}

// OnTimeout reclaims the operator named by t if it is still ringing on
// the same ring.  Anything else is a timer that lost a race against
// answer, reject or hangup, and produces no message.
func (d *Dispatcher) OnTimeout(t Timeout) (string, error) {
	op := d.pool.FindHolderOf(t.Call)
	if op == nil || !op.ringing(t) {
		d.logger.Debug("stale timeout for call %d on %s (ring %d)", t.Call, t.Operator, t.Ring)
		return "", nil
	}

	op.Hangup()
	d.metrics.CallIgnored()
	d.logger.Verbose("call %d ignored by %s", t.Call, op.ID())
	msg := fmt.Sprintf("Call %d ignored by operator %s", t.Call, op.ID())
	if d.requeueIgnored {
		d.queue.EnqueueFront(t.Call)
	}

	next, err := d.cascade()
	d.observe()
	if err != nil {
		return "", err
	}
	return join(msg, next), nil
}

// cascade places the head of the queue when an operator is free.
func (d *Dispatcher) cascade() (string, error) {
	if !d.queue.NonEmpty() || !d.pool.HasAvailable() {
		return "", nil
	}
	return d.Next()
}

// place rings the first Available operator or parks call at the back
// of the queue.
func (d *Dispatcher) place(call CallID) string {
	if op := d.pool.AssignFirstAvailable(call); op != nil {
		d.metrics.CallRung()
		d.logger.Verbose("call %d ringing %s", call, op.ID())
		return fmt.Sprintf("Call %d ringing for operator %s", call, op.ID())
	}
	d.queue.EnqueueBack(call)
	d.metrics.CallQueued()
	d.logger.Verbose("call %d queued (%d waiting)", call, d.queue.Len())
	return fmt.Sprintf("Call %d waiting in queue", call)
}

func (d *Dispatcher) live(call CallID) bool {
	return d.queue.Contains(call) || d.pool.FindHolderOf(call) != nil
}

func (d *Dispatcher) observe() {
	if d.metrics == nil {
		return
	}
	var avail, ringing, busy int
	for _, op := range d.pool.ops {
		switch op.State() {
		case Available:
			avail++
		case Ringing:
			ringing++
		case Busy:
			busy++
		}
	}
	d.metrics.ObserveOperators(avail, ringing, busy)
	d.metrics.ObserveQueue(d.queue.Len())
}

// ── Status ───────────────────────────────────────────────────────────

// OperatorStatus is a point-in-time view of one operator.
type OperatorStatus struct {
	ID    string  `json:"id"`
	State string  `json:"state"`
	Call  *CallID `json:"call,omitempty"`
}

// Status is a point-in-time view of the pool and the queue.
type Status struct {
	Operators []OperatorStatus `json:"operators"`
	Queue     []CallID         `json:"queue"`
}

// Status snapshots the dispatcher.
func (d *Dispatcher) Status() Status {
	s := Status{
		Operators: make([]OperatorStatus, 0, len(d.pool.ops)),
		Queue:     d.queue.Snapshot(),
	}
	for _, op := range d.pool.ops {
		st := OperatorStatus{ID: op.ID(), State: op.State().String()}
		if call, ok := op.Call(); ok {
			st.Call = &call
		}
		s.Operators = append(s.Operators, st)
	}
	return s
}

// join concatenates non-empty status lines with newlines.
func join(lines ...string) string {
	out := lines[:0:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
