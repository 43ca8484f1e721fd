package dispatch

import (
	"context"
	"errors"

	ccerr "callcenter/internal/errors"
	"callcenter/util"
)

// ErrStopped is returned by Loop methods once Run has returned.
var ErrStopped = errors.New("dispatcher loop stopped")

// Notifier receives the messages produced outside any request, i.e.
// by ring timeouts.  Notify is called from the loop goroutine and must
// not block.
type Notifier interface {
	Notify(msg string)
}

// Loop owns a Dispatcher and runs every entry point on one goroutine:
// transport commands and timer expiries share a single mailbox, so no
// two of them ever interleave.
type Loop struct {
	d        *Dispatcher
	notifier Notifier
	logger   *util.Logger

	requests chan request
	timeouts chan Timeout
	done     chan struct{}
}

type request struct {
	cmd    Command
	args   string
	status bool
	reply  chan result
}

type result struct {
	msg    string
	err    error
	status Status
}

// NewLoop wraps d.  The loop does nothing until [Loop.Run] is called.
func NewLoop(d *Dispatcher, notifier Notifier, logger *util.Logger) *Loop {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &Loop{
		d:        d,
		notifier: notifier,
		logger:   logger,
		requests: make(chan request),
		timeouts: make(chan Timeout, 16),
		done:     make(chan struct{}),
	}
}

// Run processes the mailbox until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	l.logger.Verbose("dispatcher loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Verbose("dispatcher loop stopped")
			return nil

		case req := <-l.requests:
			if req.status {
				req.reply <- result{status: l.d.Status()}
				continue
			}
			msg, err := l.d.Handle(req.cmd, req.args)
			req.reply <- result{msg: msg, err: err}

		case t := <-l.timeouts:
			msg, err := l.d.OnTimeout(t)
			if err != nil {
				l.logger.Error("timeout for call %d: %v", t.Call, err)
				continue
			}
			if msg != "" && l.notifier != nil {
				l.notifier.Notify(msg)
			}
		}
	}
}

// Handle parses the wire command name and runs it on the loop.
func (l *Loop) Handle(ctx context.Context, command, args string) (string, error) {
	cmd, err := ParseCommand(command)
	if err != nil {
		return "", ccerr.Command(command, args, err)
	}
	res, err := l.submit(ctx, request{cmd: cmd, args: args})
	if err != nil {
		return "", err
	}
	return res.msg, res.err
}

// Status returns a snapshot taken between two entry points.
func (l *Loop) Status(ctx context.Context) (Status, error) {
	res, err := l.submit(ctx, request{status: true})
	if err != nil {
		return Status{}, err
	}
	return res.status, nil
}

// Deliver hands a fired timer to the loop.  It is the Deliver func for
// [AfterFuncScheduler] and blocks until the loop accepts the event or
// stops.
func (l *Loop) Deliver(t Timeout) {
	select {
	case l.timeouts <- t:
	case <-l.done:
	}
}

func (l *Loop) submit(ctx context.Context, req request) (result, error) {
	req.reply = make(chan result, 1)

	select {
	case l.requests <- req:
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-l.done:
		return result{}, ErrStopped
	}

	select {
	case res := <-req.reply:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}
