package dispatch

import (
	"slices"

	ccerr "callcenter/internal/errors"
)

// Queue holds the calls waiting for an operator.  Index 0 is the hot
// end: it is dequeued next and receives released calls.  New arrivals
// go to the cold end.
type Queue struct {
	calls []CallID
}

// NewQueue returns an empty queue.
func NewQueue() *Queue { return &Queue{} }

// EnqueueBack appends a first-time arrival behind every waiting call.
func (q *Queue) EnqueueBack(call CallID) {
	q.calls = append(q.calls, call)
}

// EnqueueFront puts a released call ahead of every waiting call.
func (q *Queue) EnqueueFront(call CallID) {
	q.calls = slices.Insert(q.calls, 0, call)
}

// Dequeue removes and returns the call at the hot end.
func (q *Queue) Dequeue() (CallID, error) {
	if len(q.calls) == 0 {
		return 0, ccerr.ErrEmptyQueue
	}
	call := q.calls[0]
	q.calls = q.calls[1:]
	return call, nil
}

// Contains reports whether call is waiting.
func (q *Queue) Contains(call CallID) bool {
	return slices.Contains(q.calls, call)
}

// Remove drops a waiting call, reporting whether it was present.
func (q *Queue) Remove(call CallID) bool {
	i := slices.Index(q.calls, call)
	if i < 0 {
		return false
	}
	q.calls = slices.Delete(q.calls, i, i+1)
	return true
}

// NonEmpty reports whether any call is waiting.
func (q *Queue) NonEmpty() bool { return len(q.calls) > 0 }

// Len returns the number of waiting calls.
func (q *Queue) Len() int { return len(q.calls) }

// Snapshot returns the waiting calls, next-to-serve first.
func (q *Queue) Snapshot() []CallID {
	return append(make([]CallID, 0, len(q.calls)), q.calls...)
}
