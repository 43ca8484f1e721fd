package dispatch

import (
	"fmt"
	"strings"

	ccerr "callcenter/internal/errors"
)

// Pool is the fixed, ordered set of operators.  Iteration order is the
// configuration order and never changes.
type Pool struct {
	ops  []*Operator
	byID map[string]*Operator
}

// NewPool creates one Available operator per id.  Ids must be non-blank
// and unique.
func NewPool(ids []string, sched Scheduler) (*Pool, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one operator is required")
	}
	if sched == nil {
		return nil, fmt.Errorf("a scheduler is required")
	}

	p := &Pool{
		ops:  make([]*Operator, 0, len(ids)),
		byID: make(map[string]*Operator, len(ids)),
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" || strings.ContainsAny(id, " \t\r\n") {
			return nil, fmt.Errorf("invalid operator id %q", id)
		}
		if _, dup := p.byID[id]; dup {
			return nil, fmt.Errorf("duplicate operator id %q", id)
		}
		op := newOperator(id, sched)
		p.ops = append(p.ops, op)
		p.byID[id] = op
	}
	return p, nil
}

// AssignFirstAvailable rings the first Available operator in
// configuration order and returns it, or nil if every operator is
// Ringing or Busy.  The leading operator is always preferred.
func (p *Pool) AssignFirstAvailable(call CallID) *Operator {
	for _, op := range p.ops {
		if op.Ring(call) {
			return op
		}
	}
	return nil
}

// FindHolderOf returns the operator ringing on or busy with call.
func (p *Pool) FindHolderOf(call CallID) *Operator {
	for _, op := range p.ops {
		if c, ok := op.Call(); ok && c == call {
			return op
		}
	}
	return nil
}

// Get looks an operator up by id.
func (p *Pool) Get(id string) (*Operator, error) {
	op, ok := p.byID[id]
	if !ok {
		return nil, fmt.Errorf("operator %q: %w", id, ccerr.ErrNotFound)
	}
	return op, nil
}

// HasAvailable reports whether any operator could take a call now.
func (p *Pool) HasAvailable() bool {
	for _, op := range p.ops {
		if op.State() == Available {
			return true
		}
	}
	return false
}

// Operators returns the operators in configuration order.
func (p *Pool) Operators() []*Operator {
	out := make([]*Operator, len(p.ops))
	copy(out, p.ops)
	return out
}
