package reactive

import (
	"context"
	"sync"
)

// Pending is the result of an asynchronous store operation. It settles once,
// with a value or an error, and can be awaited any number of times.
//
// A Pending returned by Set or Trigger settles after the debounced listener
// notification for that change has run.
type Pending struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolved returns a Pending that has already settled.
func Resolved(value any, err error) *Pending {
	p := newPending()
	p.settle(value, err)
	return p
}

// settle records the outcome. Only the first call has any effect.
func (p *Pending) settle(value any, err error) {
	p.once.Do(func() {
		p.value = value
		p.err = err
		close(p.done)
	})
}

// Done returns a channel that is closed when the Pending settles.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the Pending settles or ctx is done. It returns the
// settled error, or ctx.Err() if the context finished first.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settled reports whether the Pending has settled.
func (p *Pending) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Value returns the settled value. It is nil until the Pending settles.
func (p *Pending) Value() any {
	if !p.Settled() {
		return nil
	}
	return p.value
}

// Err returns the settled error. It is nil until the Pending settles.
func (p *Pending) Err() error {
	if !p.Settled() {
		return nil
	}
	return p.err
}

// All returns a Pending that settles once every input has settled. The
// first non-nil error (in argument order) becomes its error.
func All(ps ...*Pending) *Pending {
	switch len(ps) {
	case 0:
		return Resolved(nil, nil)
	case 1:
		return ps[0]
	}

	out := newPending()
	go func() {
		var first error
		for _, p := range ps {
			<-p.done
			if first == nil && p.err != nil {
				first = p.err
			}
		}
		out.settle(nil, first)
	}()
	return out
}
