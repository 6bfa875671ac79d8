package reactive

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period used by stores and cells that are not
// configured with an explicit delay.
const DefaultDebounce = 10 * time.Millisecond

// Debouncer coalesces repeated calls keyed by a comparable value. Each key
// has at most one pending timer; calling Debounce again with the same key
// before the timer fires restarts the delay and replaces the callback.
//
// All callers of a coalesced burst receive the same *Pending, which settles
// with the outcome of the callback that finally ran.
type Debouncer struct {
	mu      sync.Mutex
	pending map[any]*debounced

	// onCoalesce is invoked (outside the lock) each time a call supersedes
	// a pending one. Used for metrics.
	onCoalesce func()
}

// debounced is one scheduled call.
type debounced struct {
	timer  *time.Timer
	fn     func() (any, error)
	result *Pending
}

// NewDebouncer creates an empty Debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{pending: make(map[any]*debounced)}
}

// defaultDebouncer is shared by stores and cells created without their own.
var defaultDebouncer = NewDebouncer()

// Debounce schedules fn to run after delay. If a call with the same key is
// still waiting, its timer is restarted, fn replaces the earlier callback,
// and the earlier call's Pending is returned.
//
// A panic in fn is recovered and settles the Pending with a *PanicError.
func (d *Debouncer) Debounce(key any, delay time.Duration, fn func() (any, error)) *Pending {
	d.mu.Lock()
	if e, ok := d.pending[key]; ok && e.timer.Stop() {
		e.fn = fn
		e.timer.Reset(delay)
		onCoalesce := d.onCoalesce
		d.mu.Unlock()
		if onCoalesce != nil {
			onCoalesce()
		}
		return e.result
	}

	// Either nothing is pending or the old timer already fired and its
	// callback is about to run. Start a fresh entry in both cases.
	e := &debounced{fn: fn, result: newPending()}
	e.timer = time.AfterFunc(delay, func() { d.fire(key, e) })
	d.pending[key] = e
	d.mu.Unlock()

	return e.result
}

// fire runs a scheduled call and clears its entry.
func (d *Debouncer) fire(key any, e *debounced) {
	d.mu.Lock()
	if d.pending[key] == e {
		delete(d.pending, key)
	}
	fn := e.fn
	d.mu.Unlock()

	e.result.settle(run(fn))
}

// run invokes fn, converting a panic into an error.
func run(fn func() (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, recoverError(r)
		}
	}()
	return fn()
}

// Len returns the number of calls waiting for their timer.
func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush runs every waiting call immediately, on the calling goroutine.
// Calls scheduled by the flushed callbacks are not flushed.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	due := make([]*debounced, 0, len(d.pending))
	for key, e := range d.pending {
		if e.timer.Stop() {
			due = append(due, e)
			delete(d.pending, key)
		}
	}
	d.mu.Unlock()

	for _, e := range due {
		e.result.settle(run(e.fn))
	}
}

// Stop cancels every waiting call. Their Pendings settle with ErrStopped.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	canceled := make([]*debounced, 0, len(d.pending))
	for key, e := range d.pending {
		if e.timer.Stop() {
			canceled = append(canceled, e)
			delete(d.pending, key)
		}
	}
	d.mu.Unlock()

	for _, e := range canceled {
		e.result.settle(nil, ErrStopped)
	}
}
