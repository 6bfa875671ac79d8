package reactive

import (
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Cell holds one reactive value and the listeners interested in it.
//
// Structured values (maps and slices) are stored as observable containers,
// so in-place edits through *Object and *Array notify the listeners the same
// way Set does. Notifications are debounced per cell: a burst of changes
// results in a single call to each listener.
type Cell struct {
	key string

	// raw is the value as it was given to Set, before wrapping.
	raw any

	// value is what Get returns: raw, or its observable container.
	value any

	// mu protects raw, value and listeners.
	mu sync.RWMutex

	listeners []*Listener

	debouncer *Debouncer
	delay     time.Duration
	metrics   *Metrics
}

// CellOption configures a Cell.
type CellOption func(*Cell)

// WithCellDebounce sets the cell's notification delay.
func WithCellDebounce(d time.Duration) CellOption {
	return func(c *Cell) {
		c.delay = d
	}
}

// WithCellDebouncer sets the Debouncer used for the cell's notifications.
func WithCellDebouncer(d *Debouncer) CellOption {
	return func(c *Cell) {
		if d != nil {
			c.debouncer = d
		}
	}
}

// withCellKey names the cell in listener errors.
func withCellKey(key string) CellOption {
	return func(c *Cell) {
		c.key = key
	}
}

func withCellMetrics(m *Metrics) CellOption {
	return func(c *Cell) {
		c.metrics = m
	}
}

// NewCell creates a cell holding v.
func NewCell(v any, opts ...CellOption) *Cell {
	c := &Cell{
		debouncer: defaultDebouncer,
		delay:     DefaultDebounce,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.assign(v)
	return c
}

// assign stores v, wrapping structured values. Callers hold c.mu for
// writing or own c exclusively.
func (c *Cell) assign(v any) {
	c.raw = v
	c.value = Wrap(v, c.mutated, true)
}

// mutated is the callback handed to observable containers.
func (c *Cell) mutated() {
	c.Trigger(nil)
}

// Get returns the current value. Structured values are returned as their
// observable container. Get never records a dependency.
func (c *Cell) Get() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and notifies listeners. Setting the value the cell
// already holds (by identity, see Store.Set) does nothing and returns a
// settled Pending.
func (c *Cell) Set(v any) *Pending {
	c.mu.Lock()
	if same(v, c.raw) || same(v, c.value) {
		c.mu.Unlock()
		c.metrics.noopSet()
		return Resolved(nil, nil)
	}
	prev := c.value
	c.assign(v)
	c.mu.Unlock()

	c.metrics.set()
	return c.Trigger(prev)
}

// Watch adds l to the cell's listeners. Adding the same listener twice has
// no effect.
func (c *Cell) Watch(l *Listener) {
	if l == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.listeners {
		if existing.id == l.id {
			return
		}
	}
	c.listeners = append(c.listeners, l)
}

// Unwatch removes l from the cell's listeners. It reports whether l was
// registered.
func (c *Cell) Unwatch(l *Listener) bool {
	if l == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.listeners)
	c.listeners = slices.DeleteFunc(c.listeners, func(existing *Listener) bool {
		return existing.id == l.id
	})
	return len(c.listeners) != n
}

// Listeners returns the number of registered listeners.
func (c *Cell) Listeners() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listeners)
}

// Trigger notifies the listeners registered right now, even if the value did
// not change. Listeners added after this call are not part of this
// notification. The listeners run concurrently once the debounce delay has
// passed; the returned Pending settles after the slowest one returns, with
// the first listener error, if any.
func (c *Cell) Trigger(prev any) *Pending {
	c.mu.RLock()
	listeners := slices.Clone(c.listeners)
	c.mu.RUnlock()

	if len(listeners) == 0 {
		return Resolved(nil, nil)
	}

	return c.debouncer.Debounce(c, c.delay, func() (any, error) {
		c.metrics.trigger()
		curr := c.Get()

		var g errgroup.Group
		for _, l := range listeners {
			g.Go(func() error {
				_, err := run(func() (any, error) {
					return nil, l.fn(curr, prev)
				})
				if err != nil {
					c.metrics.listenerError()
					return &ListenerError{Key: c.key, Err: err}
				}
				return nil
			})
		}
		return nil, g.Wait()
	})
}
