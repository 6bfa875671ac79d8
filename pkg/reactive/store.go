package reactive

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

// Store maps string keys to reactive cells. Reads made during Trace are
// recorded as dependencies, Watch re-runs a callback when any of a group of
// keys changes, and Computed keeps a key in sync with a derived value.
//
// A store may have a parent. Keys missing locally are looked up in the
// parent chain; writes always land in the store they were made on.
type Store struct {
	// mu protects cells, order and observers.
	mu    sync.RWMutex
	cells map[string]*Cell
	order []string

	// observers maps each Observer passed to Watch to the cell listener
	// that was registered on its behalf, so Unwatch can detach it.
	observers map[*Observer]*Listener

	parent *Store

	debouncer     *Debouncer
	ownsDebouncer bool
	delay         time.Duration
	logger        *slog.Logger
	metrics       *Metrics
	tracer        trace.Tracer

	// traceLock admits one Trace at a time.
	traceLock *semaphore.Weighted

	// recMu protects recording, the dependency set of the running Trace.
	recMu     sync.Mutex
	recording *dependencySet

	// scope is the untracked accessor surface returned by Scope.
	scope *Scope
	// bound is the surface stored functions read through. It records reads
	// while a Trace is running, so keys read by a stored function become
	// dependencies of the traced expression.
	bound *Scope
}

// New creates a store seeded with initial. Function values of type Func are
// bound to a Scope of the store; *Cell values are adopted as they are.
func New(initial map[string]any, opts ...Option) *Store {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	s := &Store{
		cells:     make(map[string]*Cell, len(initial)),
		observers: make(map[*Observer]*Listener),
		parent:    config.Parent,
		delay:     config.Debounce,
		logger:    config.Logger,
		metrics:   config.Metrics,
		tracer:    config.Tracer,
		debouncer: config.Debouncer,
		traceLock: semaphore.NewWeighted(1),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = defaultTracer()
	}
	if s.debouncer == nil {
		if s.parent != nil {
			s.debouncer = s.parent.debouncer
		} else {
			s.debouncer = NewDebouncer()
			s.debouncer.onCoalesce = s.metrics.coalesce
			s.ownsDebouncer = true
		}
	}
	s.scope = &Scope{store: s, ctx: context.Background()}
	s.bound = &Scope{store: s, ctx: context.Background(), tracking: true}

	keys := make([]string, 0, len(initial))
	for k := range initial {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		s.insert(k, initial[k])
	}

	return s
}

// Child creates a store whose parent is s. The child inherits the parent's
// debouncer, delay, logger, metrics and tracer unless opts override them.
func (s *Store) Child(initial map[string]any, opts ...Option) *Store {
	base := []Option{
		WithParent(s),
		WithDebounce(s.delay),
		WithLogger(s.logger),
		WithMetrics(s.metrics),
		WithTracer(s.tracer),
	}
	return New(initial, append(base, opts...)...)
}

// Parent returns the store's parent, or nil.
func (s *Store) Parent() *Store {
	return s.parent
}

// Scope returns the store's untracked accessor surface.
func (s *Store) Scope() *Scope {
	return s.scope
}

// newCell creates a cell configured like the store.
func (s *Store) newCell(key string, v any) *Cell {
	return NewCell(v,
		withCellKey(key),
		WithCellDebounce(s.delay),
		WithCellDebouncer(s.debouncer),
		withCellMetrics(s.metrics),
	)
}

// adopt returns the cell to store under key for v: v itself when it is a
// *Cell, otherwise a new cell holding v.
func (s *Store) adopt(key string, v any) *Cell {
	if c, ok := v.(*Cell); ok {
		return c
	}
	return s.newCell(key, s.bind(v))
}

// insert stores a cell for key unless one exists. It returns the existing
// cell and false in that case.
func (s *Store) insert(key string, v any) (*Cell, bool) {
	s.mu.Lock()
	if c, ok := s.cells[key]; ok {
		s.mu.Unlock()
		return c, false
	}
	c := s.adopt(key, v)
	s.cells[key] = c
	s.order = append(s.order, key)
	s.mu.Unlock()

	s.metrics.cellAdded()
	return c, true
}

// local returns the cell stored in s itself.
func (s *Store) local(key string) (*Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cells[key]
	return c, ok
}

// cell resolves key through s and its parent chain.
func (s *Store) cell(key string) *Cell {
	for st := s; st != nil; st = st.parent {
		if c, ok := st.local(key); ok {
			return c
		}
	}
	return nil
}

// Get returns the value for key, looking through the parent chain. It
// returns nil for unknown keys. While a Trace is running, key is recorded as
// a dependency.
func (s *Store) Get(key string) any {
	v, _ := s.Lookup(key)
	return v
}

// Lookup is like Get but also reports whether the key was found.
func (s *Store) Lookup(key string) (any, bool) {
	s.record(key)
	return s.peek(key)
}

// peek reads key without recording it.
func (s *Store) peek(key string) (any, bool) {
	if c := s.cell(key); c != nil {
		return c.Get(), true
	}
	return nil, false
}

// Set stores v under key. A new key gets a fresh cell and notifies nobody;
// an existing key delegates to Cell.Set, so setting the current value is a
// no-op. A key that only exists in a parent is shadowed, not written
// through.
//
// Values of type Func are stored as Bound closures over a recording Scope
// of the store.
// A *Cell for a new key is adopted; for an existing key its current value is
// copied in.
func (s *Store) Set(key string, v any) *Pending {
	c, added := s.insert(key, v)
	if added {
		return Resolved(nil, nil)
	}
	if other, isCell := v.(*Cell); isCell {
		v = other.Get()
	}
	return c.Set(s.bind(v))
}

// Has reports whether key is present in this store. The parent chain is
// not consulted.
func (s *Store) Has(key string) bool {
	_, ok := s.local(key)
	return ok
}

// Del removes key from this store and reports whether it was present.
// Listeners attached to the removed cell are dropped with it.
func (s *Store) Del(key string) bool {
	s.mu.Lock()
	_, ok := s.cells[key]
	if ok {
		delete(s.cells, key)
		if i := slices.Index(s.order, key); i >= 0 {
			s.order = slices.Delete(s.order, i, i+1)
		}
	}
	s.mu.Unlock()

	if ok {
		s.metrics.cellRemoved()
	}
	return ok
}

// Update sets every entry of record. The returned Pending settles once
// every individual Set has settled.
func (s *Store) Update(record map[string]any) *Pending {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pending := make([]*Pending, 0, len(keys))
	for _, k := range keys {
		pending = append(pending, s.Set(k, record[k]))
	}
	return All(pending...)
}

// Keys returns the local keys in insertion order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Len returns the number of local keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}

// Entries iterates over the local keys and their values in insertion order.
// Reads made through Entries are not recorded.
func (s *Store) Entries() iter.Seq2[string, any] {
	keys := s.Keys()
	return func(yield func(string, any) bool) {
		for _, k := range keys {
			c, ok := s.local(k)
			if !ok {
				continue
			}
			if !yield(k, c.Get()) {
				return
			}
		}
	}
}

// Snapshot returns the local values as plain Go values. Bound functions are
// omitted.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, s.Len())
	for k, v := range s.Entries() {
		if _, isFunc := v.(Bound); isFunc {
			continue
		}
		out[k] = Unwrap(v)
	}
	return out
}

// Watch calls o whenever any cell in keys changes, with the current values
// of all keys in the given order. Notifications are debounced as a group, so
// changes to several keys in a burst produce one call.
//
// Every key must resolve to a cell, locally or through the parent chain;
// otherwise Watch returns ErrKeyNotFound and registers nothing.
func (s *Store) Watch(keys []string, o *Observer) error {
	if o == nil {
		return nil
	}

	cells := make([]*Cell, len(keys))
	for i, k := range keys {
		c := s.cell(k)
		if c == nil {
			return &keyError{key: k, err: ErrKeyNotFound}
		}
		cells[i] = c
	}
	keys = slices.Clone(keys)

	var wrapper *Listener
	wrapper = NewListener(func(_, _ any) error {
		p := s.debouncer.Debounce(wrapper, s.delay, func() (any, error) {
			values := make([]any, len(keys))
			for i, k := range keys {
				values[i], _ = s.peek(k)
			}
			return nil, o.fn(values)
		})
		<-p.Done()
		return p.Err()
	})

	for _, c := range cells {
		c.Watch(wrapper)
	}

	s.mu.Lock()
	s.observers[o] = wrapper
	s.mu.Unlock()

	s.logger.Debug("reactive: watch", "keys", keys, "observer", o.ID())
	return nil
}

// Unwatch detaches o from the cells for keys and forgets it. It returns
// ErrNotObserved if o is not registered.
func (s *Store) Unwatch(keys []string, o *Observer) error {
	s.mu.Lock()
	wrapper, ok := s.observers[o]
	delete(s.observers, o)
	s.mu.Unlock()

	if !ok {
		return ErrNotObserved
	}

	for _, k := range keys {
		if c := s.cell(k); c != nil {
			c.Unwatch(wrapper)
		}
	}

	s.logger.Debug("reactive: unwatch", "keys", keys, "observer", o.ID())
	return nil
}

// Trigger notifies the listeners of keys even though their values did not
// change. Unknown keys settle the result with ErrKeyNotFound.
func (s *Store) Trigger(keys ...string) *Pending {
	pending := make([]*Pending, 0, len(keys))
	for _, k := range keys {
		c := s.cell(k)
		if c == nil {
			pending = append(pending, Resolved(nil, &keyError{key: k, err: ErrKeyNotFound}))
			continue
		}
		pending = append(pending, c.Trigger(nil))
	}
	return All(pending...)
}

// Close cancels notifications still waiting in the store's debouncer. It
// only has an effect on stores that created their own debouncer.
func (s *Store) Close() {
	if s.ownsDebouncer {
		s.debouncer.Stop()
	}
}

// bind turns Func values into Bound closures over the store's Scope.
func (s *Store) bind(v any) any {
	var fn Func
	switch f := v.(type) {
	case Func:
		fn = f
	case func(*Scope, ...any) (any, error):
		fn = f
	default:
		return v
	}

	scope := s.bound
	return Bound(func(args ...any) (any, error) {
		return fn(scope, args...)
	})
}
