package reactive

// Listener is a cell change callback with a stable identity. The same
// *Listener must be passed to Unwatch to remove it.
type Listener struct {
	id uint64
	fn func(curr, prev any) error
}

// NewListener creates a listener from fn. fn receives the cell's current
// value and the value it replaced.
func NewListener(fn func(curr, prev any) error) *Listener {
	return &Listener{id: nextID(), fn: fn}
}

// ID returns the listener's unique identifier.
func (l *Listener) ID() uint64 {
	return l.id
}

// Observer is a store-level callback for a group of keys. It receives the
// current values of every watched key, in the order they were given to
// Store.Watch.
type Observer struct {
	id uint64
	fn func(values []any) error
}

// NewObserver creates an observer from fn.
func NewObserver(fn func(values []any) error) *Observer {
	return &Observer{id: nextID(), fn: fn}
}

// ID returns the observer's unique identifier.
func (o *Observer) ID() uint64 {
	return o.id
}
