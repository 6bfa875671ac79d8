package reactive

import "context"

// Reader is implemented by anything values can be read from by key: Store,
// Scope and Object.
type Reader interface {
	Get(key string) any
	Lookup(key string) (any, bool)
}

// Func is a function value that can be stored in a store. When stored it is
// bound to a Scope of that store, so it can read and write sibling keys.
// Its reads are recorded by a running Trace.
type Func func(s *Scope, args ...any) (any, error)

// Bound is what a store holds for a stored Func.
type Bound func(args ...any) (any, error)

// Scope is the accessor surface of a store. Reads go through Store.Get, so
// a tracking Scope (the one Trace hands to its callback) records every key
// it reads; writes go through Store.Set and are debounced as usual.
type Scope struct {
	store    *Store
	ctx      context.Context
	tracking bool
}

// Store returns the store the scope reads from.
func (s *Scope) Store() *Store {
	return s.store
}

// Context returns the context of the evaluation the scope belongs to.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Get returns the value for key, or nil.
func (s *Scope) Get(key string) any {
	v, _ := s.Lookup(key)
	return v
}

// Lookup returns the value for key and whether it was found. A tracking
// scope records key as a dependency.
func (s *Scope) Lookup(key string) (any, bool) {
	if s.tracking {
		return s.store.Lookup(key)
	}
	return s.store.peek(key)
}

// Set stores v under key.
func (s *Scope) Set(key string, v any) *Pending {
	return s.store.Set(key, v)
}

// Has reports whether key is present in the scope's own store.
func (s *Scope) Has(key string) bool {
	return s.store.Has(key)
}

// Del removes key from the scope's own store.
func (s *Scope) Del(key string) bool {
	return s.store.Del(key)
}

// Call invokes the Bound function stored under key.
func (s *Scope) Call(key string, args ...any) (any, error) {
	v, ok := s.Lookup(key)
	if !ok {
		return nil, &keyError{key: key, err: ErrKeyNotFound}
	}
	fn, ok := v.(Bound)
	if !ok {
		return nil, &keyError{key: key, err: ErrNotCallable}
	}
	return fn(args...)
}

// ValueOf reads key from r and converts it to T. The boolean is false when
// the key is missing or holds a value of another type.
func ValueOf[T any](r Reader, key string) (T, bool) {
	var zero T
	v, ok := r.Lookup(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
