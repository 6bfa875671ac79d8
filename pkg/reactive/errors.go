package reactive

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned when an operation needs a cell for a key that is
// neither present in the store nor resolvable through its parent chain.
//
// Watch returns it because there is no cell to attach a listener to.
var ErrKeyNotFound = errors.New("reactive: key not found")

// ErrStopped settles pending debounced calls that were canceled by
// Debouncer.Stop before their timer fired.
var ErrStopped = errors.New("reactive: debouncer stopped")

// ErrNotObserved is returned by Unwatch when the observer was never
// registered with the store (or was already removed).
var ErrNotObserved = errors.New("reactive: observer not registered")

// ErrNotCallable is returned by Scope.Call when the key does not hold a
// stored function.
var ErrNotCallable = errors.New("reactive: value is not a function")

// keyError attaches the offending key to a sentinel error.
type keyError struct {
	key string
	err error
}

func (e *keyError) Error() string {
	return fmt.Sprintf("%s: %q", e.err, e.key)
}

func (e *keyError) Unwrap() error {
	return e.err
}

// ListenerError wraps a failure returned by a change listener together with
// the key whose change triggered it.
type ListenerError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	if e.Key == "" {
		return "reactive: listener failed: " + e.Err.Error()
	}
	return fmt.Sprintf("reactive: listener for %q failed: %s", e.Key, e.Err)
}

// Unwrap returns the listener's error for errors.Is/As support.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// PanicError is produced when a debounced callback, listener or traced
// function panics. The panic value is preserved.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("reactive: panic: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// recoverError converts a recovered panic value into an error.
func recoverError(r any) error {
	if r == nil {
		return nil
	}
	return &PanicError{Value: r}
}
