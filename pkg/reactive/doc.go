// Package reactive provides a dependency-tracking key/value store used to
// drive incremental re-computation.
//
// Values live in cells under string keys. Reading values inside Trace
// records which keys were read; Watch re-runs a callback when any of them
// changes; Computed combines the two to keep a derived key up to date.
//
// # Core Types
//
// Store maps keys to cells:
//
//	store := reactive.New(map[string]any{"a": 1, "b": 2})
//	store.Get("a")              // 1
//	store.Set("a", 10)          // notifies watchers after the debounce delay
//
// Trace records dependencies:
//
//	sum, deps, err := store.Trace(ctx, func(s *reactive.Scope) (any, error) {
//	    a, _ := reactive.ValueOf[int](s, "a")
//	    b, _ := reactive.ValueOf[int](s, "b")
//	    return a + b, nil
//	})
//	// sum == 3, deps == []string{"a", "b"}
//
// Computed keeps a key derived from others:
//
//	store.Computed(ctx, "sum", func(s *reactive.Scope) (any, error) { ... })
//
// # Debouncing
//
// Every notification goes through a Debouncer. A burst of changes to one
// cell, or to several keys of one Watch group, produces a single listener
// call carrying the latest values. Set returns a *Pending that settles once
// that call has run.
//
// # Structured Values
//
// Maps with string keys and slices are stored as *Object and *Array. Their
// mutating methods notify the owning cell, so
//
//	store.Get("user").(*reactive.Object).Set("name", "Ada")
//
// fires the listeners of "user" just like replacing the whole value.
//
// # Scopes
//
// A store created with Child (or WithParent) resolves missing keys through
// its parent. Writes always land in the child, shadowing the parent's key.
//
// # Thread Safety
//
// Stores, cells and containers are safe for concurrent use. Listeners run
// on timer goroutines; listeners of one notification run concurrently.
package reactive
