package reactive

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// TraceFunc is an evaluation whose reads are recorded by Trace.
type TraceFunc func(s *Scope) (any, error)

// dependencySet collects keys in first-read order.
type dependencySet struct {
	seen map[string]struct{}
	keys []string
}

func (d *dependencySet) add(key string) {
	if _, ok := d.seen[key]; ok {
		return
	}
	d.seen[key] = struct{}{}
	d.keys = append(d.keys, key)
}

// record adds key to the running trace's dependencies, if any.
func (s *Store) record(key string) {
	s.recMu.Lock()
	if s.recording != nil {
		s.recording.add(key)
	}
	s.recMu.Unlock()
}

// Trace runs fn and returns its result together with the keys it read, in
// the order they were first read. Reads through the Scope passed to fn and
// direct calls to Store.Get or Store.Lookup made while fn runs are both
// recorded.
//
// Traces on one store are serialized: a second Trace waits until the first
// has finished, so their dependency sets never mix. Waiting honours ctx.
// Calling Trace on the same store from inside fn deadlocks.
//
// An error or panic from fn is returned as the error; the store is left
// ready for the next Trace either way.
func (s *Store) Trace(ctx context.Context, fn TraceFunc) (any, []string, error) {
	if err := s.traceLock.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	defer s.traceLock.Release(1)

	ctx, end := s.startSpan(ctx, "reactive.trace")
	start := time.Now()

	deps := &dependencySet{seen: make(map[string]struct{})}
	s.recMu.Lock()
	s.recording = deps
	s.recMu.Unlock()

	scope := &Scope{store: s, ctx: ctx, tracking: true}
	result, err := func() (any, error) {
		defer func() {
			s.recMu.Lock()
			s.recording = nil
			s.recMu.Unlock()
		}()
		return run(func() (any, error) { return fn(scope) })
	}()

	s.metrics.traced(time.Since(start))
	end(deps.keys, err)

	if err != nil {
		return nil, deps.keys, err
	}
	return result, deps.keys, nil
}

// Computed stores the result of fn under key and keeps it up to date. fn is
// traced once to find its dependencies; whenever one of them changes, fn is
// run again (untracked) and its result stored under key.
//
// The dependency set is fixed by the first evaluation. Keys that fn only
// reads on later runs, for example behind a condition that was false at
// first, do not cause recomputation.
//
// Computed waits for the initial Set to settle. It registers a watch that
// Computed itself never removes; ComputedObserver returns what Unwatch needs.
func (s *Store) Computed(ctx context.Context, key string, fn TraceFunc) error {
	_, _, err := s.ComputedObserver(ctx, key, fn)
	return err
}

// ComputedObserver is Computed, also returning the dependency keys and the
// Observer registered for them so that callers can Unwatch.
func (s *Store) ComputedObserver(ctx context.Context, key string, fn TraceFunc) ([]string, *Observer, error) {
	ctx, end := s.startSpan(ctx, "reactive.computed", attribute.String("reactive.key", key))

	result, deps, err := s.Trace(ctx, fn)
	if err != nil {
		end(nil, err)
		return nil, nil, fmt.Errorf("reactive: computed %q: %w", key, err)
	}

	if err := s.Set(key, result).Wait(ctx); err != nil {
		end(deps, err)
		return nil, nil, fmt.Errorf("reactive: computed %q: %w", key, err)
	}

	o := NewObserver(func([]any) error {
		v, err := run(func() (any, error) { return fn(s.scope) })
		s.metrics.recompute(key, err)
		if err != nil {
			s.logger.Warn("reactive: computed re-run failed", "key", key, "error", err)
			return err
		}
		p := s.Set(key, v)
		<-p.Done()
		return p.Err()
	})

	if len(deps) > 0 {
		if err := s.Watch(deps, o); err != nil {
			end(deps, err)
			return nil, nil, fmt.Errorf("reactive: computed %q: %w", key, err)
		}
	}

	s.logger.Debug("reactive: computed", "key", key, "dependencies", deps)
	end(deps, nil)
	return deps, o, nil
}
