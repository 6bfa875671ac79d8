package reactive

import (
	"context"
	"sync"
	"testing"
	"time"
)

const testDebounce = 5 * time.Millisecond

// newTestStore returns a store with its own debouncer and a short delay.
func newTestStore(t *testing.T, initial map[string]any, opts ...Option) *Store {
	t.Helper()
	s := New(initial, append([]Option{WithDebounce(testDebounce)}, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// eventually polls cond until it holds or two seconds pass.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

// settle sleeps for several debounce windows so that any notification that
// was going to happen has happened.
func settle() {
	time.Sleep(10 * testDebounce)
}

// recorder counts observer calls and remembers the last values.
type recorder struct {
	mu    sync.Mutex
	calls int
	last  []any
}

func (r *recorder) observer() *Observer {
	return NewObserver(func(values []any) error {
		r.mu.Lock()
		r.calls++
		r.last = values
		r.mu.Unlock()
		return nil
	})
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *recorder) values() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// cellRecorder counts cell listener calls.
type cellRecorder struct {
	mu         sync.Mutex
	calls      int
	curr, prev any
}

func (r *cellRecorder) listener() *Listener {
	return NewListener(func(curr, prev any) error {
		r.mu.Lock()
		r.calls++
		r.curr, r.prev = curr, prev
		r.mu.Unlock()
		return nil
	})
}

func (r *cellRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *cellRecorder) args() (any, any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.curr, r.prev
}
