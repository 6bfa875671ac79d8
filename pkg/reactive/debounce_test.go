package reactive

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebounceCoalescesBurst(t *testing.T) {
	d := NewDebouncer()
	var calls atomic.Int32

	call := func(v int) *Pending {
		return d.Debounce("k", 20*time.Millisecond, func() (any, error) {
			calls.Add(1)
			return v, nil
		})
	}

	p1 := call(1)
	p2 := call(2)
	p3 := call(3)

	if p1 != p2 || p2 != p3 {
		t.Fatal("expected coalesced calls to share one Pending")
	}
	if err := p3.Wait(testContext(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
	if p3.Value() != 3 {
		t.Errorf("expected the last callback's result 3, got %v", p3.Value())
	}
	if d.Len() != 0 {
		t.Errorf("expected entry to be cleared, got %d pending", d.Len())
	}
}

func TestDebounceDistinctKeys(t *testing.T) {
	d := NewDebouncer()
	var calls atomic.Int32
	fn := func() (any, error) {
		calls.Add(1)
		return nil, nil
	}

	p1 := d.Debounce("a", time.Millisecond, fn)
	p2 := d.Debounce("b", time.Millisecond, fn)
	if err := All(p1, p2).Wait(testContext(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls for distinct keys, got %d", calls.Load())
	}
}

func TestDebounceAfterFireStartsNewCall(t *testing.T) {
	d := NewDebouncer()
	fn := func() (any, error) { return nil, nil }

	first := d.Debounce("k", time.Millisecond, fn)
	if err := first.Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}

	second := d.Debounce("k", time.Millisecond, fn)
	if second == first {
		t.Error("expected a new Pending after the previous call fired")
	}
	if err := second.Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}
}

func TestDebounceError(t *testing.T) {
	d := NewDebouncer()
	errBoom := errors.New("boom")

	p := d.Debounce("k", time.Millisecond, func() (any, error) {
		return nil, errBoom
	})
	if err := p.Wait(testContext(t)); !errors.Is(err, errBoom) {
		t.Errorf("expected errBoom, got %v", err)
	}
}

func TestDebouncePanic(t *testing.T) {
	d := NewDebouncer()

	p := d.Debounce("k", time.Millisecond, func() (any, error) {
		panic("kaboom")
	})

	err := p.Wait(testContext(t))
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %v", err)
	}
	if pe.Value != "kaboom" {
		t.Errorf("expected panic value kaboom, got %v", pe.Value)
	}
}

func TestDebounceStop(t *testing.T) {
	d := NewDebouncer()
	var calls atomic.Int32

	p := d.Debounce("k", time.Hour, func() (any, error) {
		calls.Add(1)
		return nil, nil
	})
	d.Stop()

	if err := p.Wait(testContext(t)); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected stopped callback not to run, got %d calls", calls.Load())
	}
	if d.Len() != 0 {
		t.Errorf("expected no pending calls, got %d", d.Len())
	}
}

func TestDebounceFlush(t *testing.T) {
	d := NewDebouncer()

	p := d.Debounce("k", time.Hour, func() (any, error) {
		return "done", nil
	})
	d.Flush()

	if !p.Settled() {
		t.Fatal("expected Flush to run the call synchronously")
	}
	if p.Value() != "done" {
		t.Errorf("expected done, got %v", p.Value())
	}
}

func TestPendingWaitContext(t *testing.T) {
	p := newPending()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if p.Err() != nil || p.Value() != nil {
		t.Error("expected unsettled Pending to report nil value and error")
	}
}

func TestAllFirstError(t *testing.T) {
	errFirst := errors.New("first")
	errSecond := errors.New("second")

	p := All(Resolved(1, nil), Resolved(nil, errFirst), Resolved(nil, errSecond))
	if err := p.Wait(testContext(t)); !errors.Is(err, errFirst) {
		t.Errorf("expected first error, got %v", err)
	}

	if err := All().Wait(testContext(t)); err != nil {
		t.Errorf("expected empty All to succeed, got %v", err)
	}
}
