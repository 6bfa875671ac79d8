package reactive

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestStoreBasics(t *testing.T) {
	s := newTestStore(t, map[string]any{"b": 2, "a": 1})

	if s.Get("a") != 1 || s.Get("b") != 2 {
		t.Fatalf("unexpected values: a=%v b=%v", s.Get("a"), s.Get("b"))
	}
	if s.Get("missing") != nil {
		t.Error("expected nil for a missing key")
	}
	if _, ok := s.Lookup("missing"); ok {
		t.Error("expected Lookup to report a missing key")
	}

	s.Set("c", 3)
	if !s.Has("c") {
		t.Error("expected c to be present after Set")
	}
	if got := s.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected keys [a b c], got %v", got)
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 keys, got %d", s.Len())
	}

	if !s.Del("a") {
		t.Error("expected Del to report a was present")
	}
	if s.Del("a") {
		t.Error("expected second Del to report false")
	}
	if s.Has("a") {
		t.Error("expected a to be gone")
	}

	var keys []string
	for k := range s.Entries() {
		keys = append(keys, k)
	}
	if !reflect.DeepEqual(keys, []string{"b", "c"}) {
		t.Errorf("expected entries [b c], got %v", keys)
	}
}

func TestStoreSetNewKeyDoesNotNotify(t *testing.T) {
	s := newTestStore(t, nil)
	p := s.Set("fresh", 1)
	if !p.Settled() {
		t.Error("expected creating a key to settle immediately")
	}
}

func TestStoreWatchUnknownKey(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 1})
	var rec recorder

	err := s.Watch([]string{"a", "nope"}, rec.observer())
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := s.Set("a", 2).Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 0 {
		t.Errorf("a failed Watch must register nothing, got %d calls", rec.count())
	}
}

func TestStoreWatchPassesAllValuesInOrder(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 1, "b": 2})
	var rec recorder

	if err := s.Watch([]string{"b", "a"}, rec.observer()); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("a", 10).Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}

	if rec.count() != 1 {
		t.Fatalf("expected 1 call, got %d", rec.count())
	}
	if got := rec.values(); !reflect.DeepEqual(got, []any{2, 10}) {
		t.Errorf("expected [2 10], got %v", got)
	}
}

func TestStoreWatchDebouncesGroup(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 1, "b": 2})
	var rec recorder
	if err := s.Watch([]string{"a", "b"}, rec.observer()); err != nil {
		t.Fatal(err)
	}

	if err := s.Update(map[string]any{"a": 10, "b": 20}).Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}
	settle()

	if rec.count() != 1 {
		t.Errorf("expected 1 call for the update, got %d", rec.count())
	}
	if got := rec.values(); !reflect.DeepEqual(got, []any{10, 20}) {
		t.Errorf("expected [10 20], got %v", got)
	}
}

func TestStoreBurstOnOneKey(t *testing.T) {
	s := newTestStore(t, map[string]any{"n": 0})
	var rec recorder
	if err := s.Watch([]string{"n"}, rec.observer()); err != nil {
		t.Fatal(err)
	}

	s.Set("n", 1)
	s.Set("n", 2)
	if err := s.Set("n", 3).Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}
	settle()

	if rec.count() != 1 {
		t.Errorf("expected 1 call, got %d", rec.count())
	}
	if got := rec.values(); !reflect.DeepEqual(got, []any{3}) {
		t.Errorf("expected [3], got %v", got)
	}
}

func TestStoreUnwatch(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 1})
	var rec recorder
	o := rec.observer()

	if err := s.Watch([]string{"a"}, o); err != nil {
		t.Fatal(err)
	}
	if err := s.Unwatch([]string{"a"}, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Set("a", 2).Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}
	settle()

	if rec.count() != 0 {
		t.Errorf("expected no calls after Unwatch, got %d", rec.count())
	}
	if err := s.Unwatch([]string{"a"}, o); !errors.Is(err, ErrNotObserved) {
		t.Errorf("expected ErrNotObserved, got %v", err)
	}
}

func TestStoreDeepMutation(t *testing.T) {
	s := newTestStore(t, nil)
	s.Set("x", map[string]any{"a": 1, "b": 2})

	var rec recorder
	if err := s.Watch([]string{"x"}, rec.observer()); err != nil {
		t.Fatal(err)
	}

	s.Get("x").(*Object).Set("b", 3)

	eventually(t, func() bool { return rec.count() == 1 }, "deep mutation notification")
	settle()
	if rec.count() != 1 {
		t.Errorf("expected exactly 1 call, got %d", rec.count())
	}
	if got := s.Get("x").(*Object).Get("b"); got != 3 {
		t.Errorf("expected b=3, got %v", got)
	}
}

func TestStoreArrayPushNotifiesOnce(t *testing.T) {
	s := newTestStore(t, map[string]any{"list": []any{1, 2, 3}})
	var rec recorder
	if err := s.Watch([]string{"list"}, rec.observer()); err != nil {
		t.Fatal(err)
	}

	s.Get("list").(*Array).Push(4)

	eventually(t, func() bool { return rec.count() == 1 }, "push notification")
	settle()
	if rec.count() != 1 {
		t.Errorf("expected exactly 1 call, got %d", rec.count())
	}
}

func TestStoreTrigger(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 1})
	var rec recorder
	if err := s.Watch([]string{"a"}, rec.observer()); err != nil {
		t.Fatal(err)
	}

	if err := s.Trigger("a").Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 1 {
		t.Errorf("expected Trigger to notify without a change, got %d", rec.count())
	}

	if err := s.Trigger("missing").Wait(testContext(t)); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestStoreObserverError(t *testing.T) {
	s := newTestStore(t, map[string]any{"a": 1})
	errBoom := errors.New("boom")
	if err := s.Watch([]string{"a"}, NewObserver(func([]any) error { return errBoom })); err != nil {
		t.Fatal(err)
	}

	err := s.Set("a", 2).Wait(testContext(t))
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if s.Get("a") != 2 {
		t.Errorf("expected value to be stored despite the failure, got %v", s.Get("a"))
	}
}

func TestStoreParentChain(t *testing.T) {
	parent := newTestStore(t, map[string]any{"theme": "dark", "user": "ada"})
	child := parent.Child(map[string]any{"user": "grace"})

	if child.Parent() != parent {
		t.Fatal("expected child to reference its parent")
	}
	if child.Get("theme") != "dark" {
		t.Errorf("expected inherited theme, got %v", child.Get("theme"))
	}
	if child.Get("user") != "grace" {
		t.Errorf("expected local key to shadow the parent, got %v", child.Get("user"))
	}
	if child.Has("theme") {
		t.Error("Has must not consult the parent")
	}

	child.Set("theme", "light")
	if parent.Get("theme") != "dark" {
		t.Errorf("writes must not go through to the parent, got %v", parent.Get("theme"))
	}
	if child.Get("theme") != "light" {
		t.Errorf("expected child override, got %v", child.Get("theme"))
	}

	if child.Del("missing-in-child") {
		t.Error("Del must not consult the parent")
	}
}

func TestStoreChildWatchesInheritedKey(t *testing.T) {
	parent := newTestStore(t, map[string]any{"count": 1})
	child := parent.Child(nil)

	var rec recorder
	if err := child.Watch([]string{"count"}, rec.observer()); err != nil {
		t.Fatalf("expected inherited key to be watchable, got %v", err)
	}
	if err := parent.Set("count", 2).Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if got := rec.values(); !reflect.DeepEqual(got, []any{2}) {
		t.Errorf("expected [2], got %v", got)
	}
}

func TestStoreBoundFunc(t *testing.T) {
	s := newTestStore(t, map[string]any{
		"count": 0,
		"inc": Func(func(sc *Scope, args ...any) (any, error) {
			n, _ := ValueOf[int](sc, "count")
			step := 1
			if len(args) > 0 {
				step = args[0].(int)
			}
			sc.Set("count", n+step)
			return n + step, nil
		}),
	})

	inc, ok := s.Get("inc").(Bound)
	if !ok {
		t.Fatalf("expected stored Func to be bound, got %T", s.Get("inc"))
	}
	if v, err := inc(); err != nil || v != 1 {
		t.Fatalf("expected (1, nil), got (%v, %v)", v, err)
	}
	if v, err := s.Scope().Call("inc", 5); err != nil || v != 6 {
		t.Fatalf("expected (6, nil), got (%v, %v)", v, err)
	}
	if s.Get("count") != 6 {
		t.Errorf("expected count=6, got %v", s.Get("count"))
	}

	if _, err := s.Scope().Call("count"); !errors.Is(err, ErrNotCallable) {
		t.Errorf("expected ErrNotCallable, got %v", err)
	}
	if _, err := s.Scope().Call("nope"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	snap := s.Snapshot()
	if _, ok := snap["inc"]; ok {
		t.Error("expected Snapshot to omit functions")
	}
	if snap["count"] != 6 {
		t.Errorf("expected snapshot count=6, got %v", snap["count"])
	}
}

func TestStoreAdoptsCell(t *testing.T) {
	c := NewCell(5)
	s := newTestStore(t, map[string]any{"c": c})

	if s.Get("c") != 5 {
		t.Fatalf("expected adopted cell value 5, got %v", s.Get("c"))
	}
	s.Set("c", 6)
	if c.Get() != 6 {
		t.Errorf("expected the adopted cell to be updated, got %v", c.Get())
	}
}

func TestStoreSnapshotUnwraps(t *testing.T) {
	s := newTestStore(t, map[string]any{"obj": map[string]any{"list": []any{1}}})
	want := map[string]any{"obj": map[string]any{"list": []any{1}}}
	if got := s.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestStoreClose(t *testing.T) {
	s := New(map[string]any{"a": 1}, WithDebounce(time.Hour))
	var rec recorder
	if err := s.Watch([]string{"a"}, rec.observer()); err != nil {
		t.Fatal(err)
	}

	p := s.Set("a", 2)
	s.Close()

	if err := p.Wait(testContext(t)); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
	if rec.count() != 0 {
		t.Errorf("expected no calls, got %d", rec.count())
	}
}
