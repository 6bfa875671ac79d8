package reactive

import (
	"bytes"
	"encoding/json"
	"iter"
	"reflect"
	"slices"
	"sync"
)

// Structured values stored in a cell are converted into observable
// containers so that in-place edits notify the cell's listeners. Go has no
// transparent property interception, so deep reactivity requires going
// through the containers' methods: a map[string]T becomes an *Object and a
// []T becomes an *Array. Mutating the original map or slice after it was
// stored is not observed.

// Wrap converts v into an observable container whose mutating methods call
// onMutate once per call. Maps with string keys become *Object, slices
// (other than []byte) become *Array, and every other value is returned
// unchanged. When deep is true, nested structured values are wrapped too,
// both those present now and those assigned later.
//
// Wrapping is idempotent: an *Object or *Array is returned as is, keeping
// the callback it was first wrapped with.
func Wrap(v any, onMutate func(), deep bool) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *Object, *Array:
		return v
	case map[string]any:
		o := newObject(onMutate, deep, len(x))
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			o.put(k, x[k])
		}
		return o
	case []any:
		a := newArray(onMutate, deep, len(x))
		for _, item := range x {
			a.items = append(a.items, a.wrapChild(item))
		}
		return a
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		o := newObject(onMutate, deep, rv.Len())
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			switch {
			case a.String() < b.String():
				return -1
			case a.String() > b.String():
				return 1
			}
			return 0
		})
		for _, k := range keys {
			o.put(k.String(), rv.MapIndex(k).Interface())
		}
		return o
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		a := newArray(onMutate, deep, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			a.items = append(a.items, a.wrapChild(rv.Index(i).Interface()))
		}
		return a
	}
	return v
}

// IsStructured reports whether Wrap would convert v into a container.
func IsStructured(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case *Object, *Array, map[string]any, []any:
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	case reflect.Slice:
		return rv.Type().Elem().Kind() != reflect.Uint8
	}
	return false
}

// Unwrap converts containers back into plain map[string]any and []any
// values, recursively. Other values are returned unchanged.
func Unwrap(v any) any {
	switch x := v.(type) {
	case *Object:
		return x.Raw()
	case *Array:
		return x.Raw()
	}
	return v
}

// =============================================================================
// Object
// =============================================================================

// Object is an observable string-keyed map that remembers insertion order.
type Object struct {
	mu       sync.RWMutex
	keys     []string
	values   map[string]any
	onMutate func()
	deep     bool
}

func newObject(onMutate func(), deep bool, size int) *Object {
	return &Object{
		keys:     make([]string, 0, size),
		values:   make(map[string]any, size),
		onMutate: onMutate,
		deep:     deep,
	}
}

// put stores a value without notifying. Callers hold the lock or own o.
func (o *Object) put(key string, value any) {
	if o.deep {
		value = Wrap(value, o.onMutate, true)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *Object) notify() {
	if o.onMutate != nil {
		o.onMutate()
	}
}

// Get returns the value stored under key, or nil.
func (o *Object) Get(key string) any {
	v, _ := o.Lookup(key)
	return v
}

// Lookup returns the value stored under key and whether it was present.
func (o *Object) Lookup(key string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Lookup(key)
	return ok
}

// Set assigns value to key and notifies.
func (o *Object) Set(key string, value any) {
	o.mu.Lock()
	o.put(key, value)
	o.mu.Unlock()
	o.notify()
}

// Delete removes key and notifies. Deleting a missing key does nothing and
// returns false.
func (o *Object) Delete(key string) bool {
	o.mu.Lock()
	if _, ok := o.values[key]; !ok {
		o.mu.Unlock()
		return false
	}
	delete(o.values, key)
	if i := slices.Index(o.keys, key); i >= 0 {
		o.keys = slices.Delete(o.keys, i, i+1)
	}
	o.mu.Unlock()
	o.notify()
	return true
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.keys)
}

// Len returns the number of keys.
func (o *Object) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.keys)
}

// All iterates over the entries in insertion order. The iteration works on
// a snapshot, so the object may be mutated from the loop body.
func (o *Object) All() iter.Seq2[string, any] {
	o.mu.RLock()
	keys := slices.Clone(o.keys)
	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = o.values[k]
	}
	o.mu.RUnlock()

	return func(yield func(string, any) bool) {
		for i, k := range keys {
			if !yield(k, values[i]) {
				return
			}
		}
	}
}

// Raw returns a plain, deep copy of the object.
func (o *Object) Raw() map[string]any {
	out := make(map[string]any)
	for k, v := range o.All() {
		out[k] = Unwrap(v)
	}
	return out
}

// MarshalJSON encodes the object with its keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for k, v := range o.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// =============================================================================
// Array
// =============================================================================

// Array is an observable slice. Every mutating method notifies exactly once
// per call; reading methods never notify.
type Array struct {
	mu       sync.RWMutex
	items    []any
	onMutate func()
	deep     bool
}

func newArray(onMutate func(), deep bool, size int) *Array {
	return &Array{
		items:    make([]any, 0, size),
		onMutate: onMutate,
		deep:     deep,
	}
}

func (a *Array) wrapChild(v any) any {
	if a.deep {
		return Wrap(v, a.onMutate, true)
	}
	return v
}

func (a *Array) wrapAll(vs []any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = a.wrapChild(v)
	}
	return out
}

func (a *Array) notify() {
	if a.onMutate != nil {
		a.onMutate()
	}
}

// Len returns the number of items.
func (a *Array) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// At returns the item at index i, or nil when i is out of range.
func (a *Array) At(i int) any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Set assigns the item at index i and notifies. Assigning past the end
// grows the array, filling the gap with nil. Negative indexes are ignored.
func (a *Array) Set(i int, value any) {
	if i < 0 {
		return
	}
	a.mu.Lock()
	for len(a.items) <= i {
		a.items = append(a.items, nil)
	}
	a.items[i] = a.wrapChild(value)
	a.mu.Unlock()
	a.notify()
}

// SetLen truncates or grows the array to n items and notifies.
func (a *Array) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	a.mu.Lock()
	if n <= len(a.items) {
		clear(a.items[n:])
		a.items = a.items[:n]
	} else {
		a.items = append(a.items, make([]any, n-len(a.items))...)
	}
	a.mu.Unlock()
	a.notify()
}

// Push appends items and returns the new length.
func (a *Array) Push(items ...any) int {
	a.mu.Lock()
	a.items = append(a.items, a.wrapAll(items)...)
	n := len(a.items)
	a.mu.Unlock()
	a.notify()
	return n
}

// Pop removes and returns the last item. It returns nil for an empty array.
func (a *Array) Pop() any {
	a.mu.Lock()
	var last any
	if n := len(a.items); n > 0 {
		last = a.items[n-1]
		a.items[n-1] = nil
		a.items = a.items[:n-1]
	}
	a.mu.Unlock()
	a.notify()
	return last
}

// Shift removes and returns the first item. It returns nil for an empty
// array.
func (a *Array) Shift() any {
	a.mu.Lock()
	var first any
	if len(a.items) > 0 {
		first = a.items[0]
		a.items = slices.Delete(a.items, 0, 1)
	}
	a.mu.Unlock()
	a.notify()
	return first
}

// Unshift prepends items and returns the new length.
func (a *Array) Unshift(items ...any) int {
	a.mu.Lock()
	a.items = slices.Insert(a.items, 0, a.wrapAll(items)...)
	n := len(a.items)
	a.mu.Unlock()
	a.notify()
	return n
}

// Splice removes deleteCount items starting at start, inserts items in
// their place, and returns the removed items. A negative start counts from
// the end. Out-of-range arguments are clamped.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	a.mu.Lock()
	n := len(a.items)
	start = clampIndex(start, n)
	if deleteCount < 0 {
		deleteCount = 0
	}
	if deleteCount > n-start {
		deleteCount = n - start
	}

	removed := slices.Clone(a.items[start : start+deleteCount])
	a.items = slices.Replace(a.items, start, start+deleteCount, a.wrapAll(items)...)
	a.mu.Unlock()
	a.notify()
	return removed
}

// Slice returns a copy of the items in [start, end). Negative indexes count
// from the end and out-of-range indexes are clamped.
func (a *Array) Slice(start, end int) []any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := len(a.items)
	start, end = clampIndex(start, n), clampIndex(end, n)
	if start >= end {
		return []any{}
	}
	return slices.Clone(a.items[start:end])
}

// Values returns a copy of all items.
func (a *Array) Values() []any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.items)
}

// All iterates over a snapshot of the items.
func (a *Array) All() iter.Seq2[int, any] {
	items := a.Values()
	return func(yield func(int, any) bool) {
		for i, v := range items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Map returns fn applied to every item.
func (a *Array) Map(fn func(v any, i int) any) []any {
	items := a.Values()
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = fn(v, i)
	}
	return out
}

// Filter returns the items for which keep returns true.
func (a *Array) Filter(keep func(v any, i int) bool) []any {
	out := []any{}
	for i, v := range a.Values() {
		if keep(v, i) {
			out = append(out, v)
		}
	}
	return out
}

// Index returns the index of the first item matching pred, or -1.
func (a *Array) Index(pred func(v any) bool) int {
	for i, v := range a.Values() {
		if pred(v) {
			return i
		}
	}
	return -1
}

// Raw returns a plain, deep copy of the array.
func (a *Array) Raw() []any {
	items := a.Values()
	for i, v := range items {
		items[i] = Unwrap(v)
	}
	return items
}

// MarshalJSON encodes the array as a JSON list.
func (a *Array) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Values())
}

// clampIndex resolves a possibly negative index against length n.
func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
