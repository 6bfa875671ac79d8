package reactive

import "reflect"

// same reports whether a and b are the same value in the reference sense:
// comparable values compare with ==, maps and slices compare by identity of
// their backing storage, and functions are never the same.
//
// Two distinct maps with equal contents are not the same, so setting a fresh
// map always notifies.
func same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return equalComparable(a, b)
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.UnsafePointer() == vb.UnsafePointer() &&
			va.Len() == vb.Len() && va.Cap() == vb.Cap()
	default:
		// Funcs and structs holding non-comparable fields.
		return false
	}
}

// equalComparable compares with ==. A comparable static type can still hold
// an interface field whose dynamic value is not comparable; that comparison
// panics and is treated as "not the same".
func equalComparable(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
