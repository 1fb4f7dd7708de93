package store

import "reflect"

// Same reports whether a and b are the same state value.
//
// Maps, pointers, channels and funcs are compared by reference, slices by
// backing array and length, and other comparable values with ==. Two values
// of different dynamic types are never the same. Values that cannot be
// compared (a struct holding a slice, say) are never the same, so a reducer
// returning such a value always counts as a change.
//
// Same is the identity check the combined reducer uses to decide whether a
// slice changed, and subscribers can use it to skip no-op dispatches.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}
