// Package fielddiff computes which top-level fields of a decoded object changed between two streaming snapshots.
package fielddiff

import "github.com/codalotl/streamfill/internal/partialjson"

// Diff returns the members of current whose value is not zero (see IsZero) and is not deep-equal to previous's value for the same key. Members keep current's order. previous may
// be nil.
func Diff(previous, current *partialjson.Object) *partialjson.Object {
	out := partialjson.NewObject()
	for _, m := range current.Members() {
		if IsZero(m.Value) {
			continue
		}
		if prev, ok := previous.Get(m.Key); ok && partialjson.Equal(prev, m.Value) {
			continue
		}
		out.Set(m.Key, m.Value)
	}
	return out
}

// IsZero reports whether v carries no information yet: null, "", an empty array or object, or the number 0. Booleans are never zero.
func IsZero(v partialjson.Value) bool {
	switch v.Kind() {
	case partialjson.KindNull:
		return true
	case partialjson.KindBool:
		return false
	case partialjson.KindNumber:
		n, _ := v.Number()
		return n == 0
	case partialjson.KindString:
		s, _ := v.Str()
		return s == ""
	case partialjson.KindArray:
		arr, _ := v.Array()
		return len(arr) == 0
	case partialjson.KindObject:
		obj, _ := v.Object()
		return obj.Len() == 0
	}
	return false
}
