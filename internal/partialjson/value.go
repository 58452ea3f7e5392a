package partialjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Kind is the type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a decoded JSON value. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  *Object
}

func Null() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns v's boolean and whether v is a bool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Number returns v's number and whether v is a number.
func (v Value) Number() (float64, bool) { return v.n, v.kind == KindNumber }

// Str returns v's string and whether v is a string.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Array returns v's elements and whether v is an array. The slice is shared with v.
func (v Value) Array() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Object returns v's object and whether v is an object. The object is shared with v.
func (v Value) Object() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Interface converts v to the types encoding/json produces when unmarshalling into an `any`: nil, bool, float64, string, []any, and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for _, m := range v.obj.Members() {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// String renders v as compact JSON.
func (v Value) String() string {
	var buf bytes.Buffer
	v.writeJSON(&buf)
	return buf.String()
}

// MarshalJSON encodes v, keeping object members in insertion order. Non-finite numbers (ex: from `1e999`) encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if math.IsInf(v.n, 0) || math.IsNaN(v.n) {
			buf.WriteString("null")
			return nil
		}
		b, err := json.Marshal(v.n)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		return v.obj.writeJSON(buf)
	}
	return nil
}

// Equal reports whether a and b are structurally equal. Object member order is not significant.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for _, m := range a.obj.Members() {
			bv, ok := b.obj.Get(m.Key)
			if !ok || !Equal(m.Value, bv) {
				return false
			}
		}
		return true
	}
	return false
}
