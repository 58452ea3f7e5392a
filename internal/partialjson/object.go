package partialjson

import (
	"bytes"
	"encoding/json"
)

// Object is a JSON object that remembers the order in which keys were first set. A nil *Object behaves as an empty object for reads.
type Object struct {
	keys []string
	vals map[string]Value
}

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

func NewObject() *Object {
	return &Object{vals: map[string]Value{}}
}

// Get returns the value for key and whether key is present.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Set sets key to v. An existing key keeps its original position.
func (o *Object) Set(key string, v Value) {
	if o.vals == nil {
		o.vals = map[string]Value{}
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Delete removes key, reporting whether it was present.
func (o *Object) Delete(key string) bool {
	if o == nil {
		return false
	}
	if _, ok := o.vals[key]; !ok {
		return false
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Members returns the key/value pairs in insertion order.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	out := make([]Member, len(o.keys))
	for i, k := range o.keys {
		out[i] = Member{Key: k, Value: o.vals[k]}
	}
	return out
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	out := NewObject()
	for _, m := range o.Members() {
		out.Set(m.Key, cloneValue(m.Value))
	}
	return out
}

func cloneValue(v Value) Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, e := range v.arr {
			arr[i] = cloneValue(e)
		}
		return Array(arr...)
	case KindObject:
		return ObjectValue(v.obj.Clone())
	default:
		return v
	}
}

func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Object) String() string {
	return ObjectValue(o).String()
}

func (o *Object) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, m := range o.Members() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.Key)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if err := m.Value.writeJSON(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
