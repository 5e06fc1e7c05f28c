// Package value defines the decoded form of a JSON sub-tree: a tagged union of
// null, integer, string, ordered object and array.
package value

import (
	"iter"
	"slices"
	"strconv"

	"github.com/tidwall/gjson"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindString
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindInteger:
		return "Integer"
	case KindString:
		return "String"
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsContainer reports whether k is Object or Array.
func (k Kind) IsContainer() bool {
	return k == KindObject || k == KindArray
}

// Value is an immutable-by-convention JSON value. The zero Value is Null.
type Value struct {
	kind Kind
	num  int64
	str  string
	obj  *Object
	arr  []Value
}

func Null() Value { return Value{} }

func FromInt(n int64) Value { return Value{kind: KindInteger, num: n} }

func FromString(s string) Value { return Value{kind: KindString, str: s} }

// FromObject wraps o; a nil o is treated as an empty object.
func FromObject(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

// FromArray wraps items; a nil slice is an empty array.
func FromArray(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsInt() (int64, bool) { return v.num, v.kind == KindInteger }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsObject() (*Object, bool) { return v.obj, v.kind == KindObject }

func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Len returns the number of members or elements of a container, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return v.obj.Len()
	case KindArray:
		return len(v.arr)
	}
	return 0
}

// Equal compares a and b structurally. Object member order is significant.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindInteger:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for i, m := range a.obj.members {
			n := b.obj.members[i]
			if m.Key != n.Key || !Equal(m.Value, n.Value) {
				return false
			}
		}
		return true
	case KindArray:
		return slices.EqualFunc(a.arr, b.arr, Equal)
	}
	return false
}

// Any converts v into the shapes produced by encoding/json: nil, int64,
// string, map[string]any and []any.
func (v Value) Any() any {
	switch v.kind {
	case KindInteger:
		return v.num
	case KindString:
		return v.str
	case KindObject:
		m := make(map[string]any, v.obj.Len())
		for _, member := range v.obj.members {
			m[member.Key] = member.Value.Any()
		}
		return m
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Any()
		}
		return out
	}
	return nil
}

// AppendJSON appends the compact JSON rendering of v to dst.
func (v Value) AppendJSON(dst []byte) []byte {
	switch v.kind {
	case KindInteger:
		return strconv.AppendInt(dst, v.num, 10)
	case KindString:
		return gjson.AppendJSONString(dst, v.str)
	case KindObject:
		dst = append(dst, '{')
		for i, m := range v.obj.members {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = gjson.AppendJSONString(dst, m.Key)
			dst = append(dst, ':')
			dst = m.Value.AppendJSON(dst)
		}
		return append(dst, '}')
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.arr {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = item.AppendJSON(dst)
		}
		return append(dst, ']')
	}
	return append(dst, "null"...)
}

func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil), nil
}

func (v Value) String() string {
	return string(v.AppendJSON(nil))
}

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is an insertion-ordered string map. Setting an existing key keeps
// its original position and replaces the value.
type Object struct {
	members []Member
	index   map[string]int
}

func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

func (o *Object) Set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.members[i].Value = v
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: v})
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.members[i].Value, true
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	for _, m := range o.members {
		keys = append(keys, m.Key)
	}
	return keys
}

// All iterates members in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if o == nil {
			return
		}
		for _, m := range o.members {
			if !yield(m.Key, m.Value) {
				return
			}
		}
	}
}
