package value

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jacoelho/jsonslice/internal/jsonerr"
)

// ParseExact decodes raw with a standards-compliant parser. Booleans and
// non-integer numbers are outside the supported value model and are reported
// as malformed.
func ParseExact(raw []byte) (Value, error) {
	if !gjson.ValidBytes(raw) {
		return Value{}, fmt.Errorf("%w: not valid JSON", jsonerr.ErrMalformed)
	}
	return fromResult(gjson.ParseBytes(raw))
}

func fromResult(r gjson.Result) (Value, error) {
	switch r.Type {
	case gjson.Null:
		return Null(), nil
	case gjson.String:
		return FromString(r.Str), nil
	case gjson.Number:
		raw := strings.TrimSpace(r.Raw)
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: unsupported number %s", jsonerr.ErrMalformed, raw)
		}
		return FromInt(n), nil
	case gjson.True, gjson.False:
		return Value{}, fmt.Errorf("%w: unsupported literal %s", jsonerr.ErrMalformed, strings.TrimSpace(r.Raw))
	}

	var err error
	if r.IsArray() {
		items := make([]Value, 0)
		r.ForEach(func(_, item gjson.Result) bool {
			var v Value
			v, err = fromResult(item)
			if err != nil {
				return false
			}
			items = append(items, v)
			return true
		})
		if err != nil {
			return Value{}, err
		}
		return FromArray(items), nil
	}

	obj := NewObject()
	r.ForEach(func(key, member gjson.Result) bool {
		var v Value
		v, err = fromResult(member)
		if err != nil {
			return false
		}
		obj.Set(key.Str, v)
		return true
	})
	if err != nil {
		return Value{}, err
	}
	return FromObject(obj), nil
}

// FromAny converts decoded Go values (as produced by encoding/json or handed
// back by JSONPath selection) into a Value. Map members are ordered by key.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case string:
		return FromString(x), nil
	case int:
		return FromInt(int64(x)), nil
	case int64:
		return FromInt(x), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: unsupported number %s", jsonerr.ErrMalformed, x)
		}
		return FromInt(n), nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: unsupported number %v", jsonerr.ErrMalformed, x)
		}
		return FromInt(int64(x)), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return FromArray(items), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		obj := NewObject()
		for _, k := range keys {
			converted, err := FromAny(x[k])
			if err != nil {
				return Value{}, err
			}
			obj.Set(k, converted)
		}
		return FromObject(obj), nil
	}
	return Value{}, fmt.Errorf("%w: unsupported type %T", jsonerr.ErrMalformed, v)
}
