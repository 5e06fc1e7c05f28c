// Package valuetest decodes JSON with an independent, order-preserving
// reference parser so tests can compare engine output against it.
package valuetest

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/7sDream/geko"

	"github.com/jacoelho/jsonslice/internal/value"
)

// Reference decodes doc with geko and fails the test on error.
func Reference(t testing.TB, doc string) value.Value {
	t.Helper()

	v, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("reference decode of %q: %v", doc, err)
	}
	return v
}

// Decode decodes data with geko, keeping object member order.
func Decode(data []byte) (value.Value, error) {
	decoded, err := geko.JSONUnmarshal(data)
	if err != nil {
		return value.Value{}, fmt.Errorf("geko: %w", err)
	}
	return convert(decoded)
}

func convert(v any) (value.Value, error) {
	switch x := v.(type) {
	case geko.ObjectItems:
		obj := value.NewObject()
		keys := x.Keys()
		vals := x.Values()
		for i := range keys {
			member, err := convert(vals[i])
			if err != nil {
				return value.Value{}, err
			}
			obj.Set(keys[i], member)
		}
		return value.FromObject(obj), nil
	case geko.Array:
		items := make([]value.Value, 0, len(x.List))
		for _, item := range x.List {
			converted, err := convert(item)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, converted)
		}
		return value.FromArray(items), nil
	case json.Number, float64, string, nil:
		return value.FromAny(x)
	}
	return value.Value{}, fmt.Errorf("unexpected reference type %T", v)
}
