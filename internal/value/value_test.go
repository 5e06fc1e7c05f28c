package value

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jacoelho/jsonslice/internal/jsonerr"
)

func TestObject_SetKeepsFirstPosition(t *testing.T) {
	o := NewObject()
	o.Set("b", FromInt(1))
	o.Set("a", FromInt(2))
	o.Set("b", FromInt(3))

	if got, want := o.Keys(), []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	v, ok := o.Get("b")
	if !ok {
		t.Fatal("Get(b) not found")
	}
	if n, _ := v.AsInt(); n != 3 {
		t.Errorf("Get(b) = %d, want 3", n)
	}
}

func TestObject_AllStopsEarly(t *testing.T) {
	o := NewObject()
	o.Set("x", Null())
	o.Set("y", Null())

	var seen []string
	for k := range o.All() {
		seen = append(seen, k)
		break
	}
	if !reflect.DeepEqual(seen, []string{"x"}) {
		t.Errorf("All() visited %v, want [x]", seen)
	}
}

func TestValue_AppendJSON(t *testing.T) {
	obj := NewObject()
	obj.Set("id", FromInt(-2))
	obj.Set("name", FromString("b\"x\n"))
	obj.Set("tags", FromArray([]Value{Null(), FromString("t")}))
	obj.Set("empty", FromObject(nil))

	got := FromObject(obj).String()
	want := `{"id":-2,"name":"b\"x\n","tags":[null,"t"],"empty":{}}`
	if got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

func TestEqual(t *testing.T) {
	ab := NewObject()
	ab.Set("a", FromInt(1))
	ab.Set("b", FromInt(2))
	ba := NewObject()
	ba.Set("b", FromInt(2))
	ba.Set("a", FromInt(1))

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nulls", Null(), Null(), true},
		{"int_vs_string", FromInt(1), FromString("1"), false},
		{"arrays", FromArray([]Value{FromInt(1)}), FromArray([]Value{FromInt(1)}), true},
		{"array_lengths", FromArray(nil), FromArray([]Value{Null()}), false},
		{"object_order", FromObject(ab), FromObject(ba), false},
		{"same_object", FromObject(ab), FromObject(ab), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %t, want %t", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseExact(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"object", `{"id":2,"name":"b\"x"}`, `{"id":2,"name":"b\"x"}`},
		{"nested", `{"a":[1,{"b":null}],"c":{}}`, `{"a":[1,{"b":null}],"c":{}}`},
		{"integer", ` 42 `, `42`},
		{"negative", `-7`, `-7`},
		{"unicode_escape", `["é\/"]`, `["é/"]`},
		{"duplicate_keys", `{"a":1,"b":2,"a":3}`, `{"a":3,"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseExact([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseExact() error = %v", err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("ParseExact() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseExact_Unsupported(t *testing.T) {
	for _, input := range []string{`{"a":true}`, `[1.5]`, `{"a":1e3}`, `{"a":`, ``} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseExact([]byte(input))
			if !errors.Is(err, jsonerr.ErrMalformed) {
				t.Errorf("ParseExact(%q) error = %v, want ErrMalformed", input, err)
			}
		})
	}
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"z": []any{float64(3), nil},
		"a": "s",
	})
	if err != nil {
		t.Fatalf("FromAny() error = %v", err)
	}
	if got, want := v.String(), `{"a":"s","z":[3,null]}`; got != want {
		t.Errorf("FromAny() = %s, want %s", got, want)
	}

	if _, err := FromAny(0.5); !errors.Is(err, jsonerr.ErrMalformed) {
		t.Errorf("FromAny(0.5) error = %v, want ErrMalformed", err)
	}
	if _, err := FromAny(true); !errors.Is(err, jsonerr.ErrMalformed) {
		t.Errorf("FromAny(true) error = %v, want ErrMalformed", err)
	}
}

func TestValue_AnyRoundTrip(t *testing.T) {
	v, err := ParseExact([]byte(`{"a":[1,"x",null],"b":{"c":-1}}`))
	if err != nil {
		t.Fatalf("ParseExact() error = %v", err)
	}
	want := map[string]any{
		"a": []any{int64(1), "x", nil},
		"b": map[string]any{"c": int64(-1)},
	}
	if got := v.Any(); !reflect.DeepEqual(got, want) {
		t.Errorf("Any() = %#v, want %#v", got, want)
	}
}
