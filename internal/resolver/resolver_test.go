package resolver

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jacoelho/jsonslice/internal/jsonerr"
	"github.com/jacoelho/jsonslice/internal/value"
	"github.com/jacoelho/jsonslice/internal/value/valuetest"
)

const scenario = `{"data":[{"id":1,"name":"a"},{"id":2,"name":"b\"x"}],"count":2}`

func newResolver(t *testing.T, doc string, opts ...Option) *Resolver {
	t.Helper()

	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	r, err := New(context.Background(), strings.NewReader(doc), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestResolver_Scenario(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t, scenario)

	if kind, err := r.TypeOf("data"); err != nil || kind != value.KindArray {
		t.Errorf("TypeOf(data) = %v, %v, want Array", kind, err)
	}
	if n, err := r.Length("data"); err != nil || n != 2 {
		t.Errorf("Length(data) = %d, %v, want 2", n, err)
	}

	got, err := r.FetchExact(ctx, "data:1")
	if err != nil {
		t.Fatalf("FetchExact(data:1) error = %v", err)
	}
	if want := valuetest.Reference(t, `{"id":2,"name":"b\"x"}`); !value.Equal(got, want) {
		t.Errorf("FetchExact(data:1) = %s, want %s", got, want)
	}

	count, err := r.FetchExact(ctx, "count")
	if err != nil {
		t.Fatalf("FetchExact(count) error = %v", err)
	}
	if n, ok := count.AsInt(); !ok || n != 2 {
		t.Errorf("FetchExact(count) = %s, want 2", count)
	}

	if r.Exists("data:5") {
		t.Error("Exists(data:5) = true, want false")
	}
	if !r.Exists("data:1:name") {
		t.Error("Exists(data:1:name) = false, want true")
	}
}

func TestResolver_RoundTrip(t *testing.T) {
	docs := []string{
		scenario,
		`[]`,
		`{"a":{"b":[[],[{}],[1,[2,[3]]]]},"c":"\n\té","d":null,"e":-9223372036854775808}`,
		` [ 1 , "x" , { "k" : [ ] } ] `,
	}

	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			got, err := newResolver(t, doc).FetchExact(context.Background(), "")
			if err != nil {
				t.Fatalf("FetchExact() error = %v", err)
			}
			if want := valuetest.Reference(t, doc); !value.Equal(got, want) {
				t.Errorf("FetchExact() = %s, want %s", got, want)
			}
		})
	}
}

func TestResolver_TypeOf(t *testing.T) {
	r := newResolver(t, `{"o":{},"a":[],"s":"x","i":3,"n":null,"0":{"1":[5]}}`)

	tests := []struct {
		path string
		want value.Kind
	}{
		{"", value.KindObject},
		{"o", value.KindObject},
		{"a", value.KindArray},
		{"s", value.KindString},
		{"i", value.KindInteger},
		{"n", value.KindNull},
		{"0:1", value.KindArray},
		{"0:1:0", value.KindInteger},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := r.TypeOf(tt.path)
			if err != nil {
				t.Fatalf("TypeOf() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("TypeOf(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolver_Length(t *testing.T) {
	r := newResolver(t, `{"empty":[],"one":[{}],"many":[1,2,3],"obj":{"a":1},"nested":[[1,2],[]]}`)

	tests := []struct {
		path string
		want int
	}{
		{"empty", 0},
		{"one", 1},
		{"many", 3},
		{"obj", 0},
		{"nested", 2},
		{"nested:0", 2},
		{"nested:1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := r.Length(tt.path)
			if err != nil {
				t.Fatalf("Length() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Length(%q) = %d, want %d", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolver_FetchShallow(t *testing.T) {
	r := newResolver(t, `{"flat":{"a":1,"b":"x"},"list":[1,null,"y"],"empty":{},"none":[],"deep":{"a":{"b":1}},"n":7}`)

	tests := []struct {
		path string
		want string
	}{
		{"flat", `{"a":1,"b":"x"}`},
		{"list", `[1,null,"y"]`},
		{"empty", `{}`},
		{"none", `[]`},
		{"deep", `{"a":{"b":1}}`},
		{"n", `7`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := r.FetchShallow(context.Background(), tt.path)
			if err != nil {
				t.Fatalf("FetchShallow() error = %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("FetchShallow(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolver_Raw(t *testing.T) {
	r := newResolver(t, scenario)

	got, err := r.Raw(context.Background(), "data:1:name")
	if err != nil {
		t.Fatalf("Raw() error = %v", err)
	}
	if want := `"b\"x"`; string(got) != want {
		t.Errorf("Raw() = %s, want %s", got, want)
	}
}

func TestResolver_InvalidPath(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t, scenario)

	calls := map[string]func(path string) error{
		"TypeOf": func(p string) error { _, err := r.TypeOf(p); return err },
		"Length": func(p string) error { _, err := r.Length(p); return err },
		"FetchShallow": func(p string) error {
			_, err := r.FetchShallow(ctx, p)
			return err
		},
		"FetchExact": func(p string) error {
			_, err := r.FetchExact(ctx, p)
			return err
		},
		"Raw": func(p string) error { _, err := r.Raw(ctx, p); return err },
	}

	for name, call := range calls {
		for _, path := range []string{"missing", "data:2", "data:0:id:x"} {
			t.Run(name+"/"+path, func(t *testing.T) {
				if err := call(path); !errors.Is(err, jsonerr.ErrInvalidPath) {
					t.Errorf("%s(%q) error = %v, want ErrInvalidPath", name, path, err)
				}
			})
		}
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		opts []Option
		want error
	}{
		{"too_large", scenario, []Option{WithMaxSize(10)}, jsonerr.ErrSourceTooLarge},
		{"too_large_and_malformed", `{"":` + strings.Repeat(" ", 64), []Option{WithMaxSize(10)}, jsonerr.ErrSourceTooLarge},
		{"blank_key", `{"":1}`, nil, jsonerr.ErrMalformed},
		{"boolean", `{"a":false}`, nil, jsonerr.ErrMalformed},
		{"truncated_array", `{"a":[1,2`, nil, jsonerr.ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), strings.NewReader(tt.doc), tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNew_RejectsWhatExactParsingRejects(t *testing.T) {
	docs := []string{
		`{"a" "b"}`,
		`["a" "b"]`,
		`{"a":1,}`,
		`[1,,2]`,
		`{"a":007}`,
		`{"a":+5}`,
	}

	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			if _, err := value.ParseExact([]byte(doc)); !errors.Is(err, jsonerr.ErrMalformed) {
				t.Errorf("ParseExact() error = %v, want ErrMalformed", err)
			}
			if _, err := New(context.Background(), strings.NewReader(doc)); !errors.Is(err, jsonerr.ErrMalformed) {
				t.Errorf("New() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestNew_NoSizeCap(t *testing.T) {
	if _, err := New(context.Background(), strings.NewReader(scenario), WithMaxSize(0)); err != nil {
		t.Errorf("New() error = %v", err)
	}
}

func TestResolver_Validate(t *testing.T) {
	r := newResolver(t, scenario, WithReadRate(1<<20))
	if err := r.Validate(context.Background()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Validate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Validate() error = %v, want context.Canceled", err)
	}
}

func TestResolver_Select(t *testing.T) {
	r := newResolver(t, scenario)

	tests := []struct {
		name string
		path string
		expr string
		want []string
	}{
		{"names", "", `$.data[*].name`, []string{`"a"`, `"b\"x"`}},
		{"index", "data", `$[1].id`, []string{`2`}},
		{"descendant", "", `$..id`, []string{`1`, `2`}},
		{"filter", "data", `$[?@.name == "a"]`, []string{`{"id":1,"name":"a"}`}},
		{"no_match", "", `$.missing`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Select(context.Background(), tt.path, tt.expr)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			var rendered []string
			for _, v := range got {
				rendered = append(rendered, v.String())
			}
			if strings.Join(rendered, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Select(%q, %q) = %v, want %v", tt.path, tt.expr, rendered, tt.want)
			}
		})
	}

	if _, err := r.Select(context.Background(), "", `$[`); !errors.Is(err, jsonerr.ErrInvalidPath) {
		t.Errorf("Select() with bad expression error = %v, want ErrInvalidPath", err)
	}
}

func TestResolver_SelectLargeIntegers(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t, `{"a":[9007199254740993,-9223372036854775808]}`)

	tests := []struct {
		expr string
		want string
	}{
		{`$.a[0]`, `9007199254740993`},
		{`$.a[1]`, `-9223372036854775808`},
		{`$.a[?@ == 9007199254740993]`, `9007199254740993`},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := r.Select(ctx, "", tt.expr)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if len(got) != 1 || got[0].String() != tt.want {
				t.Errorf("Select(%q) = %v, want [%s]", tt.expr, got, tt.want)
			}
		})
	}

	exact, err := r.FetchExact(ctx, "a:0")
	if err != nil {
		t.Fatalf("FetchExact() error = %v", err)
	}
	if exact.String() != `9007199254740993` {
		t.Errorf("FetchExact() = %s, want 9007199254740993", exact)
	}
}

// swappable lets a test replace the document behind a resolver.
type swappable struct {
	r *bytes.Reader
}

func (s *swappable) ReadAt(p []byte, off int64) (int, error) { return s.r.ReadAt(p, off) }

func (s *swappable) Size() int64 { return s.r.Size() }

func TestResolver_Rebuild(t *testing.T) {
	ctx := context.Background()
	src := &swappable{r: bytes.NewReader([]byte(scenario))}

	r, err := New(ctx, src)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	changed, err := r.Rebuild(ctx)
	if err != nil || changed {
		t.Errorf("Rebuild() = %t, %v, want false, nil", changed, err)
	}

	src.r = bytes.NewReader([]byte(`{"data":[{"id":1}],"count":1}`))
	changed, err = r.Rebuild(ctx)
	if err != nil || !changed {
		t.Errorf("Rebuild() = %t, %v, want true, nil", changed, err)
	}
	if n, _ := r.Length("data"); n != 1 {
		t.Errorf("Length(data) after rebuild = %d, want 1", n)
	}

	src.r = bytes.NewReader([]byte(`{"data":[`))
	if _, err := r.Rebuild(ctx); !errors.Is(err, jsonerr.ErrTruncated) {
		t.Errorf("Rebuild() error = %v, want ErrTruncated", err)
	}
	if !r.Exists("count") {
		t.Error("failed Rebuild() replaced the index")
	}
}

func TestResolver_ID(t *testing.T) {
	a := newResolver(t, scenario)
	b := newResolver(t, scenario)

	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("ID() = %q and %q, want distinct non-empty ids", a.ID(), b.ID())
	}
}
