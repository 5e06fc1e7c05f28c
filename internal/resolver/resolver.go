// Package resolver answers colon-path queries against a JSON document. It
// indexes the document once, then re-parses only the bytes of the requested
// sub-tree.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/theory/jsonpath"
	"go.uber.org/zap"

	"github.com/jacoelho/jsonslice/internal/index"
	"github.com/jacoelho/jsonslice/internal/jsonerr"
	"github.com/jacoelho/jsonslice/internal/keypath"
	"github.com/jacoelho/jsonslice/internal/ratelimit"
	"github.com/jacoelho/jsonslice/internal/source"
	"github.com/jacoelho/jsonslice/internal/tokenizer"
	"github.com/jacoelho/jsonslice/internal/value"
)

type Option func(*Resolver)

// WithMaxSize overrides source.DefaultMaxSize. A value <= 0 disables the cap.
func WithMaxSize(n int64) Option {
	return func(r *Resolver) {
		r.maxSize = n
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithReadRate throttles every pass to bytesPerSecond; 0 means unlimited.
func WithReadRate(bytesPerSecond float64) Option {
	return func(r *Resolver) {
		r.limiter = ratelimit.New(bytesPerSecond)
	}
}

// Resolver is not safe for concurrent use.
type Resolver struct {
	src     source.Source
	root    *index.Node
	id      string
	maxSize int64
	log     *zap.Logger
	limiter *ratelimit.Limiter
}

// New checks the size cap and indexes src. No parsing happens when the cap is
// exceeded.
func New(ctx context.Context, src source.Source, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		src:     src,
		id:      uuid.NewString(),
		maxSize: source.DefaultMaxSize,
		log:     zap.NewNop(),
		limiter: ratelimit.New(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(zap.String("session", r.id))

	root, err := r.build(ctx)
	if err != nil {
		return nil, err
	}
	r.root = root
	return r, nil
}

func (r *Resolver) build(ctx context.Context) (*index.Node, error) {
	if err := source.CheckSize(r.src, r.maxSize); err != nil {
		r.log.Warn("source rejected", zap.Int64("size", r.src.Size()), zap.Int64("max_size", r.maxSize))
		return nil, err
	}

	began := time.Now()
	root, err := index.Build(ctx, r.src, index.WithRateLimit(r.limiter))
	if err != nil {
		return nil, err
	}

	r.log.Debug("index built",
		zap.Int64("bytes", r.src.Size()),
		zap.Int("nodes", root.Len()),
		zap.Float64("read_rate", r.limiter.Limit()),
		zap.Duration("elapsed", time.Since(began)),
	)
	return root, nil
}

// ID identifies this resolver in log output.
func (r *Resolver) ID() string { return r.id }

// Index exposes the root of the current index.
func (r *Resolver) Index() *index.Node { return r.root }

func (r *Resolver) lookup(path string) (*index.Node, error) {
	return r.root.Lookup(keypath.Parse(path))
}

// Exists reports whether path resolves. It never reads the source.
func (r *Resolver) Exists(path string) bool {
	_, err := r.lookup(path)
	return err == nil
}

// TypeOf returns the kind of the value at path.
func (r *Resolver) TypeOf(path string) (value.Kind, error) {
	n, err := r.lookup(path)
	if err != nil {
		return 0, err
	}
	return n.Kind, nil
}

// Length returns the element count of the array at path, 0 for anything else.
func (r *Resolver) Length(path string) (int, error) {
	n, err := r.lookup(path)
	if err != nil {
		return 0, err
	}
	if n.Kind != value.KindArray {
		return 0, nil
	}
	return n.Count, nil
}

// FetchShallow decodes the container at path with a value-mode pass bounded to
// its span. Containers holding nested containers, and scalars, are decoded
// with FetchExact since a value-mode pass never folds nested content.
func (r *Resolver) FetchShallow(ctx context.Context, path string) (value.Value, error) {
	n, err := r.lookup(path)
	if err != nil {
		return value.Value{}, err
	}

	switch {
	case !n.Kind.IsContainer(), n.HasNestedContainers():
		r.log.Debug("shallow fetch served exactly", zap.String("path", path), zap.Stringer("kind", n.Kind))
		return r.FetchExact(ctx, path)
	case n.NumChildren() == 0:
		return empty(n.Kind), nil
	}

	tok := tokenizer.New(r.src,
		tokenizer.WithWindow(n.Start, n.End),
		tokenizer.WithRateLimit(r.limiter),
	)
	for rec, err := range tok.Records(ctx) {
		if err != nil {
			return value.Value{}, fmt.Errorf("fetch %q: %w", path, err)
		}
		return rec.Value, nil
	}
	return empty(n.Kind), nil
}

func empty(kind value.Kind) value.Value {
	if kind == value.KindArray {
		return value.FromArray(nil)
	}
	return value.FromObject(nil)
}

// FetchExact decodes the complete sub-tree at path, nested containers
// included. The empty path fetches the whole document.
func (r *Resolver) FetchExact(ctx context.Context, path string) (value.Value, error) {
	raw, err := r.Raw(ctx, path)
	if err != nil {
		return value.Value{}, err
	}

	v, err := value.ParseExact(raw)
	if err != nil {
		return value.Value{}, fmt.Errorf("fetch %q: %w", path, err)
	}
	return v, nil
}

// Raw returns the exact source bytes of the value at path.
func (r *Resolver) Raw(ctx context.Context, path string) ([]byte, error) {
	n, err := r.lookup(path)
	if err != nil {
		return nil, err
	}

	if err := r.limiter.WaitBytes(ctx, int(n.Size())); err != nil {
		return nil, err
	}
	raw, err := source.ReadRange(r.src, n.Start, n.Size())
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", path, err)
	}

	r.log.Debug("span read", zap.String("path", path), zap.Int64("start", n.Start), zap.Int64("end", n.End))
	return raw, nil
}

// Validate drains a full value-mode pass, surfacing any error a fetch of the
// document could hit.
func (r *Resolver) Validate(ctx context.Context) error {
	tok := tokenizer.New(r.src, tokenizer.WithRateLimit(r.limiter))

	records := 0
	for _, err := range tok.Records(ctx) {
		if err != nil {
			return fmt.Errorf("validate: %w", err)
		}
		records++
	}

	r.log.Debug("document valid", zap.Int("records", records))
	return nil
}

// Select evaluates an RFC 9535 JSONPath expression against the sub-tree at
// path. Objects in the results have their members ordered by key.
func (r *Resolver) Select(ctx context.Context, path, expr string) ([]value.Value, error) {
	query, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: JSONPath %q: %v", jsonerr.ErrInvalidPath, expr, err)
	}

	raw, err := r.Raw(ctx, path)
	if err != nil {
		return nil, err
	}
	// booleans and fractions must fail here as they do for FetchExact
	if _, err := value.ParseExact(raw); err != nil {
		return nil, fmt.Errorf("select %q: %w", path, err)
	}

	// numbers stay json.Number so integers beyond 2^53 keep their value
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("select %q: %w", path, err)
	}

	nodes := query.Select(data)
	out := make([]value.Value, 0, len(nodes))
	for _, node := range nodes {
		v, err := value.FromAny(node)
		if err != nil {
			return nil, fmt.Errorf("select %q: %w", expr, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Rebuild re-indexes the source and reports whether the index changed. On
// error the previous index is kept.
func (r *Resolver) Rebuild(ctx context.Context) (bool, error) {
	root, err := r.build(ctx)
	if err != nil {
		return false, fmt.Errorf("rebuild: %w", err)
	}

	changed := root.Digest() != r.root.Digest()
	r.root = root
	if changed {
		r.log.Info("index changed on rebuild", zap.Int("nodes", root.Len()))
	}
	return changed, nil
}
