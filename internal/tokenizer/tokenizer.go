package tokenizer

import (
	"context"
	"errors"
	"iter"

	"github.com/jacoelho/jsonslice/internal/keypath"
	"github.com/jacoelho/jsonslice/internal/ratelimit"
	"github.com/jacoelho/jsonslice/internal/source"
	"github.com/jacoelho/jsonslice/internal/value"
)

// Record is one emission of a pass.
//
// Index-only passes fill Path, Kind, Start and End for every container and
// scalar. Value passes fill Path, Kind, Start, End and Value for non-empty
// containers; Interim marks an early flush of an object's fields (End is
// then unknown and left at zero).
type Record struct {
	Path    keypath.Path
	Kind    value.Kind
	Start   int64
	End     int64
	Value   value.Value
	Interim bool
}

type Option func(*Tokenizer)

// WithWindow bounds the pass to the inclusive byte range [start, end]. A
// negative end means the end of the source.
func WithWindow(start, end int64) Option {
	return func(t *Tokenizer) {
		t.start = start
		t.end = end
	}
}

// WithIndexOnly reports byte spans instead of decoded content.
func WithIndexOnly() Option {
	return func(t *Tokenizer) {
		t.indexOnly = true
	}
}

// WithRateLimit throttles reads from the source.
func WithRateLimit(l *ratelimit.Limiter) Option {
	return func(t *Tokenizer) {
		t.limiter = l
	}
}

// Tokenizer describes a pass over a source. It holds no parsing state itself;
// every call to Records starts a fresh, independent pass.
type Tokenizer struct {
	src       source.Source
	start     int64
	end       int64
	indexOnly bool
	limiter   *ratelimit.Limiter
}

func New(src source.Source, opts ...Option) *Tokenizer {
	t := &Tokenizer{src: src, end: -1}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var errStopped = errors.New("tokenizer: consumer stopped")

// Records returns a lazy, forward-only sequence of records. The pass ends
// when the consumer stops ranging, the context is canceled, or the window is
// exhausted. A failure is delivered as the final element with a non-nil error.
func (t *Tokenizer) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		p := newPass(ctx, t, yield)
		if err := p.run(); err != nil && !errors.Is(err, errStopped) {
			yield(Record{}, err)
		}
	}
}
