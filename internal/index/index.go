// Package index records where every sub-tree of a document lives. It is built
// by a single index-only tokenizer pass and then answers existence, type,
// length and span questions without touching the source again.
package index

import (
	"context"
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/cespare/xxhash/v2"

	"github.com/jacoelho/jsonslice/internal/jsonerr"
	"github.com/jacoelho/jsonslice/internal/keypath"
	"github.com/jacoelho/jsonslice/internal/ratelimit"
	"github.com/jacoelho/jsonslice/internal/source"
	"github.com/jacoelho/jsonslice/internal/tokenizer"
	"github.com/jacoelho/jsonslice/internal/value"
)

// Node is one addressable location of the document. Start and End are the
// inclusive byte offsets of its text; Count is the element count of an array.
// Children are kept out of band so no document key can collide with them.
type Node struct {
	Kind  value.Kind
	Start int64
	End   int64
	Count int

	fields map[string]*Node
	elems  map[int]*Node
	order  []keypath.Segment
}

type Option func(*builder)

// WithRateLimit throttles the indexing pass.
func WithRateLimit(l *ratelimit.Limiter) Option {
	return func(b *builder) {
		b.limiter = l
	}
}

type builder struct {
	limiter *ratelimit.Limiter
}

// Build runs one index-only pass over the whole source and returns the root.
func Build(ctx context.Context, src source.Source, opts ...Option) (*Node, error) {
	var b builder
	for _, opt := range opts {
		opt(&b)
	}

	tok := tokenizer.New(src, tokenizer.WithIndexOnly(), tokenizer.WithRateLimit(b.limiter))

	root := &Node{}
	for rec, err := range tok.Records(ctx) {
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
		n := root.ensure(rec.Path)
		n.Kind = rec.Kind
		n.Start = rec.Start
		n.End = rec.End
	}
	return root, nil
}

// ensure walks path from n, creating missing nodes. An index segment marks its
// parent as an array and counts the element the first time it is seen.
func (n *Node) ensure(path keypath.Path) *Node {
	cur := n
	for _, seg := range path {
		if seg.IsIndex {
			cur.Kind = value.KindArray
			child, ok := cur.elems[seg.Index]
			if !ok {
				if cur.elems == nil {
					cur.elems = make(map[int]*Node)
				}
				child = &Node{}
				cur.elems[seg.Index] = child
				cur.order = append(cur.order, seg)
				cur.Count++
			}
			cur = child
			continue
		}

		cur.Kind = value.KindObject
		child, ok := cur.fields[seg.Name]
		if !ok {
			if cur.fields == nil {
				cur.fields = make(map[string]*Node)
			}
			child = &Node{}
			cur.fields[seg.Name] = child
			cur.order = append(cur.order, seg)
		}
		cur = child
	}
	return cur
}

// Child returns the direct child addressed by seg. On an object an index
// segment is matched by its raw text, so "0" can name a field.
func (n *Node) Child(seg keypath.Segment) (*Node, bool) {
	switch n.Kind {
	case value.KindObject:
		child, ok := n.fields[seg.Name]
		return child, ok
	case value.KindArray:
		if !seg.IsIndex {
			return nil, false
		}
		child, ok := n.elems[seg.Index]
		return child, ok
	}
	return nil, false
}

// Lookup resolves path below n. The error names the first segment that does
// not resolve.
func (n *Node) Lookup(path keypath.Path) (*Node, error) {
	cur := n
	for i, seg := range path {
		child, ok := cur.Child(seg)
		if !ok {
			return nil, fmt.Errorf("%w: segment %q of %q not found under %s", jsonerr.ErrInvalidPath, seg.Name, path.String(), describe(path[:i]))
		}
		cur = child
	}
	return cur, nil
}

func describe(prefix keypath.Path) string {
	if len(prefix) == 0 {
		return "root"
	}
	return fmt.Sprintf("%q", prefix.String())
}

// Children iterates direct children in document order.
func (n *Node) Children() iter.Seq2[keypath.Segment, *Node] {
	return func(yield func(keypath.Segment, *Node) bool) {
		for _, seg := range n.order {
			child, _ := n.Child(seg)
			if !yield(seg, child) {
				return
			}
		}
	}
}

// NumChildren is the number of direct children.
func (n *Node) NumChildren() int {
	return len(n.order)
}

// HasNestedContainers reports whether any direct child is an object or array.
func (n *Node) HasNestedContainers() bool {
	for _, child := range n.Children() {
		if child.Kind.IsContainer() {
			return true
		}
	}
	return false
}

// Size is the number of bytes the node spans.
func (n *Node) Size() int64 {
	return n.End - n.Start + 1
}

// Walk visits n and its descendants depth first in document order. Returning
// false from fn prunes the node's children.
func (n *Node) Walk(fn func(path keypath.Path, n *Node) bool) {
	n.walk(nil, fn)
}

func (n *Node) walk(path keypath.Path, fn func(keypath.Path, *Node) bool) {
	if !fn(path, n) {
		return
	}
	for seg, child := range n.Children() {
		child.walk(path.Append(seg), fn)
	}
}

// Len counts n and all of its descendants.
func (n *Node) Len() int {
	total := 0
	n.Walk(func(keypath.Path, *Node) bool {
		total++
		return true
	})
	return total
}

// Digest hashes the structure, kinds, spans and counts of the tree. Two
// indexes of the same bytes always share a digest.
func (n *Node) Digest() uint64 {
	h := xxhash.New()
	var buf [8]byte

	n.Walk(func(path keypath.Path, node *Node) bool {
		_, _ = h.WriteString(path.String())
		_, _ = h.Write([]byte{0, byte(node.Kind)})
		for _, x := range []int64{node.Start, node.End, int64(node.Count)} {
			binary.LittleEndian.PutUint64(buf[:], uint64(x))
			_, _ = h.Write(buf[:])
		}
		return true
	})
	return h.Sum64()
}
