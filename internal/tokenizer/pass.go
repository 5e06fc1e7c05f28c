package tokenizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/jacoelho/jsonslice/internal/jsonerr"
	"github.com/jacoelho/jsonslice/internal/keypath"
	"github.com/jacoelho/jsonslice/internal/source"
	"github.com/jacoelho/jsonslice/internal/stack"
	"github.com/jacoelho/jsonslice/internal/value"
)

// target selects the buffer the next string literal feeds.
type target uint8

const (
	targetKey target = iota
	targetValue
)

const ctxCheckMask = 1<<12 - 1

// pass is the state of one run over a window. It is owned by a single
// Records iteration and discarded with it.
type pass struct {
	ctx       context.Context
	cur       *source.Cursor
	indexOnly bool
	yield     func(Record, error) bool

	frames *stack.Stack[Frame]
	opened bool
	closed bool

	target     target
	key        []byte
	keyPending bool
	val        []byte

	// separator state of the top frame
	hasElem    bool
	afterComma bool

	inLiteral bool
	dest      target
	litStart  int64
	inEscape  bool
	escape    []byte
	high      rune // pending high surrogate from a \u escape
	scratch   [utf8.UTFMax]byte

	bare      []byte
	bareStart int64
	bareEnd   int64
}

func newPass(ctx context.Context, t *Tokenizer, yield func(Record, error) bool) *pass {
	return &pass{
		ctx:       ctx,
		cur:       source.NewCursor(ctx, t.src, t.start, t.end, t.limiter),
		indexOnly: t.indexOnly,
		yield:     yield,
		frames:    stack.NewWithCapacity[Frame](16),
	}
}

func (p *pass) run() error {
	for {
		off := p.cur.Offset()
		if off&ctxCheckMask == 0 {
			if err := p.ctx.Err(); err != nil {
				return err
			}
		}

		ch, err := p.cur.ReadByte()
		if errors.Is(err, io.EOF) {
			return p.finish(off)
		}
		if err != nil {
			return fmt.Errorf("read at offset %d: %w", off, err)
		}

		if err := p.step(ch, off); err != nil {
			return err
		}
	}
}

func (p *pass) finish(off int64) error {
	switch {
	case p.inLiteral:
		return jsonerr.Truncated(off, "unterminated string opened at %d", p.litStart)
	case !p.frames.IsEmpty():
		return jsonerr.Truncated(off, "%d container(s) still open", p.frames.Size())
	case !p.opened:
		return jsonerr.Truncated(off, "no object or array found")
	}
	return nil
}

func (p *pass) step(ch byte, off int64) error {
	if p.inLiteral {
		return p.literalByte(ch, off)
	}

	switch ch {
	case '"':
		return p.openLiteral(off)
	case ':':
		return p.colon(off)
	case ',':
		return p.comma(off)
	case '{', '[':
		return p.open(modeFor(ch), off)
	case '}', ']':
		return p.close(ch, off)
	case ' ', '\t', '\n', '\r', '\b', '\f', '\\':
		return nil
	}
	return p.bareByte(ch, off)
}

func (p *pass) outside(off int64) error {
	if p.closed {
		return jsonerr.Malformed(off, "unexpected data after top-level value")
	}
	return jsonerr.Malformed(off, "document must start with an object or array")
}

func (p *pass) openLiteral(off int64) error {
	top := p.frames.PeekRef()
	if top == nil {
		return p.outside(off)
	}
	if len(p.bare) > 0 {
		return jsonerr.Malformed(off, "unexpected string after %q", p.bare)
	}

	if top.Mode == ModeObject && p.target == targetKey && p.keyPending {
		return jsonerr.Malformed(off, "missing ':' after object key %q", p.key)
	}
	if (top.Mode == ModeArray || p.target == targetKey) && p.hasElem {
		return jsonerr.Malformed(off, "missing ',' before string")
	}

	p.inLiteral = true
	p.litStart = off
	if top.Mode == ModeObject && p.target == targetKey {
		p.dest = targetKey
		p.key = p.key[:0]
		p.keyPending = false
	} else {
		p.dest = targetValue
		p.val = p.val[:0]
	}
	return nil
}

func (p *pass) literalByte(ch byte, off int64) error {
	if p.inEscape && p.escapeByte(ch) {
		return nil
	}

	switch ch {
	case '\\':
		p.inEscape = true
		p.escape = p.escape[:0]
		return nil
	case '"':
		p.inLiteral = false
		return p.closeLiteral(off)
	}
	p.appendLiteral(ch)
	return nil
}

// escapeByte consumes ch as part of an escape sequence. It returns false when
// ch ends an incomplete \u sequence and must be handled as a literal byte.
func (p *pass) escapeByte(ch byte) bool {
	if len(p.escape) == 0 {
		p.inEscape = false
		switch ch {
		case '"', '\\', '/':
			p.appendLiteral(ch)
		case 'n':
			p.appendLiteral('\n')
		case 'r':
			p.appendLiteral('\r')
		case 't':
			p.appendLiteral('\t')
		case 'f':
			p.appendLiteral('\f')
		case 'b':
			p.appendLiteral('\b')
		case 'u':
			p.inEscape = true
			p.escape = append(p.escape, ch)
		default:
			p.appendLiteral('\\', ch)
		}
		return true
	}

	if !isHex(ch) {
		// kept verbatim, like any other unknown escape
		p.inEscape = false
		p.appendLiteral('\\')
		p.appendLiteral(p.escape...)
		return false
	}

	p.escape = append(p.escape, ch)
	if len(p.escape) < 5 {
		return true
	}
	p.inEscape = false

	n, _ := strconv.ParseUint(string(p.escape[1:]), 16, 32)
	p.writeRune(rune(n))
	return true
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func (p *pass) writeRune(r rune) {
	if p.high != 0 {
		high := p.high
		p.high = 0
		if r >= 0xDC00 && r <= 0xDFFF {
			p.raw(utf8.AppendRune(p.scratch[:0], utf16.DecodeRune(high, r))...)
			return
		}
		p.raw(utf8.AppendRune(p.scratch[:0], utf8.RuneError)...)
	}
	if r >= 0xD800 && r <= 0xDBFF {
		p.high = r
		return
	}
	p.raw(utf8.AppendRune(p.scratch[:0], r)...)
}

func (p *pass) appendLiteral(b ...byte) {
	p.flushSurrogate()
	p.raw(b...)
}

func (p *pass) flushSurrogate() {
	if p.high != 0 {
		p.high = 0
		p.raw(utf8.AppendRune(p.scratch[:0], utf8.RuneError)...)
	}
}

func (p *pass) raw(b ...byte) {
	if p.dest == targetKey {
		p.key = append(p.key, b...)
		return
	}
	if !p.indexOnly {
		p.val = append(p.val, b...)
	}
}

func (p *pass) closeLiteral(off int64) error {
	p.flushSurrogate()
	if p.dest == targetKey {
		p.keyPending = true
		return nil
	}
	return p.commit(value.FromString(string(p.val)), p.litStart, off)
}

func (p *pass) colon(off int64) error {
	top := p.frames.PeekRef()
	if top == nil {
		return p.outside(off)
	}
	if len(p.bare) > 0 {
		return jsonerr.Malformed(p.bareStart, "unquoted object key %q", p.bare)
	}
	if top.Mode != ModeObject || !p.keyPending || p.target == targetValue {
		return jsonerr.Malformed(off, "unexpected ':'")
	}
	p.target = targetValue
	return nil
}

func (p *pass) comma(off int64) error {
	if p.frames.IsEmpty() {
		return p.outside(off)
	}
	if len(p.bare) > 0 {
		if err := p.finishBare(); err != nil {
			return err
		}
	}
	if p.keyPending {
		return jsonerr.Malformed(off, "object key %q has no value", p.key)
	}
	if !p.hasElem {
		return jsonerr.Malformed(off, "unexpected ','")
	}
	p.hasElem = false
	p.afterComma = true
	p.target = targetKey
	return nil
}

func (p *pass) bareByte(ch byte, off int64) error {
	if p.frames.IsEmpty() {
		return p.outside(off)
	}
	if len(p.bare) == 0 {
		if p.hasElem {
			return jsonerr.Malformed(off, "missing ',' before %q", ch)
		}
		p.bareStart = off
	} else if off != p.bareEnd+1 {
		return jsonerr.Malformed(off, "unexpected %q after literal %q", ch, p.bare)
	}
	p.bare = append(p.bare, ch)
	p.bareEnd = off
	return nil
}

func (p *pass) finishBare() error {
	v, err := parseBare(p.bare)
	if err != nil {
		return jsonerr.Malformed(p.bareStart, "%v", err)
	}
	return p.commit(v, p.bareStart, p.bareEnd)
}

// parseBare accepts exactly null or a decimal integer with an optional minus
// sign and no leading zeros, the integer form JSON allows.
func parseBare(lit []byte) (value.Value, error) {
	if string(lit) == "null" {
		return value.Null(), nil
	}

	digits := lit
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return value.Value{}, fmt.Errorf("invalid literal %q", lit)
	}
	if len(digits) > 1 && digits[0] == '0' {
		return value.Value{}, fmt.Errorf("leading zero in %q", lit)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return value.Value{}, fmt.Errorf("invalid literal %q", lit)
		}
	}

	n, err := strconv.ParseInt(string(lit), 10, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("integer %q out of range", lit)
	}
	return value.FromInt(n), nil
}

func (p *pass) requireKey(off int64) error {
	if !p.keyPending || len(bytes.TrimSpace(p.key)) == 0 {
		return jsonerr.Malformed(off, "missing or blank object key")
	}
	if p.target != targetValue {
		return jsonerr.Malformed(off, "missing ':' after object key %q", p.key)
	}
	return nil
}

// commit stores a finished scalar in the top frame.
func (p *pass) commit(v value.Value, start, end int64) error {
	top := p.frames.PeekRef()

	var seg keypath.Segment
	switch top.Mode {
	case ModeObject:
		if err := p.requireKey(start); err != nil {
			return err
		}
		seg = keypath.Field(string(p.key))
		if !p.indexOnly {
			top.assoc.Set(seg.Name, v)
		}
	case ModeArray:
		seg = keypath.Index(top.elems)
		if !p.indexOnly {
			top.list = append(top.list, v)
		}
		top.elems++
	}
	p.resetSlot()
	p.hasElem, p.afterComma = true, false

	if !p.indexOnly {
		return nil
	}
	return p.emit(Record{
		Path:  p.path().Append(seg),
		Kind:  v.Kind(),
		Start: start,
		End:   end,
	})
}

func (p *pass) open(mode Mode, off int64) error {
	if p.frames.IsEmpty() && p.closed {
		return p.outside(off)
	}
	if len(p.bare) > 0 {
		return jsonerr.Malformed(off, "unexpected %s after %q", mode, p.bare)
	}

	f := Frame{Mode: mode, Start: off}
	if mode == ModeObject && !p.indexOnly {
		f.assoc = value.NewObject()
	}

	if top := p.frames.PeekRef(); top != nil {
		switch top.Mode {
		case ModeObject:
			if err := p.requireKey(off); err != nil {
				return err
			}
			f.Seg, f.HasSeg = keypath.Field(string(p.key)), true

			if !p.indexOnly && top.assoc.Len() > 0 {
				interim := Record{
					Path:    p.path(),
					Kind:    value.KindObject,
					Start:   top.Start,
					Value:   value.FromObject(top.assoc),
					Interim: true,
				}
				top.assoc = value.NewObject()
				if err := p.emit(interim); err != nil {
					return err
				}
			}
		case ModeArray:
			if p.hasElem {
				return jsonerr.Malformed(off, "missing ',' before %s", mode)
			}
			f.Seg, f.HasSeg = keypath.Index(top.elems), true
		}
	}

	p.frames.Push(f)
	p.opened = true
	p.resetSlot()
	p.hasElem, p.afterComma = false, false
	return nil
}

func (p *pass) close(closer byte, off int64) error {
	top := p.frames.PeekRef()
	if top == nil {
		if p.closed {
			return p.outside(off)
		}
		return jsonerr.Malformed(off, "unexpected %q", closer)
	}

	if len(p.bare) > 0 {
		if err := p.finishBare(); err != nil {
			return err
		}
	}
	if p.keyPending {
		return jsonerr.Malformed(off, "object key %q has no value", p.key)
	}
	if p.afterComma {
		return jsonerr.Malformed(off, "trailing ',' before %q", closer)
	}
	if mode := modeFor(closer); top.Mode != mode {
		return jsonerr.Malformed(off, "%q cannot close %s opened at %d", closer, top.Mode, top.Start)
	}

	path := p.path()
	f, _ := p.frames.Pop()
	if parent := p.frames.PeekRef(); parent != nil && parent.Mode == ModeArray {
		parent.elems++
	}
	p.resetSlot()
	p.hasElem, p.afterComma = true, false
	if p.frames.IsEmpty() {
		p.closed = true
	}

	rec := Record{Path: path, Kind: f.Mode.kind(), Start: f.Start, End: off}
	if p.indexOnly {
		return p.emit(rec)
	}
	if content := f.content(); content.Len() > 0 {
		rec.Value = content
		return p.emit(rec)
	}
	return nil
}

// path returns the key path of the top frame.
func (p *pass) path() keypath.Path {
	path := make(keypath.Path, 0, p.frames.Size())
	for _, f := range p.frames.All() {
		if f.HasSeg {
			path = append(path, f.Seg)
		}
	}
	return path
}

func (p *pass) resetSlot() {
	p.target = targetKey
	p.key = p.key[:0]
	p.keyPending = false
	p.val = p.val[:0]
	p.bare = p.bare[:0]
}

func (p *pass) emit(rec Record) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	if !p.yield(rec, nil) {
		return errStopped
	}
	return nil
}
