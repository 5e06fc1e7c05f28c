// Package source adapts seekable byte stores to the parser: size capping,
// windowed sequential cursors and bounded contiguous reads.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jacoelho/jsonslice/internal/jsonerr"
	"github.com/jacoelho/jsonslice/internal/ratelimit"
)

// DefaultMaxSize is the cap applied when the caller does not configure one.
const DefaultMaxSize int64 = 100 << 20

const bufferSize = 32 << 10

// Source is a random-access view over document bytes. *bytes.Reader,
// *strings.Reader, *io.SectionReader and *File satisfy it.
type Source interface {
	io.ReaderAt
	Size() int64
}

// File is an opened document on disk.
type File struct {
	*os.File
	size int64
}

// Open opens path and records its size.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat source %s: %w", path, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open source: %s is a directory", path)
	}

	return &File{File: f, size: info.Size()}, nil
}

func (f *File) Size() int64 { return f.size }

// CheckSize rejects sources larger than maxSize. A maxSize <= 0 disables the cap.
func CheckSize(src Source, maxSize int64) error {
	if maxSize > 0 && src.Size() > maxSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", jsonerr.ErrSourceTooLarge, src.Size(), maxSize)
	}
	return nil
}

// ReadRange returns the n bytes starting at off.
func ReadRange(src Source, off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off+n > src.Size() {
		return nil, fmt.Errorf("read range [%d, %d) outside source of %d bytes", off, off+n, src.Size())
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(io.NewSectionReader(src, off, n), buf); err != nil {
		return nil, fmt.Errorf("read range at %d: %w", off, err)
	}
	return buf, nil
}

// Cursor reads a window of a Source one byte at a time. Each cursor owns its
// read position, so cursors over the same Source never interfere.
type Cursor struct {
	r   *bufio.Reader
	pos int64
}

// NewCursor positions a cursor at start; it reports io.EOF after the byte at
// end (inclusive). A negative end means the end of the source. limiter may be nil.
func NewCursor(ctx context.Context, src Source, start, end int64, limiter *ratelimit.Limiter) *Cursor {
	start, end = Clamp(src, start, end)

	var r io.Reader = io.NewSectionReader(src, start, end-start+1)
	if limiter != nil && !limiter.Unlimited() {
		r = &throttledReader{ctx: ctx, r: r, limiter: limiter}
	}

	return &Cursor{
		r:   bufio.NewReaderSize(r, bufferSize),
		pos: start,
	}
}

// Clamp bounds an inclusive window to the source. An empty source yields end < start.
func Clamp(src Source, start, end int64) (int64, int64) {
	if start < 0 {
		start = 0
	}
	if end < 0 || end >= src.Size() {
		end = src.Size() - 1
	}
	return start, end
}

// ReadByte returns the next byte of the window, or io.EOF when it is exhausted.
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err != nil {
		return 0, err
	}
	c.pos++
	return b, nil
}

// Offset is the absolute source offset of the next byte ReadByte returns.
func (c *Cursor) Offset() int64 { return c.pos }

type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *ratelimit.Limiter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 {
		if werr := t.limiter.WaitBytes(t.ctx, n); werr != nil {
			return n, werr
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("read source: %w", err)
	}
	return n, err
}
