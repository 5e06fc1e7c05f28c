// Package keypath parses and formats colon-delimited key paths such as
// "data:0:attributes:name".
package keypath

import (
	"strconv"
	"strings"
)

// Separator joins segments in the textual form of a Path.
const Separator = ":"

// Segment addresses one level of a document: an object field or an array
// element. Name always holds the raw text so an all-digit segment can still
// address an object field spelled with digits.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// Field returns a segment addressing an object member.
func Field(name string) Segment {
	return Segment{Name: name}
}

// Index returns a segment addressing an array element.
func Index(i int) Segment {
	return Segment{Name: strconv.Itoa(i), Index: i, IsIndex: true}
}

func (s Segment) String() string { return s.Name }

// Path is an ordered sequence of segments. The empty Path is the document root.
type Path []Segment

// Parse splits a colon-path. A segment made only of decimal digits, without a
// leading zero unless it is "0", addresses an array element; anything else is
// a field name. The empty string is the root.
func Parse(s string) Path {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, Separator)
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		path = append(path, parseSegment(part))
	}
	return path
}

func parseSegment(part string) Segment {
	if !isDigits(part) || (len(part) > 1 && part[0] == '0') {
		return Field(part)
	}
	i, err := strconv.Atoi(part)
	if err != nil {
		// out of int range, can only ever match a field
		return Field(part)
	}
	return Segment{Name: part, Index: i, IsIndex: true}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if i > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(seg.Name)
	}
	return b.String()
}

// Append returns a new Path with seg added, leaving p untouched.
func (p Path) Append(seg Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Equal reports whether both paths address the same location.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
