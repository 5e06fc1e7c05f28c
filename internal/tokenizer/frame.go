package tokenizer

import (
	"github.com/jacoelho/jsonslice/internal/keypath"
	"github.com/jacoelho/jsonslice/internal/value"
)

// Mode is the kind of container a Frame is building.
type Mode uint8

const (
	ModeObject Mode = iota
	ModeArray
)

func (m Mode) String() string {
	if m == ModeArray {
		return "array"
	}
	return "object"
}

func (m Mode) kind() value.Kind {
	if m == ModeArray {
		return value.KindArray
	}
	return value.KindObject
}

func modeFor(opener byte) Mode {
	if opener == '[' || opener == ']' {
		return ModeArray
	}
	return ModeObject
}

// Frame is the parsing state of one open container.
type Frame struct {
	Mode  Mode
	Start int64 // offset of the opening bracket

	// Seg is the frame's field name or index in its parent; HasSeg is false
	// for the outermost frame of a pass.
	Seg    keypath.Segment
	HasSeg bool

	elems int // completed elements, array frames only
	assoc *value.Object
	list  []value.Value
}

func (f *Frame) content() value.Value {
	if f.Mode == ModeArray {
		return value.FromArray(f.list)
	}
	return value.FromObject(f.assoc)
}
