package vertexdata

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/vertexdata/format"
)

// VertexAttribute describes where one vertex shader input reads its data
// from and how that data is laid out.
type VertexAttribute struct {
	// Enabled selects between array data (true) and the slot's current
	// value (false).
	Enabled bool

	// Type is the component type of the source data.
	Type format.ComponentType

	// Size is the number of components per element, 1 to 4.
	Size int

	// Normalized maps integer components to [0,1] or [-1,1].
	Normalized bool

	// PureInteger marks an integer attribute read without float conversion.
	PureInteger bool

	// Stride is the byte distance between elements. Zero means tightly packed.
	Stride uint32

	// Offset is the byte offset of the first element inside Buffer.
	Offset uint32

	// Buffer holds the source bytes. When nil the data comes from Pointer.
	Buffer *ClientBuffer

	// Pointer is client memory used when Buffer is nil. Element i starts at
	// Pointer[i*stride].
	Pointer []byte

	// Divisor advances the attribute once every Divisor instances.
	// Zero means per-vertex.
	Divisor uint32
}

// TypeSize returns the payload size of one element in bytes.
func (a *VertexAttribute) TypeSize() uint32 {
	return uint32(a.Type.Size() * a.Size)
}

// ComputeStride returns the effective stride: the declared stride, or the
// payload size when the declared stride is smaller (tightly packed).
func (a *VertexAttribute) ComputeStride() uint32 {
	return max(a.Stride, a.TypeSize())
}

// instanced reports whether the attribute advances per instance in a draw
// with the given instance count.
func (a *VertexAttribute) instanced(instances int) bool {
	return instances > 0 && a.Divisor > 0
}

// formatKey returns the conversion key for the attribute. Disabled
// attributes are described by their current value.
func (a *VertexAttribute) formatKey(cv CurrentValue) format.Key {
	if !a.Enabled {
		return cv.Type.Key()
	}
	return format.Key{
		Type:        a.Type,
		Components:  a.Size,
		Normalized:  a.Normalized,
		PureInteger: a.PureInteger,
	}
}

// CurrentValue is the generic value a disabled attribute supplies to every
// vertex.
type CurrentValue struct {
	Type  format.ValueType
	Lanes [4]uint32
}

// FloatValue returns a float current value.
func FloatValue(x, y, z, w float32) CurrentValue {
	return CurrentValue{
		Type: format.ValueFloat,
		Lanes: [4]uint32{
			math.Float32bits(x), math.Float32bits(y),
			math.Float32bits(z), math.Float32bits(w),
		},
	}
}

// IntValue returns a signed integer current value.
func IntValue(x, y, z, w int32) CurrentValue {
	return CurrentValue{
		Type:  format.ValueInt,
		Lanes: [4]uint32{uint32(x), uint32(y), uint32(z), uint32(w)},
	}
}

// UintValue returns an unsigned integer current value.
func UintValue(x, y, z, w uint32) CurrentValue {
	return CurrentValue{Type: format.ValueUint, Lanes: [4]uint32{x, y, z, w}}
}

// DefaultCurrentValue is the value of a slot that was never set: (0, 0, 0, 1).
func DefaultCurrentValue() CurrentValue {
	return FloatValue(0, 0, 0, 1)
}

// Floats returns the lanes interpreted as float32.
func (v CurrentValue) Floats() [4]float32 {
	var f [4]float32
	for i, l := range v.Lanes {
		f[i] = math.Float32frombits(l)
	}
	return f
}

// Bytes returns the 16-byte little-endian encoding of the four lanes.
func (v CurrentValue) Bytes() []byte {
	b := make([]byte, 16)
	for i, l := range v.Lanes {
		binary.LittleEndian.PutUint32(b[i*4:], l)
	}
	return b
}

// Program reports which attribute slots the bound shader reads.
type Program interface {
	IsAttributeActive(index int) bool
}

// AttributeMask is a Program backed by a bit set of active slots.
type AttributeMask uint32

// ActiveAttributes returns a mask with the given slots set.
func ActiveAttributes(indices ...int) AttributeMask {
	var m AttributeMask
	for _, i := range indices {
		if i >= 0 && i < 32 {
			m |= 1 << uint(i)
		}
	}
	return m
}

// IsAttributeActive implements Program.
func (m AttributeMask) IsAttributeActive(index int) bool {
	return index >= 0 && index < 32 && m&(1<<uint(index)) != 0
}

// DrawState is the attribute state of one draw.
type DrawState struct {
	Program       Program
	Attributes    []VertexAttribute
	CurrentValues []CurrentValue
}

// CurrentValue returns the current value of slot i, or the default value
// when the slot has none.
func (s *DrawState) CurrentValue(i int) CurrentValue {
	if i < len(s.CurrentValues) {
		return s.CurrentValues[i]
	}
	return DefaultCurrentValue()
}
