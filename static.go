package vertexdata

import (
	"fmt"

	"github.com/gogpu/vertexdata/format"
)

// attributeIdentity is what a static cache entry is keyed by: two
// attributes with equal identities convert to identical bytes.
type attributeIdentity struct {
	typ         format.ComponentType
	size        int
	normalized  bool
	pureInteger bool
	stride      uint32
	offset      uint32 // offset mod stride
}

func identityOf(attr *VertexAttribute) attributeIdentity {
	stride := attr.ComputeStride()
	id := attributeIdentity{
		typ:         attr.Type,
		size:        attr.Size,
		normalized:  attr.Normalized,
		pureInteger: attr.PureInteger,
		stride:      stride,
	}
	if stride != 0 {
		id.offset = attr.Offset % stride
	}
	return id
}

// StaticBuffer caches the conversion of one attribute layout of a client
// buffer. It is either empty or holds exactly one converted layout, and is
// never resized once allocated.
type StaticBuffer struct {
	vertexBufferBase

	entry  attributeIdentity
	stored bool
	offset uint32
}

func newStaticBuffer(dev *Device) *StaticBuffer {
	return &StaticBuffer{vertexBufferBase: vertexBufferBase{dev: dev, label: "vertexdata: static"}}
}

// LookupAttribute returns the offset of the cached conversion of attr.
func (s *StaticBuffer) LookupAttribute(attr *VertexAttribute) (uint32, bool) {
	if !s.stored || s.entry != identityOf(attr) {
		return 0, false
	}
	return s.offset, true
}

// ReserveVertexSpace implements VertexBuffer.
func (s *StaticBuffer) ReserveVertexSpace(attr *VertexAttribute, cv CurrentValue, count, instances int) error {
	return s.reserve(attr, cv, count, instances, s.reserveSpace)
}

// StoreVertexAttributes implements VertexBuffer. The stored layout becomes
// the cache entry.
func (s *StaticBuffer) StoreVertexAttributes(attr *VertexAttribute, cv CurrentValue, start, count, instances int) (uint32, error) {
	id := identityOf(attr)
	if s.stored && s.entry != id {
		return 0, fmt.Errorf("%w: static cache already holds another layout", ErrInvariantViolation)
	}
	offset, err := s.store(attr, cv, start, count, instances)
	if err != nil {
		return 0, err
	}
	s.entry, s.stored, s.offset = id, true, offset
	return offset, nil
}

func (s *StaticBuffer) reserveSpace(total uint32) error {
	size := s.BufferSize()
	switch {
	case size == 0:
		return s.allocate(uint64(total))
	case uint64(total) > size:
		return fmt.Errorf("%w: static vertex buffer of %d bytes cannot grow to %d", ErrOutOfMemory, size, total)
	}
	return nil
}

func (s *StaticBuffer) destroy() {
	s.vertexBufferBase.destroy()
	s.stored = false
	s.offset = 0
}
