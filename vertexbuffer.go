package vertexdata

import (
	"fmt"
	"math"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vertexdata/format"
	"github.com/gogpu/vertexdata/internal/gpu"
)

// reservationAlignment is the granularity of reservations and of the write
// cursor.
const reservationAlignment = 16

// VertexBuffer is device storage that receives converted attribute data.
//
// Every store must be preceded by a reservation covering it. Reservations
// accumulate until the stores that consume them.
type VertexBuffer interface {
	// DirectStoragePossible reports whether attr can be bound from its
	// client buffer without conversion.
	DirectStoragePossible(attr *VertexAttribute, cv CurrentValue) bool

	// ReserveVertexSpace reserves room for count elements (or the elements
	// of instances instances for instanced attributes).
	ReserveVertexSpace(attr *VertexAttribute, cv CurrentValue, count, instances int) error

	// SpaceRequired returns the converted size of count elements.
	SpaceRequired(attr *VertexAttribute, cv CurrentValue, count, instances int) (uint32, error)

	// StoreVertexAttributes converts count elements starting at element
	// start and returns the byte offset they were written at.
	StoreVertexAttributes(attr *VertexAttribute, cv CurrentValue, start, count, instances int) (uint32, error)

	// Handle returns the backend buffer, nil when nothing is allocated.
	Handle() hal.Buffer

	// Serial changes whenever the storage is reallocated or discarded.
	Serial() uint64

	// BufferSize returns the allocated size in bytes.
	BufferSize() uint64

	// HintUnmap releases any CPU mapping before the storage is used.
	HintUnmap()
}

// vertexBufferBase holds the storage, write cursor and reservation shared
// by streaming and static buffers.
type vertexBufferBase struct {
	dev     *Device
	label   string
	storage *gpu.Buffer

	writePosition uint32
	reservedSpace uint32

	scratch []byte
}

func (b *vertexBufferBase) plan(attr *VertexAttribute, cv CurrentValue) (format.Plan, error) {
	return b.dev.policy.Plan(attr.formatKey(cv))
}

// Handle implements VertexBuffer.
func (b *vertexBufferBase) Handle() hal.Buffer {
	if b.storage == nil {
		return nil
	}
	return b.storage.Raw()
}

// Serial implements VertexBuffer.
func (b *vertexBufferBase) Serial() uint64 {
	if b.storage == nil {
		return 0
	}
	return b.storage.Serial()
}

// BufferSize implements VertexBuffer.
func (b *vertexBufferBase) BufferSize() uint64 {
	if b.storage == nil {
		return 0
	}
	return b.storage.Size()
}

// HintUnmap implements VertexBuffer.
func (b *vertexBufferBase) HintUnmap() {
	if b.storage == nil {
		return
	}
	if err := b.storage.Unmap(); err != nil {
		Logger().Warn("vertexdata: unmap failed", "buffer", b.label, "err", err)
	}
}

// endDraw unmaps and drops reservations a failed draw left behind.
func (b *vertexBufferBase) endDraw() {
	b.HintUnmap()
	b.reservedSpace = 0
}

// DirectStoragePossible implements VertexBuffer.
func (b *vertexBufferBase) DirectStoragePossible(attr *VertexAttribute, cv CurrentValue) bool {
	if !attr.Enabled || attr.Buffer == nil || !attr.Buffer.SupportsDirectBinding() {
		return false
	}
	plan, err := b.plan(attr, cv)
	if err != nil || plan.Conversion || plan.ElementSize() == 0 {
		return false
	}
	alignment := uint32(4)
	if attr.Type != format.Float {
		alignment = min(plan.ElementSize(), 4)
	}
	return attr.ComputeStride()%alignment == 0 && attr.Offset%alignment == 0
}

// SpaceRequired implements VertexBuffer.
func (b *vertexBufferBase) SpaceRequired(attr *VertexAttribute, cv CurrentValue, count, instances int) (uint32, error) {
	plan, err := b.plan(attr, cv)
	if err != nil {
		return 0, err
	}
	elements := StreamingElementCount(attr, count, instances)
	if elements < 0 {
		return 0, fmt.Errorf("%w: negative element count %d", ErrInvalidDraw, elements)
	}
	size := uint64(plan.ElementSize()) * uint64(elements)
	if size > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d elements of %d bytes", ErrOutOfMemory, elements, plan.ElementSize())
	}
	return uint32(size), nil
}

// reserve adds the aligned size of the request to the reservation and lets
// the buffer kind make room for the new total.
func (b *vertexBufferBase) reserve(attr *VertexAttribute, cv CurrentValue, count, instances int, reserveSpace func(total uint32) error) error {
	required, err := b.SpaceRequired(attr, cv, count, instances)
	if err != nil {
		return err
	}
	aligned := alignReservation(required)
	total := uint64(b.reservedSpace) + aligned
	if total > math.MaxUint32 {
		return fmt.Errorf("%w: reservation of %d bytes over %d reserved", ErrOutOfMemory, required, b.reservedSpace)
	}
	if err := reserveSpace(uint32(total)); err != nil {
		return err
	}
	b.reservedSpace = uint32(total)
	return nil
}

// store converts the attribute into the storage at the write cursor and
// consumes the matching reservation.
func (b *vertexBufferBase) store(attr *VertexAttribute, cv CurrentValue, start, count, instances int) (uint32, error) {
	plan, err := b.plan(attr, cv)
	if err != nil {
		return 0, err
	}
	required, err := b.SpaceRequired(attr, cv, count, instances)
	if err != nil {
		return 0, err
	}
	aligned := alignReservation(required)
	if uint64(b.writePosition)+aligned > math.MaxUint32 {
		return 0, fmt.Errorf("%w: write cursor %d + %d bytes", ErrOutOfMemory, b.writePosition, aligned)
	}
	if b.storage == nil || aligned > uint64(b.reservedSpace) ||
		uint64(b.writePosition)+uint64(required) > b.storage.Size() {
		return 0, fmt.Errorf("%w: %s store of %d bytes at %d with %d reserved in %d-byte buffer",
			ErrInvariantViolation, b.label, required, b.writePosition, b.reservedSpace, b.BufferSize())
	}

	elements := StreamingElementCount(attr, count, instances)
	src, srcStride, err := sourceRange(attr, cv, plan, start, elements)
	if err != nil {
		return 0, err
	}
	if cap(b.scratch) < int(required) {
		b.scratch = make([]byte, required)
	}
	dst := b.scratch[:required]
	plan.Convert(dst, src, srcStride, elements)

	offset := b.writePosition
	if err := b.storage.Write(uint64(offset), dst); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrOutOfMemory, b.label, err)
	}
	b.writePosition += uint32(aligned)
	b.reservedSpace -= uint32(aligned)
	return offset, nil
}

// alignReservation rounds size up to the reservation alignment.
func alignReservation(size uint32) uint64 {
	return (uint64(size) + reservationAlignment - 1) &^ (reservationAlignment - 1)
}

// allocate replaces the storage with a new buffer of at least size bytes.
func (b *vertexBufferBase) allocate(size uint64) error {
	storage, err := b.dev.createBuffer(b.label, max(size, reservationAlignment))
	if err != nil {
		return err
	}
	if b.storage != nil {
		b.storage.Destroy()
	}
	b.storage = storage
	b.writePosition = 0
	return nil
}

func (b *vertexBufferBase) destroy() {
	if b.storage != nil {
		b.storage.Destroy()
		b.storage = nil
	}
	b.writePosition = 0
	b.reservedSpace = 0
}

// sourceRange returns the source bytes of count elements starting at
// element start, and the source stride. Disabled attributes read their
// current value with stride 0.
func sourceRange(attr *VertexAttribute, cv CurrentValue, plan format.Plan, start, count int) ([]byte, int, error) {
	if !attr.Enabled {
		return cv.Bytes(), 0, nil
	}
	stride := int64(attr.ComputeStride())
	if count <= 0 {
		return nil, int(stride), nil
	}
	if start < -math.MaxInt32 || start > math.MaxInt32 || count > math.MaxInt32 {
		return nil, 0, fmt.Errorf("%w: element range %d+%d", ErrSourceRange, start, count)
	}

	var data []byte
	var base int64
	if attr.Buffer != nil {
		data = attr.Buffer.Bytes()
		base = int64(attr.Offset)
	} else {
		data = attr.Pointer
	}

	first := base + int64(start)*stride
	if first < 0 || first > int64(len(data)) {
		return nil, 0, fmt.Errorf("%w: first element at byte %d of %d", ErrSourceRange, first, len(data))
	}
	span := int64(count-1)*stride + int64(plan.InputSize)
	if span > int64(len(data))-first {
		return nil, 0, fmt.Errorf("%w: %d elements from byte %d need %d of %d bytes",
			ErrSourceRange, count, first, first+span, len(data))
	}
	return data[first : first+span], int(stride), nil
}

var (
	_ VertexBuffer = (*StreamingBuffer)(nil)
	_ VertexBuffer = (*StaticBuffer)(nil)
)
