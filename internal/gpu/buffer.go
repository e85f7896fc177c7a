package gpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer errors.
var (
	// ErrNilDevice is returned when creating a buffer without a device or queue.
	ErrNilDevice = errors.New("gpu: device or queue is nil")

	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("gpu: buffer has been destroyed")

	// ErrInvalidBufferSize is returned when buffer size is invalid.
	ErrInvalidBufferSize = errors.New("gpu: invalid buffer size")

	// ErrWriteOutOfRange is returned when a write does not fit the buffer.
	ErrWriteOutOfRange = errors.New("gpu: write range out of bounds")
)

// VertexUsage is the usage of every buffer created by this package.
const VertexUsage = gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst | gputypes.BufferUsageMapWrite

// copyAlignment is the WebGPU alignment for buffer sizes and queue writes.
const copyAlignment = 4

// BufferMapState represents the mapping state of a buffer.
type BufferMapState int

const (
	// BufferMapStateUnmapped means the buffer is not mapped.
	BufferMapStateUnmapped BufferMapState = iota
	// BufferMapStateMapped means the buffer is mapped for CPU writes.
	BufferMapStateMapped
)

// String returns the string representation of BufferMapState.
func (s BufferMapState) String() string {
	switch s {
	case BufferMapStateUnmapped:
		return "Unmapped"
	case BufferMapStateMapped:
		return "Mapped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the requested size in bytes. It is rounded up to a multiple
	// of 4.
	Size uint64

	// Usage defaults to VertexUsage when zero.
	Usage gputypes.BufferUsage
}

// Buffer is a HAL buffer with lazy CPU mapping.
type Buffer struct {
	device hal.Device
	queue  hal.Queue
	raw    hal.Buffer

	descriptor BufferDescriptor

	mapState BufferMapState
	mapped   []byte

	// queueWrites is set once MapBuffer has failed; later writes use the
	// queue instead of a mapping.
	queueWrites bool

	serial    uint64
	destroyed bool
}

// CreateBuffer allocates a buffer on device.
func CreateBuffer(device hal.Device, queue hal.Queue, desc BufferDescriptor) (*Buffer, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: size must be positive", ErrInvalidBufferSize)
	}
	if desc.Size > ^uint64(0)-copyAlignment {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidBufferSize, desc.Size)
	}
	desc.Size = alignUp(desc.Size, copyAlignment)
	if desc.Usage == 0 {
		desc.Usage = VertexUsage
	}

	raw, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create buffer %q (%d bytes): %w", desc.Label, desc.Size, err)
	}

	b := &Buffer{
		device:     device,
		queue:      queue,
		raw:        raw,
		descriptor: desc,
		serial:     NextSerial(),
	}
	slogger().Debug("gpu: buffer created", "label", desc.Label, "size", desc.Size, "serial", b.serial)
	return b, nil
}

// Label returns the buffer's debug label.
func (b *Buffer) Label() string {
	return b.descriptor.Label
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 {
	return b.descriptor.Size
}

// Raw returns the HAL handle, nil once destroyed.
func (b *Buffer) Raw() hal.Buffer {
	if b.destroyed {
		return nil
	}
	return b.raw
}

// Serial returns the buffer's current serial.
func (b *Buffer) Serial() uint64 {
	return b.serial
}

// Renew assigns a fresh serial. Used when the contents are discarded while
// the handle is kept.
func (b *Buffer) Renew() {
	b.serial = NextSerial()
}

// MapState returns the current mapping state.
func (b *Buffer) MapState() BufferMapState {
	return b.mapState
}

// IsDestroyed returns true if the buffer has been destroyed.
func (b *Buffer) IsDestroyed() bool {
	return b.destroyed
}

// Write copies data to offset, mapping the buffer first if needed.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if b.destroyed {
		return ErrBufferDestroyed
	}
	if len(data) == 0 {
		return nil
	}
	end := offset + uint64(len(data))
	if end < offset || end > b.descriptor.Size {
		return fmt.Errorf("%w: [%d, %d) in %d-byte buffer %q",
			ErrWriteOutOfRange, offset, end, b.descriptor.Size, b.descriptor.Label)
	}

	if b.mapState == BufferMapStateUnmapped && !b.queueWrites {
		b.mapWhole()
	}
	if b.mapState == BufferMapStateMapped {
		copy(b.mapped[offset:end], data)
		return nil
	}
	return b.writeQueue(offset, data)
}

// Unmap releases the CPU mapping, if any.
func (b *Buffer) Unmap() error {
	if b.mapState != BufferMapStateMapped || b.destroyed {
		return nil
	}
	b.mapped = nil
	b.mapState = BufferMapStateUnmapped
	if err := b.device.UnmapBuffer(b.raw); err != nil {
		return fmt.Errorf("gpu: unmap buffer %q: %w", b.descriptor.Label, err)
	}
	return nil
}

// Destroy unmaps and releases the HAL buffer. Destroy is idempotent.
func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	if err := b.Unmap(); err != nil {
		slogger().Warn("gpu: unmap before destroy failed", "label", b.descriptor.Label, "err", err)
	}
	b.device.DestroyBuffer(b.raw)
	b.raw = nil
	b.destroyed = true
}

// mapWhole maps the whole buffer. On failure the buffer switches to queue
// writes for the rest of its life.
func (b *Buffer) mapWhole() {
	m, err := b.device.MapBuffer(b.raw, 0, b.descriptor.Size)
	if err != nil || m.Ptr == nil {
		slogger().Debug("gpu: buffer not mappable, using queue writes",
			"label", b.descriptor.Label, "err", err)
		b.queueWrites = true
		return
	}
	b.mapped = unsafe.Slice((*byte)(m.Ptr), b.descriptor.Size) //nolint:gosec // mapping spans the whole buffer
	b.mapState = BufferMapStateMapped
}

// writeQueue writes through the queue. The length is padded to the copy
// alignment; the padding stays inside the buffer because sizes are aligned.
func (b *Buffer) writeQueue(offset uint64, data []byte) error {
	if offset%copyAlignment != 0 {
		return fmt.Errorf("%w: queue write offset %d is not %d-byte aligned",
			ErrWriteOutOfRange, offset, copyAlignment)
	}
	if rem := len(data) % copyAlignment; rem != 0 {
		padded := make([]byte, len(data)+copyAlignment-rem)
		copy(padded, data)
		data = padded
	}
	if err := b.queue.WriteBuffer(b.raw, offset, data); err != nil {
		return fmt.Errorf("gpu: write buffer %q: %w", b.descriptor.Label, err)
	}
	return nil
}

// alignUp rounds v up to a multiple of align (a power of two).
func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
