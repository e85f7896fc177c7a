package vertexdata

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vertexdata/internal/gpu"
)

// BufferUsage is the usage hint given when a client buffer is created.
type BufferUsage int

const (
	// StaticDraw buffers are written once and drawn many times. They get an
	// empty static cache immediately.
	StaticDraw BufferUsage = iota
	// DynamicDraw buffers are rewritten occasionally.
	DynamicDraw
	// StreamDraw buffers are rewritten every few draws.
	StreamDraw
)

// String returns the string representation of BufferUsage.
func (u BufferUsage) String() string {
	switch u {
	case StaticDraw:
		return "static"
	case DynamicDraw:
		return "dynamic"
	case StreamDraw:
		return "stream"
	default:
		return fmt.Sprintf("BufferUsage(%d)", int(u))
	}
}

// ParseBufferUsage parses the names returned by BufferUsage.String.
func ParseBufferUsage(s string) (BufferUsage, error) {
	switch s {
	case "static", "":
		return StaticDraw, nil
	case "dynamic":
		return DynamicDraw, nil
	case "stream":
		return StreamDraw, nil
	}
	return 0, fmt.Errorf("vertexdata: unknown buffer usage %q", s)
}

// promotionFactor is how many times its own size an unmodified buffer must
// stream before it gets a static cache.
const promotionFactor = 3

// ClientBuffer is an application-owned vertex buffer. It keeps a CPU copy
// of its contents for conversion and a device mirror for direct binding.
//
// ClientBuffer is not safe for concurrent use.
type ClientBuffer struct {
	dev   *Device
	usage BufferUsage
	data  []byte

	mirror        *gpu.Buffer
	directBinding bool
	serial        uint64

	static            *StaticBuffer
	unmodifiedDataUse uint64
}

// NewClientBuffer creates an empty client buffer.
func (d *Device) NewClientBuffer(usage BufferUsage) *ClientBuffer {
	b := &ClientBuffer{
		dev:           d,
		usage:         usage,
		directBinding: true,
		serial:        gpu.NextSerial(),
	}
	if usage == StaticDraw {
		b.initializeStaticData()
	}
	return b
}

// Usage returns the usage hint.
func (b *ClientBuffer) Usage() BufferUsage { return b.usage }

// Size returns the buffer size in bytes.
func (b *ClientBuffer) Size() uint64 { return uint64(len(b.data)) }

// Bytes returns the buffer contents. The slice must not be modified.
func (b *ClientBuffer) Bytes() []byte { return b.data }

// Serial changes whenever the contents change.
func (b *ClientBuffer) Serial() uint64 { return b.serial }

// Handle returns the device mirror, nil for an empty buffer.
func (b *ClientBuffer) Handle() hal.Buffer {
	if b.mirror == nil {
		return nil
	}
	return b.mirror.Raw()
}

// SupportsDirectBinding reports whether the mirror can be bound as is.
func (b *ClientBuffer) SupportsDirectBinding() bool {
	return b.directBinding && b.mirror != nil
}

// SetDirectBinding enables or disables direct binding of the mirror.
// Backends that cannot bind client buffers as vertex input disable it so
// every attribute is converted.
func (b *ClientBuffer) SetDirectBinding(enabled bool) {
	b.directBinding = enabled
}

// StaticVertexBuffer returns the static cache, or nil.
func (b *ClientBuffer) StaticVertexBuffer() *StaticBuffer { return b.static }

// SetData replaces the contents and size of the buffer.
func (b *ClientBuffer) SetData(data []byte) error {
	if b.mirror != nil {
		b.mirror.Destroy()
		b.mirror = nil
	}
	b.data = append([]byte(nil), data...)
	b.touch()

	if len(data) == 0 {
		return nil
	}
	mirror, err := b.dev.createBuffer("vertexdata: client", uint64(len(data)))
	if err != nil {
		return err
	}
	b.mirror = mirror
	return b.upload(0, uint64(len(data)))
}

// SetSubData overwrites part of the buffer.
func (b *ClientBuffer) SetSubData(offset uint64, data []byte) error {
	end := offset + uint64(len(data))
	if end < offset || end > uint64(len(b.data)) {
		return fmt.Errorf("%w: [%d, %d) in %d-byte buffer", ErrBufferRange, offset, end, len(b.data))
	}
	copy(b.data[offset:end], data)
	b.touch()
	if len(data) == 0 {
		return nil
	}
	// Queue writes work on 4-byte words; upload the enclosing words.
	return b.upload(offset&^3, min((end+3)&^3, uint64(len(b.data))))
}

// upload copies data[start:end] into the mirror and unmaps it.
func (b *ClientBuffer) upload(start, end uint64) error {
	if b.mirror == nil {
		return nil
	}
	if err := b.mirror.Write(start, b.data[start:end]); err != nil {
		return fmt.Errorf("%w: upload client buffer: %w", ErrOutOfMemory, err)
	}
	return b.mirror.Unmap()
}

// touch records a mutation.
func (b *ClientBuffer) touch() {
	b.serial = gpu.NextSerial()
	b.InvalidateStaticData()
}

// InvalidateStaticData drops a non-empty static cache. StaticDraw buffers
// get a fresh empty cache in its place. The promotion counter restarts.
func (b *ClientBuffer) InvalidateStaticData() {
	if b.static != nil && b.static.BufferSize() != 0 {
		Logger().Debug("vertexdata: static cache invalidated",
			"usage", b.usage, "size", b.static.BufferSize())
		b.static.destroy()
		b.static = nil
		if b.usage == StaticDraw {
			b.initializeStaticData()
		}
	}
	b.unmodifiedDataUse = 0
}

// PromoteStaticUsage records that dataSize bytes were streamed from the
// buffer. Once an unmodified buffer has streamed more than three times its
// size it gets an empty static cache.
func (b *ClientBuffer) PromoteStaticUsage(dataSize uint64) {
	if b.static != nil || len(b.data) == 0 {
		return
	}
	b.unmodifiedDataUse += dataSize
	if b.unmodifiedDataUse > promotionFactor*uint64(len(b.data)) {
		Logger().Debug("vertexdata: buffer promoted to static",
			"usage", b.usage, "size", len(b.data), "streamed", b.unmodifiedDataUse)
		b.initializeStaticData()
	}
}

func (b *ClientBuffer) initializeStaticData() {
	if b.static == nil {
		b.static = newStaticBuffer(b.dev)
	}
}

// Destroy releases the mirror and the static cache.
func (b *ClientBuffer) Destroy() {
	if b.mirror != nil {
		b.mirror.Destroy()
		b.mirror = nil
	}
	if b.static != nil {
		b.static.destroy()
		b.static = nil
	}
	b.data = nil
}
