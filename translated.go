package vertexdata

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vertexdata/format"
)

// TranslatedAttribute tells the draw where one attribute slot reads from.
type TranslatedAttribute struct {
	// Active reports whether the program reads the slot. The remaining
	// fields are meaningful only for active slots.
	Active bool

	// Attribute is the source attribute, nil for inactive slots.
	Attribute *VertexAttribute

	// Storage is the client buffer bound directly, nil when the data was
	// converted.
	Storage *ClientBuffer

	// VertexBuffer is the buffer to bind.
	VertexBuffer hal.Buffer

	// Serial identifies the contents of VertexBuffer. Two translations
	// with the same handle and serial read the same bytes.
	Serial uint64

	// Format is the layout of one element in VertexBuffer.
	Format gputypes.VertexFormat

	// CurrentValueType is the type of the slot's current value. It is set
	// for enabled attributes too, so pipelines can key on it uniformly.
	CurrentValueType format.ValueType

	Stride  uint32
	Offset  uint32
	Divisor uint32
}

// IsDirect reports whether the slot binds client storage unmodified.
func (t *TranslatedAttribute) IsDirect() bool {
	return t.Storage != nil
}
