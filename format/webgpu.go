package format

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// WebGPUPolicy returns the conversion policy for WebGPU vertex formats.
func WebGPUPolicy() Policy { return webgpuPolicy{} }

type webgpuPolicy struct{}

// family is a vertex format family that only exists with two and four
// components.
type family struct {
	x2, x4 gputypes.VertexFormat
	one    []byte // w value used when padding to four components
}

var (
	float32Formats = [5]gputypes.VertexFormat{0,
		gputypes.VertexFormatFloat32, gputypes.VertexFormatFloat32x2,
		gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x4}
	sint32Formats = [5]gputypes.VertexFormat{0,
		gputypes.VertexFormatSint32, gputypes.VertexFormatSint32x2,
		gputypes.VertexFormatSint32x3, gputypes.VertexFormatSint32x4}
	uint32Formats = [5]gputypes.VertexFormat{0,
		gputypes.VertexFormatUint32, gputypes.VertexFormatUint32x2,
		gputypes.VertexFormatUint32x3, gputypes.VertexFormatUint32x4}

	half    = family{gputypes.VertexFormatFloat16x2, gputypes.VertexFormatFloat16x4, []byte{0x00, 0x3c}}
	sint8   = family{gputypes.VertexFormatSint8x2, gputypes.VertexFormatSint8x4, []byte{1}}
	uint8f  = family{gputypes.VertexFormatUint8x2, gputypes.VertexFormatUint8x4, []byte{1}}
	snorm8  = family{gputypes.VertexFormatSnorm8x2, gputypes.VertexFormatSnorm8x4, []byte{0x7f}}
	unorm8  = family{gputypes.VertexFormatUnorm8x2, gputypes.VertexFormatUnorm8x4, []byte{0xff}}
	sint16  = family{gputypes.VertexFormatSint16x2, gputypes.VertexFormatSint16x4, []byte{1, 0}}
	uint16f = family{gputypes.VertexFormatUint16x2, gputypes.VertexFormatUint16x4, []byte{1, 0}}
	snorm16 = family{gputypes.VertexFormatSnorm16x2, gputypes.VertexFormatSnorm16x4, []byte{0xff, 0x7f}}
	unorm16 = family{gputypes.VertexFormatUnorm16x2, gputypes.VertexFormatUnorm16x4, []byte{0xff, 0xff}}
)

// Plan implements Policy.
func (webgpuPolicy) Plan(k Key) (Plan, error) {
	if k.Components < 1 || k.Components > 4 || k.Type.Size() == 0 {
		return Plan{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, k)
	}
	in := k.InputSize()

	switch k.Type {
	case Float:
		return Plan{Format: float32Formats[k.Components], InputSize: in}, nil
	case HalfFloat:
		return familyPlan(half, k), nil
	case Byte, UnsignedByte, Short, UnsignedShort:
		if f, ok := smallIntFamily(k); ok {
			return familyPlan(f, k), nil
		}
	case Int:
		if k.PureInteger {
			return Plan{Format: sint32Formats[k.Components], InputSize: in}, nil
		}
	case UnsignedInt:
		if k.PureInteger {
			return Plan{Format: uint32Formats[k.Components], InputSize: in}, nil
		}
	}

	// Scaled integers, normalized 32-bit integers and fixed point become
	// Float32 on the CPU.
	return Plan{
		Format:     float32Formats[k.Components],
		InputSize:  in,
		Conversion: true,
		convert:    toFloat32(readerFor(k.Type, k.Normalized), k.Type.Size(), k.Components),
	}, nil
}

// smallIntFamily returns the 8/16-bit family for normalized or pure-integer
// keys.
func smallIntFamily(k Key) (family, bool) {
	switch {
	case k.PureInteger:
		switch k.Type {
		case Byte:
			return sint8, true
		case UnsignedByte:
			return uint8f, true
		case Short:
			return sint16, true
		case UnsignedShort:
			return uint16f, true
		}
	case k.Normalized:
		switch k.Type {
		case Byte:
			return snorm8, true
		case UnsignedByte:
			return unorm8, true
		case Short:
			return snorm16, true
		case UnsignedShort:
			return unorm16, true
		}
	}
	return family{}, false
}

// familyPlan binds even component counts directly and pads odd ones.
func familyPlan(f family, k Key) Plan {
	compSize := k.Type.Size()
	in := k.InputSize()
	switch k.Components {
	case 2:
		return Plan{Format: f.x2, InputSize: in}
	case 4:
		return Plan{Format: f.x4, InputSize: in}
	case 1:
		return Plan{Format: f.x2, InputSize: in, Conversion: true,
			convert: padElements(compSize, 1, 2, f.one)}
	default:
		return Plan{Format: f.x4, InputSize: in, Conversion: true,
			convert: padElements(compSize, 3, 4, f.one)}
	}
}
