package format

import (
	"encoding/binary"
	"math"
)

// componentReader decodes one component into a float32.
type componentReader func(b []byte) float32

// copyElements returns a ConvertFunc that copies size-byte elements.
func copyElements(size int) ConvertFunc {
	return func(dst, src []byte, srcStride, count int) {
		if srcStride == size {
			copy(dst[:count*size], src[:count*size])
			return
		}
		for i := 0; i < count; i++ {
			s := i * srcStride
			copy(dst[i*size:(i+1)*size], src[s:s+size])
		}
	}
}

// padElements returns a ConvertFunc widening inComps components to
// outComps. Missing y and z are zero, a missing w is one.
func padElements(compSize, inComps, outComps int, one []byte) ConvertFunc {
	inSize := compSize * inComps
	outSize := compSize * outComps
	return func(dst, src []byte, srcStride, count int) {
		for i := 0; i < count; i++ {
			d := dst[i*outSize : (i+1)*outSize]
			s := i * srcStride
			copy(d, src[s:s+inSize])
			clear(d[inSize:])
			if outComps == 4 && inComps < 4 {
				copy(d[3*compSize:], one)
			}
		}
	}
}

// toFloat32 returns a ConvertFunc decoding comps components with read and
// writing them as little-endian float32.
func toFloat32(read componentReader, compSize, comps int) ConvertFunc {
	outSize := 4 * comps
	return func(dst, src []byte, srcStride, count int) {
		for i := 0; i < count; i++ {
			s := i * srcStride
			d := dst[i*outSize:]
			for c := 0; c < comps; c++ {
				v := read(src[s+c*compSize:])
				binary.LittleEndian.PutUint32(d[c*4:], math.Float32bits(v))
			}
		}
	}
}

// readerFor returns the component decoder for t.
func readerFor(t ComponentType, normalized bool) componentReader {
	switch t {
	case Byte:
		if normalized {
			return func(b []byte) float32 { return snorm(float64(int8(b[0])), math.MaxInt8) }
		}
		return func(b []byte) float32 { return float32(int8(b[0])) }
	case UnsignedByte:
		if normalized {
			return func(b []byte) float32 { return float32(b[0]) / math.MaxUint8 }
		}
		return func(b []byte) float32 { return float32(b[0]) }
	case Short:
		if normalized {
			return func(b []byte) float32 {
				return snorm(float64(int16(binary.LittleEndian.Uint16(b))), math.MaxInt16)
			}
		}
		return func(b []byte) float32 { return float32(int16(binary.LittleEndian.Uint16(b))) }
	case UnsignedShort:
		if normalized {
			return func(b []byte) float32 { return float32(binary.LittleEndian.Uint16(b)) / math.MaxUint16 }
		}
		return func(b []byte) float32 { return float32(binary.LittleEndian.Uint16(b)) }
	case Int:
		if normalized {
			return func(b []byte) float32 {
				return snorm(float64(int32(binary.LittleEndian.Uint32(b))), math.MaxInt32)
			}
		}
		return func(b []byte) float32 { return float32(int32(binary.LittleEndian.Uint32(b))) }
	case UnsignedInt:
		if normalized {
			return func(b []byte) float32 {
				return float32(float64(binary.LittleEndian.Uint32(b)) / math.MaxUint32)
			}
		}
		return func(b []byte) float32 { return float32(binary.LittleEndian.Uint32(b)) }
	case Fixed:
		return func(b []byte) float32 {
			return float32(float64(int32(binary.LittleEndian.Uint32(b))) / 65536)
		}
	default:
		return func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }
	}
}

// snorm maps a signed integer to [-1, 1]; the most negative value clamps
// to -1.
func snorm(v, maxValue float64) float32 {
	return float32(math.Max(v/maxValue, -1))
}
