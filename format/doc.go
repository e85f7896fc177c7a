// Package format maps client-side vertex attribute layouts to destination
// vertex formats and converts attribute data between them.
//
// A client attribute is described by a [Key]: component type, component
// count and the normalized / pure-integer flags. A [Policy] turns a Key into
// a [Plan]: the destination [gputypes.VertexFormat], whether the source bytes
// can be bound unmodified, and the conversion function used when they can
// not.
//
// [WebGPUPolicy] targets the WebGPU vertex format set:
//
//   - 32-bit floats and pure 32-bit integers bind directly.
//   - 8- and 16-bit normalized or pure-integer data binds directly with two or
//     four components; one- and three-component data is padded to two or
//     four components (missing w is 1).
//   - Half floats follow the same padding rule with Float16x2/Float16x4.
//   - Everything else (scaled integers, normalized 32-bit integers, 16.16
//     fixed point) is converted to Float32.
//
// Conversions are deterministic and have no side effects, so plans can be
// memoised with [NewCachedPolicy].
package format
