// Package gpu wraps gogpu/wgpu HAL buffers as the byte storage behind
// vertex buffers.
//
// A [Buffer] owns one hal.Buffer created with vertex, copy-destination and
// map-write usage. Writes go through a CPU mapping that is established on the
// first write and held until [Buffer.Unmap]; backends that refuse to map the
// buffer fall back to hal.Queue.WriteBuffer. Every buffer carries a serial
// from a process-wide counter so consumers can tell when a handle or its
// contents were replaced.
//
// Buffers are not safe for concurrent use.
package gpu
