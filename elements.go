package vertexdata

import "math"

// ElementsInRange returns how many whole elements of attr fit in a buffer
// of size bytes, counting from the first element at or after offset mod
// stride. The size is capped to math.MaxInt32.
func ElementsInRange(attr *VertexAttribute, size uint64) int {
	size = min(size, math.MaxInt32)
	stride := uint64(attr.ComputeStride())
	if stride == 0 {
		return 0
	}
	typeSize := uint64(attr.TypeSize())
	start := uint64(attr.Offset) % stride
	if size < start+typeSize {
		return 0
	}
	return int((size - start + (stride - typeSize)) / stride)
}

// StreamingElementCount returns the number of elements a draw reads from
// attr: ceil(instanceCount/divisor) for instanced attributes, otherwise
// vertexCount.
func StreamingElementCount(attr *VertexAttribute, vertexCount, instanceCount int) int {
	if attr.instanced(instanceCount) {
		d := int(attr.Divisor)
		return (instanceCount + d - 1) / d
	}
	return vertexCount
}
