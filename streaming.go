package vertexdata

// StreamingBuffer is an append-only ring of converted attribute data that
// is rewritten every draw. Space is reserved for all streamed attributes of
// a draw before any of them is stored, so a reallocation or discard never
// clobbers data written earlier in the same draw.
type StreamingBuffer struct {
	vertexBufferBase
}

func newStreamingBuffer(dev *Device, label string, initialSize uint64) (*StreamingBuffer, error) {
	s := &StreamingBuffer{vertexBufferBase{dev: dev, label: label}}
	if err := s.allocate(initialSize); err != nil {
		return nil, err
	}
	return s, nil
}

// ReserveVertexSpace implements VertexBuffer.
func (s *StreamingBuffer) ReserveVertexSpace(attr *VertexAttribute, cv CurrentValue, count, instances int) error {
	return s.reserve(attr, cv, count, instances, s.reserveSpace)
}

// StoreVertexAttributes implements VertexBuffer.
func (s *StreamingBuffer) StoreVertexAttributes(attr *VertexAttribute, cv CurrentValue, start, count, instances int) (uint32, error) {
	return s.store(attr, cv, start, count, instances)
}

// reserveSpace makes room for total bytes after the cursor. It grows the
// buffer by at least half when total does not fit at all, and discards the
// contents when total only fails to fit after the cursor.
func (s *StreamingBuffer) reserveSpace(total uint32) error {
	size := s.BufferSize()
	switch {
	case uint64(total) > size:
		newSize := max(uint64(total), 3*size/2)
		Logger().Debug("vertexdata: streaming buffer grown",
			"buffer", s.label, "from", size, "to", newSize)
		return s.allocate(newSize)
	case uint64(s.writePosition)+uint64(total) > size:
		Logger().Debug("vertexdata: streaming buffer discarded",
			"buffer", s.label, "cursor", s.writePosition)
		s.storage.Renew()
		s.writePosition = 0
	}
	return nil
}
