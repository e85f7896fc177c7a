package vertexdata

import "fmt"

// currentValueSlot caches the upload of one attribute slot's current value.
type currentValueSlot struct {
	buffer *StreamingBuffer
	value  CurrentValue
	offset uint32
	valid  bool
}

// storeCurrentValue fills t for a disabled attribute. The value is uploaded
// only when it differs from the one stored last time; otherwise the previous
// offset and serial are reused.
func (m *Manager) storeCurrentValue(index int, attr *VertexAttribute, cv CurrentValue, t *TranslatedAttribute) error {
	slot := &m.currentValues[index]
	if slot.buffer == nil {
		buf, err := newStreamingBuffer(m.dev, fmt.Sprintf("vertexdata: current value %d", index), m.opts.constantBufferSize)
		if err != nil {
			return err
		}
		slot.buffer = buf
	}

	if !slot.valid || slot.value != cv {
		slot.valid = false
		if err := slot.buffer.ReserveVertexSpace(attr, cv, 1, 0); err != nil {
			return err
		}
		offset, err := slot.buffer.StoreVertexAttributes(attr, cv, 0, 1, 0)
		if err != nil {
			return err
		}
		slot.value, slot.offset, slot.valid = cv, offset, true
		m.stats.CurrentValueUploads++
	}

	plan, err := m.dev.policy.Plan(cv.Type.Key())
	if err != nil {
		return err
	}
	t.Storage = nil
	t.VertexBuffer = slot.buffer.Handle()
	t.Serial = slot.buffer.Serial()
	t.Format = plan.Format
	t.CurrentValueType = cv.Type
	t.Divisor = 0
	t.Stride = 0
	t.Offset = slot.offset
	return nil
}
