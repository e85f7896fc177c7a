package vertexdata

import (
	"fmt"
	"math"
)

// bufferChoice is where an active attribute of a draw reads from.
type bufferChoice int

const (
	choiceCurrentValue bufferChoice = iota
	choiceDirect
	choiceStatic
	choiceStreaming
)

// selection is the per-slot buffer decision made while reserving and
// consumed while storing.
type selection struct {
	choice bufferChoice
	static *StaticBuffer
}

// Manager translates the vertex attributes of each draw into bindable
// buffers. It owns the streaming buffer and the current-value buffers;
// static caches belong to the client buffers.
//
// Manager is not safe for concurrent use.
type Manager struct {
	dev  *Device
	opts managerOptions

	streaming     *StreamingBuffer
	currentValues []currentValueSlot

	translated []TranslatedAttribute
	selections []selection
	claims     map[*StaticBuffer]attributeIdentity
	staticHits map[*StaticBuffer]bool

	stats  Stats
	closed bool
}

// NewManager creates a manager and allocates its streaming buffer.
func NewManager(dev *Device, opts ...Option) (*Manager, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	streaming, err := newStreamingBuffer(dev, "vertexdata: streaming", o.initialStreamingSize)
	if err != nil {
		return nil, err
	}
	return &Manager{
		dev:           dev,
		opts:          o,
		streaming:     streaming,
		currentValues: make([]currentValueSlot, o.maxVertexAttribs),
		translated:    make([]TranslatedAttribute, o.maxVertexAttribs),
		selections:    make([]selection, o.maxVertexAttribs),
		claims:        make(map[*StaticBuffer]attributeIdentity),
		staticHits:    make(map[*StaticBuffer]bool),
	}, nil
}

// PrepareVertexData translates the attributes of a draw of vertexCount
// vertices starting at firstVertex, instanced instanceCount times (0 for a
// non-instanced draw).
//
// The returned slice has one entry per attribute of state and stays valid
// until the next call. On error no buffer is left mapped and the caches
// hold only complete conversions.
func (m *Manager) PrepareVertexData(state *DrawState, firstVertex, vertexCount, instanceCount int) ([]TranslatedAttribute, error) {
	if m.closed {
		return nil, ErrManagerClosed
	}
	if err := validateDraw(firstVertex, vertexCount, instanceCount); err != nil {
		return nil, err
	}
	attrs := state.Attributes
	if len(attrs) > m.opts.maxVertexAttribs {
		return nil, fmt.Errorf("%w: %d attributes, limit %d", ErrTooManyAttributes, len(attrs), m.opts.maxVertexAttribs)
	}

	translated := m.translated[:len(attrs)]
	clear(translated)
	clear(m.selections)
	clear(m.claims)

	// Scan.
	for i := range attrs {
		translated[i].Active = state.Program != nil && state.Program.IsAttributeActive(i)
		if translated[i].Active {
			translated[i].Attribute = &attrs[i]
		}
	}
	m.invalidateMismatchedStaticData(state, translated)

	err := m.reserveAndStore(state, translated, firstVertex, vertexCount, instanceCount)
	m.hintUnmapAllResources(translated)
	if err != nil {
		m.stats.FailedDraws++
		return nil, err
	}

	for i := range translated {
		if attr := translated[i].Attribute; attr != nil && attr.Enabled && attr.Buffer != nil {
			attr.Buffer.PromoteStaticUsage(uint64(vertexCount) * uint64(attr.TypeSize()))
		}
	}
	m.stats.Draws++
	return translated, nil
}

func validateDraw(firstVertex, vertexCount, instanceCount int) error {
	for _, v := range [...]int{firstVertex, vertexCount, instanceCount} {
		if v < 0 || v > math.MaxInt32 {
			return fmt.Errorf("%w: first %d, count %d, instances %d",
				ErrInvalidDraw, firstVertex, vertexCount, instanceCount)
		}
	}
	return nil
}

// invalidateMismatchedStaticData drops static caches that an active
// attribute of this draw cannot use. A cache that another attribute of the
// same draw hits is kept.
func (m *Manager) invalidateMismatchedStaticData(state *DrawState, translated []TranslatedAttribute) {
	clear(m.staticHits)
	for i := range translated {
		attr := translated[i].Attribute
		if attr == nil || !attr.Enabled || attr.Buffer == nil {
			continue
		}
		if s := attr.Buffer.StaticVertexBuffer(); s != nil {
			if _, ok := s.LookupAttribute(attr); ok {
				m.staticHits[s] = true
			}
		}
	}
	for i := range translated {
		attr := translated[i].Attribute
		if attr == nil || !attr.Enabled || attr.Buffer == nil {
			continue
		}
		s := attr.Buffer.StaticVertexBuffer()
		if s == nil || s.BufferSize() == 0 || m.staticHits[s] || s.DirectStoragePossible(attr, state.CurrentValue(i)) {
			continue
		}
		attr.Buffer.InvalidateStaticData()
		m.stats.StaticInvalidations++
	}
}

func (m *Manager) reserveAndStore(state *DrawState, translated []TranslatedAttribute, firstVertex, count, instances int) error {
	// Reserve all space before storing anything.
	for i := range translated {
		attr := translated[i].Attribute
		if attr == nil || !attr.Enabled {
			continue
		}
		if err := m.reserveSpaceForAttrib(i, attr, state.CurrentValue(i), count, instances); err != nil {
			return fmt.Errorf("attribute %d: %w", i, err)
		}
	}

	for i := range translated {
		attr := translated[i].Attribute
		if attr == nil {
			continue
		}
		var err error
		if attr.Enabled {
			err = m.storeAttribute(i, attr, state.CurrentValue(i), firstVertex, count, instances, &translated[i])
		} else {
			err = m.storeCurrentValue(i, attr, state.CurrentValue(i), &translated[i])
		}
		if err != nil {
			return fmt.Errorf("attribute %d: %w", i, err)
		}
	}
	return nil
}

// reserveSpaceForAttrib selects the buffer of an enabled attribute and
// reserves space in it.
func (m *Manager) reserveSpaceForAttrib(i int, attr *VertexAttribute, cv CurrentValue, count, instances int) error {
	sel := &m.selections[i]
	if m.streaming.DirectStoragePossible(attr, cv) {
		sel.choice = choiceDirect
		return nil
	}

	if attr.Buffer != nil {
		if s := attr.Buffer.StaticVertexBuffer(); s != nil {
			if _, ok := s.LookupAttribute(attr); ok {
				sel.choice, sel.static = choiceStatic, s
				return nil
			}
			id := identityOf(attr)
			claimed, ok := m.claims[s]
			if s.BufferSize() == 0 || (ok && claimed == id) {
				sel.choice, sel.static = choiceStatic, s
				if ok {
					// A sibling with the same layout fills the cache.
					return nil
				}
				m.claims[s] = id
				return s.ReserveVertexSpace(attr, cv, ElementsInRange(attr, attr.Buffer.Size()), 0)
			}
		}
	}

	sel.choice = choiceStreaming
	return m.streaming.ReserveVertexSpace(attr, cv, count, instances)
}

func (m *Manager) storeAttribute(i int, attr *VertexAttribute, cv CurrentValue, firstVertex, count, instances int, t *TranslatedAttribute) error {
	plan, err := m.dev.policy.Plan(attr.formatKey(cv))
	if err != nil {
		return err
	}

	// Instanced attributes do not apply the first vertex.
	firstVertexIndex := firstVertex
	if attr.instanced(instances) {
		firstVertexIndex = 0
	}
	stride := attr.ComputeStride()
	elementSize := plan.ElementSize()

	t.Format = plan.Format
	t.CurrentValueType = cv.Type
	t.Divisor = attr.Divisor

	switch sel := m.selections[i]; sel.choice {
	case choiceDirect:
		offset, err := addOffsets(attr.Offset, uint64(stride)*uint64(firstVertexIndex))
		if err != nil {
			return err
		}
		t.Storage = attr.Buffer
		t.VertexBuffer = attr.Buffer.Handle()
		t.Serial = attr.Buffer.Serial()
		t.Stride = stride
		t.Offset = offset
		m.stats.DirectBindings++

	case choiceStatic:
		s := sel.static
		cached, ok := s.LookupAttribute(attr)
		if ok {
			m.stats.StaticHits++
		} else {
			total := ElementsInRange(attr, attr.Buffer.Size())
			startIndex := int(attr.Offset / stride)
			cached, err = s.StoreVertexAttributes(attr, cv, -startIndex, total, 0)
			if err != nil {
				return err
			}
			m.stats.StaticConversions++
			m.stats.BytesConverted += uint64(elementSize) * uint64(total)
		}
		firstElementOffset := uint64(attr.Offset/stride) * uint64(elementSize)
		startOffset := uint64(firstVertexIndex) * uint64(elementSize)
		offset, err := addOffsets(cached, firstElementOffset, startOffset)
		if err != nil {
			return err
		}
		t.VertexBuffer = s.Handle()
		t.Serial = s.Serial()
		t.Stride = elementSize
		t.Offset = offset

	case choiceStreaming:
		total := StreamingElementCount(attr, count, instances)
		offset, err := m.streaming.StoreVertexAttributes(attr, cv, firstVertexIndex, total, instances)
		if err != nil {
			return err
		}
		t.VertexBuffer = m.streaming.Handle()
		t.Serial = m.streaming.Serial()
		t.Stride = elementSize
		t.Offset = offset
		m.stats.StreamedAttributes++
		m.stats.BytesConverted += uint64(elementSize) * uint64(total)

	default:
		return fmt.Errorf("%w: attribute %d stored without a reservation", ErrInvariantViolation, i)
	}
	return nil
}

// addOffsets sums byte offsets, failing when the result leaves 32 bits.
func addOffsets(base uint32, offsets ...uint64) (uint32, error) {
	sum := uint64(base)
	for _, o := range offsets {
		if o > math.MaxUint32 || sum+o > math.MaxUint32 {
			return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, sum, o)
		}
		sum += o
	}
	return uint32(sum), nil
}

// hintUnmapAllResources releases every mapping the draw may have created
// and drops unconsumed reservations.
func (m *Manager) hintUnmapAllResources(translated []TranslatedAttribute) {
	m.streaming.endDraw()
	for i := range translated {
		attr := translated[i].Attribute
		if attr == nil || !attr.Enabled || attr.Buffer == nil {
			continue
		}
		if s := attr.Buffer.StaticVertexBuffer(); s != nil {
			s.endDraw()
		}
	}
	for i := range m.currentValues {
		if b := m.currentValues[i].buffer; b != nil {
			b.endDraw()
		}
	}
}

// Stats returns a snapshot of the manager counters.
func (m *Manager) Stats() Stats {
	s := m.stats
	s.StreamingBufferSize = m.streaming.BufferSize()
	return s
}

// Close releases the streaming and current-value buffers. Static caches
// stay with their client buffers. Close is idempotent.
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.streaming.destroy()
	for i := range m.currentValues {
		if b := m.currentValues[i].buffer; b != nil {
			b.destroy()
		}
	}
	m.currentValues = nil
	m.closed = true
}
