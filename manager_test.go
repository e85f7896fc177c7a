package vertexdata

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vertexdata/format"
	"github.com/gogpu/vertexdata/internal/gpu"
)

func newClientBuffer(t *testing.T, dev *Device, usage BufferUsage, data []byte) *ClientBuffer {
	t.Helper()
	b := dev.NewClientBuffer(usage)
	t.Cleanup(b.Destroy)
	if err := b.SetData(data); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	return b
}

func prepare(t *testing.T, m *Manager, state *DrawState, first, count, instances int) []TranslatedAttribute {
	t.Helper()
	out, err := m.PrepareVertexData(state, first, count, instances)
	if err != nil {
		t.Fatalf("PrepareVertexData: %v", err)
	}
	return out
}

func TestPrepareDirectBinding(t *testing.T) {
	m, dev := newTestManager(t)
	buf := newClientBuffer(t, dev, DynamicDraw, f32Bytes(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11))
	state := &DrawState{
		Program: ActiveAttributes(0),
		Attributes: []VertexAttribute{
			{Enabled: true, Type: format.Float, Size: 2, Stride: 12, Offset: 4, Buffer: buf},
		},
	}

	out := prepare(t, m, state, 2, 2, 0)
	ta := &out[0]
	if !ta.IsDirect() || ta.Storage != buf {
		t.Fatalf("Storage = %p, want client buffer", ta.Storage)
	}
	if ta.VertexBuffer != buf.Handle() || ta.Serial != buf.Serial() {
		t.Error("direct binding does not point at the client buffer")
	}
	if ta.Offset != 4+12*2 || ta.Stride != 12 {
		t.Errorf("Offset, Stride = %d, %d; want 28, 12", ta.Offset, ta.Stride)
	}
	if ta.Format != gputypes.VertexFormatFloat32x2 {
		t.Errorf("Format = %v, want Float32x2", ta.Format)
	}
	if got := readFloats(t, dev, ta, 2); !equalFloats(got, []float32{7, 8}) {
		t.Errorf("bound data = %v, want [7 8]", got)
	}
	stats := m.Stats()
	if stats.DirectBindings != 1 || stats.StreamedAttributes != 0 || stats.BytesConverted != 0 {
		t.Errorf("stats = %v, want one direct binding and no conversion", stats)
	}
}

func TestPrepareStreamsClientMemory(t *testing.T) {
	m, dev := newTestManager(t)
	state := &DrawState{
		Program: ActiveAttributes(0),
		Attributes: []VertexAttribute{
			{Enabled: true, Type: format.Float, Size: 2, Pointer: f32Bytes(0, 1, 2, 3, 4, 5, 6, 7)},
		},
	}

	out := prepare(t, m, state, 1, 3, 0)
	ta := &out[0]
	if ta.IsDirect() {
		t.Fatal("client memory bound directly")
	}
	if ta.VertexBuffer != m.streaming.Handle() || ta.Stride != 8 {
		t.Errorf("VertexBuffer, Stride = %v, %d; want streaming buffer, 8", ta.VertexBuffer, ta.Stride)
	}
	if got := readFloats(t, dev, ta, 6); !equalFloats(got, []float32{2, 3, 4, 5, 6, 7}) {
		t.Errorf("streamed data = %v", got)
	}
}

func TestPrepareConvertsToFloat(t *testing.T) {
	m, dev := newTestManager(t)
	state := &DrawState{
		Program: ActiveAttributes(0),
		Attributes: []VertexAttribute{
			{Enabled: true, Type: format.UnsignedByte, Size: 3, Stride: 4, Pointer: []byte{1, 2, 3, 0, 4, 5, 6, 0}},
		},
	}

	out := prepare(t, m, state, 0, 2, 0)
	ta := &out[0]
	if ta.Format != gputypes.VertexFormatFloat32x3 || ta.Stride != 12 {
		t.Errorf("Format, Stride = %v, %d; want Float32x3, 12", ta.Format, ta.Stride)
	}
	if got := readFloats(t, dev, ta, 6); !equalFloats(got, []float32{1, 2, 3, 4, 5, 6}) {
		t.Errorf("converted data = %v", got)
	}
}

func TestPrepareStreamingOffsetsAreDisjoint(t *testing.T) {
	m, _ := newTestManager(t)
	state := &DrawState{Program: ActiveAttributes(0, 1, 2)}
	for i := 0; i < 3; i++ {
		state.Attributes = append(state.Attributes,
			VertexAttribute{Enabled: true, Type: format.Short, Size: 3, Pointer: make([]byte, 6*5)})
	}

	out := prepare(t, m, state, 0, 5, 0)
	for i := 1; i < len(out); i++ {
		prevEnd := out[i-1].Offset + 5*out[i-1].Stride
		if out[i].Offset < prevEnd {
			t.Errorf("attribute %d at %d overlaps attribute %d ending at %d", i, out[i].Offset, i-1, prevEnd)
		}
		if out[i].Offset%reservationAlignment != 0 {
			t.Errorf("attribute %d offset %d not aligned", i, out[i].Offset)
		}
	}
}

func TestPrepareInstancedIgnoresFirstVertex(t *testing.T) {
	m, dev := newTestManager(t)
	state := &DrawState{
		Program: ActiveAttributes(0),
		Attributes: []VertexAttribute{
			{Enabled: true, Type: format.Float, Size: 1, Divisor: 2, Pointer: f32Bytes(10, 20, 30)},
		},
	}

	out := prepare(t, m, state, 7, 100, 5)
	ta := &out[0]
	if ta.Divisor != 2 {
		t.Errorf("Divisor = %d, want 2", ta.Divisor)
	}
	if got := readFloats(t, dev, ta, 3); !equalFloats(got, []float32{10, 20, 30}) {
		t.Errorf("instanced data = %v, want [10 20 30]", got)
	}
}

func TestPrepareInactiveSlotUntouched(t *testing.T) {
	m, _ := newTestManager(t)
	attr := VertexAttribute{Enabled: true, Type: format.Float, Size: 1, Pointer: f32Bytes(1, 2, 3, 4)}
	state := &DrawState{
		Program: ActiveAttributes(0, 1, 2),
		Attributes: []VertexAttribute{attr, attr, attr,
			// Reading slot 3 would fail: it has no data.
			{Enabled: true, Type: format.Float, Size: 4}},
	}

	out := prepare(t, m, state, 0, 4, 0)
	if out[3].Active || out[3].Attribute != nil || out[3].VertexBuffer != nil {
		t.Errorf("inactive slot translated: %+v", out[3])
	}
	if m.Stats().StreamedAttributes != 3 {
		t.Errorf("StreamedAttributes = %d, want 3", m.Stats().StreamedAttributes)
	}
}

func TestCurrentValueUploadedOnce(t *testing.T) {
	m, dev := newTestManager(t)
	state := &DrawState{
		Program:       ActiveAttributes(0),
		Attributes:    []VertexAttribute{{Type: format.Float, Size: 4}},
		CurrentValues: []CurrentValue{FloatValue(1, 2, 3, 4)},
	}

	first := prepare(t, m, state, 0, 3, 0)[0]
	if first.Stride != 0 || first.Divisor != 0 || first.CurrentValueType != format.ValueFloat {
		t.Errorf("current value translation = %+v", first)
	}
	if got := readFloats(t, dev, &first, 4); !equalFloats(got, []float32{1, 2, 3, 4}) {
		t.Errorf("current value data = %v", got)
	}

	second := prepare(t, m, state, 0, 3, 0)[0]
	if second.Offset != first.Offset || second.Serial != first.Serial || second.VertexBuffer != first.VertexBuffer {
		t.Error("unchanged current value was stored again")
	}
	if got := m.Stats().CurrentValueUploads; got != 1 {
		t.Errorf("CurrentValueUploads = %d, want 1", got)
	}

	state.CurrentValues[0] = FloatValue(5, 6, 7, 8)
	third := prepare(t, m, state, 0, 3, 0)[0]
	if third.Offset == first.Offset {
		t.Error("changed current value reused the old offset")
	}
	if got := readFloats(t, dev, &third, 4); !equalFloats(got, []float32{5, 6, 7, 8}) {
		t.Errorf("current value data = %v", got)
	}
	if got := m.Stats().CurrentValueUploads; got != 2 {
		t.Errorf("CurrentValueUploads = %d, want 2", got)
	}
}

func TestCurrentValueTypeChangeUploads(t *testing.T) {
	m, _ := newTestManager(t)
	state := &DrawState{
		Program:       ActiveAttributes(0),
		Attributes:    []VertexAttribute{{}},
		CurrentValues: []CurrentValue{UintValue(1, 2, 3, 4)},
	}
	ta := prepare(t, m, state, 0, 1, 0)[0]
	if ta.Format != gputypes.VertexFormatUint32x4 || ta.CurrentValueType != format.ValueUint {
		t.Errorf("Format, CurrentValueType = %v, %v", ta.Format, ta.CurrentValueType)
	}

	// Same bits, different type.
	state.CurrentValues[0] = IntValue(1, 2, 3, 4)
	ta = prepare(t, m, state, 0, 1, 0)[0]
	if ta.Format != gputypes.VertexFormatSint32x4 {
		t.Errorf("Format = %v, want Sint32x4", ta.Format)
	}
	if got := m.Stats().CurrentValueUploads; got != 2 {
		t.Errorf("CurrentValueUploads = %d, want 2", got)
	}
}

func TestEnabledAttributesCarryCurrentValueType(t *testing.T) {
	m, dev := newTestManager(t)
	direct := newClientBuffer(t, dev, DynamicDraw, f32Bytes(0, 1, 2, 3, 4, 5))
	static := newClientBuffer(t, dev, StaticDraw, i16Bytes(1, 2, 3, 4, 5, 6))
	state := &DrawState{
		Program: ActiveAttributes(0, 1, 2),
		Attributes: []VertexAttribute{
			{Enabled: true, Type: format.Float, Size: 2, Buffer: direct},
			{Enabled: true, Type: format.Float, Size: 2, Pointer: f32Bytes(0, 1, 2, 3, 4, 5)},
			{Enabled: true, Type: format.Short, Size: 3, Buffer: static},
		},
		CurrentValues: []CurrentValue{
			IntValue(1, 2, 3, 4),
			UintValue(5, 6, 7, 8),
			IntValue(0, 0, 0, 1),
		},
	}

	out := prepare(t, m, state, 0, 2, 0)
	if !out[0].IsDirect() {
		t.Fatal("slot 0 not bound directly")
	}
	if out[2].VertexBuffer != static.StaticVertexBuffer().Handle() {
		t.Fatal("slot 2 not served from the static cache")
	}
	want := []format.ValueType{format.ValueInt, format.ValueUint, format.ValueInt}
	for i, w := range want {
		if out[i].CurrentValueType != w {
			t.Errorf("slot %d CurrentValueType = %v, want %v", i, out[i].CurrentValueType, w)
		}
	}
	if out[1].Format != gputypes.VertexFormatFloat32x2 {
		t.Errorf("slot 1 Format = %v, want Float32x2", out[1].Format)
	}
}

func TestStaticCacheRoundTrip(t *testing.T) {
	m, dev := newTestManager(t)
	buf := newClientBuffer(t, dev, StaticDraw, i16Bytes(1, 2, 3, 4, 5, 6, 7, 8, 9))
	state := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Short, Size: 3, Buffer: buf}},
	}

	first := prepare(t, m, state, 0, 3, 0)[0]
	static := buf.StaticVertexBuffer()
	if first.VertexBuffer != static.Handle() || first.IsDirect() {
		t.Fatal("static attribute not served from the static cache")
	}
	want := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if got := readFloats(t, dev, &first, 9); !equalFloats(got, want) {
		t.Errorf("static data = %v, want %v", got, want)
	}

	second := prepare(t, m, state, 1, 2, 0)[0]
	if second.Offset != first.Offset+12 || second.Serial != first.Serial {
		t.Errorf("second draw Offset, Serial = %d, %d; want %d, %d", second.Offset, second.Serial, first.Offset+12, first.Serial)
	}
	stats := m.Stats()
	if stats.StaticConversions != 1 || stats.StaticHits != 1 {
		t.Errorf("stats = %v, want one conversion and one hit", stats)
	}
}

func TestStaticCacheOffsetInsideStride(t *testing.T) {
	m, dev := newTestManager(t)
	// Two interleaved short3 attributes per 12-byte vertex.
	data := i16Bytes(1, 2, 3, 10, 20, 30, 4, 5, 6, 40, 50, 60)
	buf := newClientBuffer(t, dev, StaticDraw, data)
	state := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Short, Size: 3, Stride: 12, Offset: 18, Buffer: buf}},
	}

	// Offset 18 is element 1 of the layout starting at byte 6.
	ta := prepare(t, m, state, 0, 1, 0)[0]
	if got := readFloats(t, dev, &ta, 3); !equalFloats(got, []float32{40, 50, 60}) {
		t.Errorf("static data = %v, want [40 50 60]", got)
	}
}

func TestStaticCacheInvalidatedOnMismatch(t *testing.T) {
	m, dev := newTestManager(t)
	buf := newClientBuffer(t, dev, StaticDraw, i16Bytes(1, 2, 3, 4, 5, 6))
	asShort3 := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Short, Size: 3, Buffer: buf}},
	}
	asShort2 := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Short, Size: 2, Stride: 6, Buffer: buf}},
	}

	prepare(t, m, asShort3, 0, 2, 0)
	ta := prepare(t, m, asShort2, 0, 2, 0)[0]
	if got := m.Stats().StaticInvalidations; got != 1 {
		t.Errorf("StaticInvalidations = %d, want 1", got)
	}
	if ta.VertexBuffer != buf.StaticVertexBuffer().Handle() {
		t.Error("new layout did not refill the static cache")
	}
	if got := readFloats(t, dev, &ta, 4); !equalFloats(got, []float32{1, 2, 4, 5}) {
		t.Errorf("static data = %v, want [1 2 4 5]", got)
	}
}

func TestStaticCacheKeptForSibling(t *testing.T) {
	m, dev := newTestManager(t)
	data := i16Bytes(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	buf := newClientBuffer(t, dev, StaticDraw, data)
	state := &DrawState{
		Program: ActiveAttributes(0, 1),
		Attributes: []VertexAttribute{
			{Enabled: true, Type: format.Short, Size: 3, Stride: 12, Buffer: buf},
			{Enabled: true, Type: format.Short, Size: 3, Stride: 12, Offset: 6, Buffer: buf},
		},
	}

	for draw := 0; draw < 2; draw++ {
		out := prepare(t, m, state, 0, 2, 0)
		if out[0].VertexBuffer != buf.StaticVertexBuffer().Handle() {
			t.Errorf("draw %d: first attribute not static", draw)
		}
		if out[1].VertexBuffer != m.streaming.Handle() {
			t.Errorf("draw %d: sibling not streamed", draw)
		}
		if got := readFloats(t, dev, &out[1], 6); !equalFloats(got, []float32{4, 5, 6, 10, 11, 12}) {
			t.Errorf("draw %d: sibling data = %v", draw, got)
		}
	}
	stats := m.Stats()
	if stats.StaticInvalidations != 0 || stats.StaticConversions != 1 || stats.StaticHits != 1 {
		t.Errorf("stats = %v, want one conversion, one hit, no invalidation", stats)
	}
}

func TestStaticCacheSharedBySameLayout(t *testing.T) {
	m, dev := newTestManager(t)
	buf := newClientBuffer(t, dev, StaticDraw, i16Bytes(1, 2, 3, 4, 5, 6))
	attr := VertexAttribute{Enabled: true, Type: format.Short, Size: 3, Buffer: buf}
	state := &DrawState{Program: ActiveAttributes(0, 1), Attributes: []VertexAttribute{attr, attr}}

	out := prepare(t, m, state, 0, 2, 0)
	if out[0].VertexBuffer != out[1].VertexBuffer || out[0].Offset != out[1].Offset {
		t.Error("identical attributes read different data")
	}
	if got := m.Stats().StaticConversions; got != 1 {
		t.Errorf("StaticConversions = %d, want 1", got)
	}
}

func TestStaticCacheDroppedOnDataChange(t *testing.T) {
	m, dev := newTestManager(t)
	buf := newClientBuffer(t, dev, StaticDraw, i16Bytes(1, 2, 3, 4, 5, 6))
	state := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Short, Size: 3, Buffer: buf}},
	}
	prepare(t, m, state, 0, 2, 0)

	if err := buf.SetSubData(6, i16Bytes(-4, -5, -6)); err != nil {
		t.Fatalf("SetSubData: %v", err)
	}
	if buf.StaticVertexBuffer().BufferSize() != 0 {
		t.Error("static cache kept after SetSubData")
	}
	ta := prepare(t, m, state, 0, 2, 0)[0]
	if got := readFloats(t, dev, &ta, 6); !equalFloats(got, []float32{1, 2, 3, -4, -5, -6}) {
		t.Errorf("static data after update = %v", got)
	}
	if got := m.Stats().StaticConversions; got != 2 {
		t.Errorf("StaticConversions = %d, want 2", got)
	}
}

func TestPromoteToStatic(t *testing.T) {
	m, dev := newTestManager(t)
	buf := newClientBuffer(t, dev, DynamicDraw, i16Bytes(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12))
	state := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Short, Size: 3, Buffer: buf}},
	}

	// Each draw streams 24 bytes of a 24-byte buffer; promotion needs more
	// than 72.
	for draw := 0; draw < 3; draw++ {
		prepare(t, m, state, 0, 4, 0)
		if buf.StaticVertexBuffer() != nil {
			t.Fatalf("promoted after %d draws", draw+1)
		}
	}
	prepare(t, m, state, 0, 4, 0)
	if buf.StaticVertexBuffer() == nil {
		t.Fatal("not promoted after 4 draws")
	}
	ta := prepare(t, m, state, 0, 4, 0)[0]
	if ta.VertexBuffer != buf.StaticVertexBuffer().Handle() {
		t.Error("promoted buffer not served from the static cache")
	}
}

func TestPromotionCountsDirectBindings(t *testing.T) {
	m, dev := newTestManager(t)
	buf := newClientBuffer(t, dev, DynamicDraw, f32Bytes(0, 1, 2, 3, 4, 5))
	state := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Float, Size: 2, Buffer: buf}},
	}

	// 24 bytes used per draw from a 24-byte buffer.
	for draw := 0; draw < 3; draw++ {
		prepare(t, m, state, 0, 3, 0)
	}
	if buf.StaticVertexBuffer() != nil {
		t.Fatal("promoted after 3 draws")
	}
	ta := prepare(t, m, state, 0, 3, 0)[0]
	if buf.StaticVertexBuffer() == nil {
		t.Fatal("direct binding usage not counted toward promotion")
	}
	if !ta.IsDirect() {
		t.Error("draw before promotion not bound directly")
	}

	// Direct storage still wins over the new empty cache.
	ta = prepare(t, m, state, 0, 3, 0)[0]
	if !ta.IsDirect() || buf.StaticVertexBuffer().BufferSize() != 0 {
		t.Error("promoted buffer stopped binding directly")
	}
}

func TestPrepareOffsetOverflow(t *testing.T) {
	m, dev := newTestManager(t)
	buf := newClientBuffer(t, dev, DynamicDraw, make([]byte, 64))
	state := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Float, Size: 4, Buffer: buf}},
	}

	_, err := m.PrepareVertexData(state, math.MaxInt32, 1, 0)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("PrepareVertexData() error = %v, want ErrOverflow", err)
	}
	if !errors.Is(err, ErrOutOfMemory) {
		t.Error("ErrOverflow does not wrap ErrOutOfMemory")
	}
}

func TestPrepareStaticOffsetOverflow(t *testing.T) {
	m, dev := newTestManager(t)
	buf := newClientBuffer(t, dev, StaticDraw, i16Bytes(1, 2, 3))
	state := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Short, Size: 3, Buffer: buf}},
	}

	if _, err := m.PrepareVertexData(state, 1<<30, 1, 0); !errors.Is(err, ErrOverflow) {
		t.Errorf("PrepareVertexData() error = %v, want ErrOverflow", err)
	}
}

func TestAddOffsets(t *testing.T) {
	tests := []struct {
		name    string
		base    uint32
		offsets []uint64
		want    uint32
		wantErr bool
	}{
		{"sum", 16, []uint64{32, 64}, 112, false},
		{"max", math.MaxUint32 - 1, []uint64{1}, math.MaxUint32, false},
		{"wraps", math.MaxUint32 - 1, []uint64{1, 1}, 0, true},
		{"huge term", 0, []uint64{1 << 40}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := addOffsets(tt.base, tt.offsets...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("addOffsets() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOverflow) {
				t.Errorf("addOffsets() error = %v, want ErrOverflow", err)
			}
			if got != tt.want {
				t.Errorf("addOffsets() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFailedAllocationKeepsEarlierDraw(t *testing.T) {
	dev, fd := newFailingDevice(t)
	m, err := NewManager(dev, WithInitialStreamingSize(64))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer m.Close()

	small := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Float, Size: 2, Pointer: f32Bytes(1, 2, 3, 4)}},
	}
	ok := prepare(t, m, small, 0, 2, 0)[0]
	before := readBack(t, dev, ok.VertexBuffer, uint64(ok.Offset), 16)

	large := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Float, Size: 4, Pointer: make([]byte, 16*32)}},
	}
	fd.fail = true
	if _, err := m.PrepareVertexData(large, 0, 32, 0); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("PrepareVertexData() error = %v, want ErrOutOfMemory", err)
	}
	if m.streaming.storage.MapState() != gpu.BufferMapStateUnmapped {
		t.Error("streaming buffer left mapped after a failed draw")
	}
	if ok.VertexBuffer != m.streaming.Handle() || ok.Serial != m.streaming.Serial() {
		t.Error("failed draw replaced the storage of the earlier draw")
	}
	if after := readBack(t, dev, ok.VertexBuffer, uint64(ok.Offset), 16); !bytes.Equal(before, after) {
		t.Error("failed draw changed the data of the earlier draw")
	}
	if got := m.Stats().FailedDraws; got != 1 {
		t.Errorf("FailedDraws = %d, want 1", got)
	}

	fd.fail = false
	if _, err := m.PrepareVertexData(large, 0, 32, 0); err != nil {
		t.Fatalf("PrepareVertexData after recovery: %v", err)
	}
}

func TestFailedStoreLeavesNothingMapped(t *testing.T) {
	m, _ := newTestManager(t)
	state := &DrawState{
		Program: ActiveAttributes(0, 1),
		Attributes: []VertexAttribute{
			{Enabled: true, Type: format.Float, Size: 1, Pointer: f32Bytes(1, 2, 3)},
			{Enabled: true, Type: format.Float, Size: 1, Pointer: f32Bytes(1)},
		},
	}

	_, err := m.PrepareVertexData(state, 0, 3, 0)
	if !errors.Is(err, ErrSourceRange) {
		t.Fatalf("PrepareVertexData() error = %v, want ErrSourceRange", err)
	}
	if m.streaming.storage.MapState() != gpu.BufferMapStateUnmapped {
		t.Error("streaming buffer left mapped after a failed store")
	}
	if m.streaming.reservedSpace != 0 {
		t.Errorf("reservation of the failed draw kept: %d bytes", m.streaming.reservedSpace)
	}

	state.Attributes[1].Pointer = f32Bytes(4, 5, 6)
	if _, err := m.PrepareVertexData(state, 0, 3, 0); err != nil {
		t.Fatalf("PrepareVertexData after fix: %v", err)
	}
}

func TestPrepareRejectsInvalidDraws(t *testing.T) {
	m, _ := newTestManager(t, WithMaxVertexAttribs(2))
	state := &DrawState{Program: ActiveAttributes(0), Attributes: make([]VertexAttribute, 1)}

	if _, err := m.PrepareVertexData(state, 0, -1, 0); !errors.Is(err, ErrInvalidDraw) {
		t.Errorf("negative count error = %v, want ErrInvalidDraw", err)
	}
	if _, err := m.PrepareVertexData(state, -1, 1, 0); !errors.Is(err, ErrInvalidDraw) {
		t.Errorf("negative first error = %v, want ErrInvalidDraw", err)
	}
	tooMany := &DrawState{Program: ActiveAttributes(0), Attributes: make([]VertexAttribute, 3)}
	if _, err := m.PrepareVertexData(tooMany, 0, 1, 0); !errors.Is(err, ErrTooManyAttributes) {
		t.Errorf("too many attributes error = %v, want ErrTooManyAttributes", err)
	}

	m.Close()
	m.Close()
	if _, err := m.PrepareVertexData(state, 0, 1, 0); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("closed manager error = %v, want ErrManagerClosed", err)
	}
}

func TestPrepareUnsupportedFormat(t *testing.T) {
	m, _ := newTestManager(t)
	state := &DrawState{
		Program:    ActiveAttributes(0),
		Attributes: []VertexAttribute{{Enabled: true, Type: format.Float, Size: 5, Pointer: make([]byte, 40)}},
	}
	if _, err := m.PrepareVertexData(state, 0, 1, 0); !errors.Is(err, format.ErrUnsupportedFormat) {
		t.Errorf("PrepareVertexData() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestNewManagerNilDevice(t *testing.T) {
	if _, err := NewManager(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewManager(nil) error = %v, want ErrNilDevice", err)
	}
}

func TestStatsString(t *testing.T) {
	s := Stats{Draws: 3, DirectBindings: 2, BytesConverted: 4096}
	want := "VertexData[3 draws (0 failed), 2 direct, 0 static hits, 0 static fills, 0 invalidations, 0 streamed, 0 current values, 4 KB converted, 0 KB streaming buffer]"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
