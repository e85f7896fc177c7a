package vertexdata

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// newTestDevice wraps a noop device that is released with the test.
func newTestDevice(t *testing.T, opts ...DeviceOption) *Device {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	dev, err := NewDevice(device, queue, opts...)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	return dev
}

// newTestManager creates a manager on a fresh noop device.
func newTestManager(t *testing.T, opts ...Option) (*Manager, *Device) {
	t.Helper()
	dev := newTestDevice(t)
	m, err := NewManager(dev, opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(m.Close)
	return m, dev
}

// errAllocation is returned by failingDevice.
var errAllocation = errors.New("test: allocation refused")

// failingDevice refuses buffer creation while fail is set.
type failingDevice struct {
	hal.Device
	fail bool
}

func (d *failingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if d.fail {
		return nil, errAllocation
	}
	return d.Device.CreateBuffer(desc)
}

// newFailingDevice wraps a noop device whose allocations can be refused.
func newFailingDevice(t *testing.T) (*Device, *failingDevice) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	fd := &failingDevice{Device: device}
	dev, err := NewDevice(fd, queue)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	return dev, fd
}

// readBack returns a copy of n bytes at offset of raw.
func readBack(t *testing.T, dev *Device, raw hal.Buffer, offset, n uint64) []byte {
	t.Helper()
	if raw == nil {
		t.Fatal("readBack: nil buffer")
	}
	m, err := dev.device.MapBuffer(raw, offset, n)
	if err != nil {
		t.Fatalf("MapBuffer: %v", err)
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(m.Ptr), n))
	if err := dev.device.UnmapBuffer(raw); err != nil {
		t.Fatalf("UnmapBuffer: %v", err)
	}
	return out
}

// readFloats reads n float32 values the translated attribute points at.
func readFloats(t *testing.T, dev *Device, ta *TranslatedAttribute, n int) []float32 {
	t.Helper()
	b := readBack(t, dev, ta.VertexBuffer, uint64(ta.Offset), uint64(4*n))
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func f32Bytes(vs ...float32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func i16Bytes(vs ...int16) []byte {
	b := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func equalFloats(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
