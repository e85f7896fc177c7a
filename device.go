package vertexdata

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vertexdata/format"
	"github.com/gogpu/vertexdata/internal/gpu"
)

// Device is the backend every buffer of this package allocates from. It
// pairs a hal device and queue with the format policy used to plan
// attribute conversions.
type Device struct {
	device hal.Device
	queue  hal.Queue
	policy format.Policy
}

// DeviceOption configures a Device.
type DeviceOption func(*Device)

// WithFormatPolicy sets the conversion policy. The default is the WebGPU
// policy memoised by format.NewCachedPolicy.
func WithFormatPolicy(p format.Policy) DeviceOption {
	return func(d *Device) {
		if p != nil {
			d.policy = p
		}
	}
}

// NewDevice wraps a hal device and queue.
func NewDevice(device hal.Device, queue hal.Queue, opts ...DeviceOption) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	d := &Device{
		device: device,
		queue:  queue,
		policy: format.NewCachedPolicy(format.WebGPUPolicy(), format.DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewDeviceFromProvider wraps the device of a gpucontext provider, such as
// a gogpu application. The provider must either hand out hal types directly
// or also implement HalDevice() any and HalQueue() any.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider, opts ...DeviceOption) (*Device, error) {
	if provider == nil {
		return nil, ErrNilDevice
	}
	var device, queue any = provider.Device(), provider.Queue()

	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if hp, ok := provider.(halProvider); ok {
		device, queue = hp.HalDevice(), hp.HalQueue()
	}

	hd, ok := device.(hal.Device)
	if !ok || hd == nil {
		return nil, fmt.Errorf("%w: provider device %T is not hal.Device", ErrNilDevice, device)
	}
	hq, ok := queue.(hal.Queue)
	if !ok || hq == nil {
		return nil, fmt.Errorf("%w: provider queue %T is not hal.Queue", ErrNilDevice, queue)
	}
	return NewDevice(hd, hq, opts...)
}

// Policy returns the conversion policy.
func (d *Device) Policy() format.Policy { return d.policy }

// createBuffer allocates vertex storage, reporting failures as out of memory.
func (d *Device) createBuffer(label string, size uint64) (*gpu.Buffer, error) {
	b, err := gpu.CreateBuffer(d.device, d.queue, gpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gpu.VertexUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: allocate %s (%d bytes): %w", ErrOutOfMemory, label, size, err)
	}
	return b, nil
}
