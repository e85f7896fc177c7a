package replay

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/vertexdata"
)

// NewNoopDevice opens the in-memory noop backend. The returned function
// releases it.
func NewNoopDevice() (*vertexdata.Device, func(), error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("replay: create noop instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, fmt.Errorf("replay: noop backend has no adapter")
	}
	opened, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("replay: open noop adapter: %w", err)
	}
	release := func() {
		opened.Device.Destroy()
		instance.Destroy()
	}
	dev, err := vertexdata.NewDevice(opened.Device, opened.Queue)
	if err != nil {
		release()
		return nil, nil, err
	}
	return dev, release, nil
}
