// Package vertexdata translates vertex attribute state into GPU vertex
// buffers for a WebGPU HAL device.
//
// # Overview
//
// For every draw, a Manager decides per active attribute where the GPU
// reads it from:
//
//   - Direct storage: the attribute's client buffer is bound unmodified
//     when its layout is a native vertex format and suitably aligned.
//   - Static cache: the attribute is converted once into a StaticBuffer
//     attached to its client buffer and reused until the data or layout
//     changes.
//   - Streaming: the attribute is converted into the shared
//     StreamingBuffer every draw.
//
// Disabled attributes read their current value from a small per-slot
// buffer that is rewritten only when the value changes.
//
// # Quick Start
//
//	dev, err := vertexdata.NewDevice(halDevice, halQueue)
//	if err != nil {
//	    return err
//	}
//	m, err := vertexdata.NewManager(dev)
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	positions := dev.NewClientBuffer(vertexdata.StaticDraw)
//	_ = positions.SetData(data)
//
//	state := &vertexdata.DrawState{
//	    Program: vertexdata.ActiveAttributes(0, 1),
//	    Attributes: []vertexdata.VertexAttribute{
//	        {Enabled: true, Type: format.Float, Size: 3, Buffer: positions},
//	        {Type: format.Float, Size: 4}, // current value
//	    },
//	    CurrentValues: []vertexdata.CurrentValue{{}, vertexdata.FloatValue(1, 0, 0, 1)},
//	}
//	translated, err := m.PrepareVertexData(state, 0, vertexCount, 0)
//
// Each TranslatedAttribute names the hal buffer, offset, stride and
// destination format to bind.
//
// # Buffer Lifetime
//
// Space for every streamed attribute of a draw is reserved before any data
// is written, so growing or discarding the streaming buffer never destroys
// data of the same draw. Serials identify buffer contents: a changed
// serial means previously recorded bindings must be refreshed.
//
// # Errors
//
// A failed draw returns an error wrapping one of the sentinel errors of
// this package, leaves nothing mapped and keeps the results of earlier
// draws valid. Offset overflow is reported as ErrOverflow, which also
// matches ErrOutOfMemory.
//
// # Concurrency
//
// Manager and ClientBuffer are not safe for concurrent use. SetLogger and
// Logger may be called from any goroutine.
package vertexdata
