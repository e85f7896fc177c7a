package vertexdata

// Default manager limits.
const (
	// DefaultStreamingBufferSize is the initial size of the shared
	// streaming buffer.
	DefaultStreamingBufferSize = 1 << 20

	// DefaultConstantBufferSize is the size of each current-value buffer.
	DefaultConstantBufferSize = 4096

	// DefaultMaxVertexAttribs is the number of attribute slots a draw may use.
	DefaultMaxVertexAttribs = 16
)

// Option configures a Manager during creation.
//
// Example:
//
//	m, err := vertexdata.NewManager(dev,
//	    vertexdata.WithInitialStreamingSize(4<<20),
//	    vertexdata.WithMaxVertexAttribs(32))
type Option func(*managerOptions)

// managerOptions holds optional configuration for Manager creation.
type managerOptions struct {
	initialStreamingSize uint64
	constantBufferSize   uint64
	maxVertexAttribs     int
}

// defaultOptions returns the default manager options.
func defaultOptions() managerOptions {
	return managerOptions{
		initialStreamingSize: DefaultStreamingBufferSize,
		constantBufferSize:   DefaultConstantBufferSize,
		maxVertexAttribs:     DefaultMaxVertexAttribs,
	}
}

// WithInitialStreamingSize sets the initial size of the streaming buffer.
// The buffer grows on demand.
func WithInitialStreamingSize(size uint64) Option {
	return func(o *managerOptions) {
		if size > 0 {
			o.initialStreamingSize = size
		}
	}
}

// WithConstantBufferSize sets the size of each current-value buffer.
// It must hold at least one 16-byte value.
func WithConstantBufferSize(size uint64) Option {
	return func(o *managerOptions) {
		o.constantBufferSize = max(size, reservationAlignment)
	}
}

// WithMaxVertexAttribs sets the number of attribute slots.
func WithMaxVertexAttribs(n int) Option {
	return func(o *managerOptions) {
		if n > 0 {
			o.maxVertexAttribs = n
		}
	}
}
