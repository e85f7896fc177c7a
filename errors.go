package vertexdata

import (
	"errors"
	"fmt"
)

// Errors returned by PrepareVertexData and the buffer types.
var (
	// ErrOutOfMemory is returned when a buffer cannot be allocated, grown or
	// written.
	ErrOutOfMemory = errors.New("vertexdata: out of memory")

	// ErrOverflow is returned when offset arithmetic would exceed 32 bits.
	// It wraps ErrOutOfMemory: callers that only distinguish out-of-memory
	// conditions can keep checking for that.
	ErrOverflow = fmt.Errorf("%w: offset overflow", ErrOutOfMemory)

	// ErrInvariantViolation is returned when a store is attempted without a
	// matching reservation, or a static cache would hold two attributes.
	ErrInvariantViolation = errors.New("vertexdata: invariant violation")

	// ErrSourceRange is returned when an attribute reads outside its source
	// bytes.
	ErrSourceRange = errors.New("vertexdata: attribute source out of range")

	// ErrBufferRange is returned when a client buffer update falls outside
	// the buffer.
	ErrBufferRange = errors.New("vertexdata: buffer range out of bounds")

	// ErrNilDevice is returned when a device, queue or provider is missing.
	ErrNilDevice = errors.New("vertexdata: nil device")

	// ErrTooManyAttributes is returned when a draw has more attributes than
	// the manager supports.
	ErrTooManyAttributes = errors.New("vertexdata: too many vertex attributes")

	// ErrInvalidDraw is returned for negative or oversized draw parameters.
	ErrInvalidDraw = errors.New("vertexdata: invalid draw parameters")

	// ErrManagerClosed is returned when using a closed manager.
	ErrManagerClosed = errors.New("vertexdata: manager closed")
)
