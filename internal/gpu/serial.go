package gpu

import "sync/atomic"

var serialCounter atomic.Uint64

// NextSerial returns a new process-wide serial. Serials start at 1, so 0
// never identifies a live buffer.
func NextSerial() uint64 {
	return serialCounter.Add(1)
}
