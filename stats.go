package vertexdata

import "fmt"

// Stats counts what a Manager did since it was created.
type Stats struct {
	Draws       uint64
	FailedDraws uint64

	// DirectBindings counts attributes bound from client storage.
	DirectBindings uint64
	// StaticHits counts attributes served from a filled static cache.
	StaticHits uint64
	// StaticConversions counts static cache fills.
	StaticConversions uint64
	// StaticInvalidations counts caches dropped for a layout mismatch.
	StaticInvalidations uint64
	// StreamedAttributes counts attributes written to the streaming buffer.
	StreamedAttributes uint64
	// CurrentValueUploads counts current values written to their slot.
	CurrentValueUploads uint64

	BytesConverted      uint64
	StreamingBufferSize uint64
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("VertexData[%d draws (%d failed), %d direct, %d static hits, %d static fills, %d invalidations, %d streamed, %d current values, %d KB converted, %d KB streaming buffer]",
		s.Draws, s.FailedDraws,
		s.DirectBindings,
		s.StaticHits,
		s.StaticConversions,
		s.StaticInvalidations,
		s.StreamedAttributes,
		s.CurrentValueUploads,
		s.BytesConverted/1024,
		s.StreamingBufferSize/1024)
}
