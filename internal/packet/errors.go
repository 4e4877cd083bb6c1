package packet

import "errors"

// Errors reported while building or delivering a packet. None of them is
// fatal: the relay logs them and drops the frame.
var (
	// ErrCapacityExceeded means the source frame does not fit in MaxFrameSize.
	ErrCapacityExceeded = errors.New("frame too large")

	// ErrOutOfMemory means the pool's memory budget is exhausted.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrDestinationTooSmall means a queued packet is longer than the
	// consumer's buffer.
	ErrDestinationTooSmall = errors.New("destination buffer too small")

	// ErrInvalidLength means the declared length is negative or larger than
	// the source slice.
	ErrInvalidLength = errors.New("invalid frame length")
)
