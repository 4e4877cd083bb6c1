// Package poll is a minimal consumer loop: it pulls frames from the relay one
// at a time and hands them to a handler, idling when nothing is queued.
package poll

import (
	"context"
	"time"
)

// DefaultIdle is how long Run waits after finding the queue empty.
const DefaultIdle = 5 * time.Millisecond

// Source is the consumer side of the relay.
type Source interface {
	// Receive copies one frame into dst and returns its length, or 0 if none
	// is available.
	Receive(dst []byte) int
}

// Handler processes one frame. frame aliases the loop's buffer and is only
// valid during the call.
type Handler func(frame []byte)

// Run polls src until ctx is cancelled. Frames are drained back to back;
// after an empty poll the loop sleeps for idle before trying again.
func Run(ctx context.Context, src Source, bufSize int, idle time.Duration, fn Handler) error {
	if idle <= 0 {
		idle = DefaultIdle
	}
	buf := make([]byte, bufSize)

	ticker := time.NewTicker(idle)
	defer ticker.Stop()

	for {
		for {
			n := src.Receive(buf)
			if n == 0 {
				break
			}
			fn(buf[:n])

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
