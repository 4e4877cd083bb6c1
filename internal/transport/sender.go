package transport

import (
	"context"

	"github.com/1ureka/rxrelay/internal/protocol"
	"github.com/1ureka/rxrelay/internal/util"
	"github.com/pion/webrtc/v4"
)

const (
	highWaterMark  = 256 * 1024 // pause sending when bufferedAmount exceeds this
	lowWaterMark   = 64 * 1024  // resume sending when bufferedAmount drops below this
	sendBufferSize = 256        // outgoing message channel capacity
)

// sender is the single writer to the DataChannel. It waits for the channel
// to open and pauses while the SCTP buffer is above the high water mark.
type sender struct {
	inbox       chan *protocol.Message
	drainSignal chan struct{}
}

// newSender creates a sender, wires the backpressure callbacks on dc, and
// starts the background loop. The loop exits when ctx is cancelled.
func newSender(ctx context.Context, dc *webrtc.DataChannel, openSignal <-chan struct{}) *sender {
	s := &sender{
		inbox:       make(chan *protocol.Message, sendBufferSize),
		drainSignal: make(chan struct{}, 1),
	}

	dc.SetBufferedAmountLowThreshold(uint64(lowWaterMark))
	dc.OnBufferedAmountLow(func() {
		select {
		case s.drainSignal <- struct{}{}:
		default:
		}
	})

	go s.loop(ctx, dc, openSignal)

	return s
}

func (s *sender) loop(ctx context.Context, dc *webrtc.DataChannel, openSignal <-chan struct{}) {
	select {
	case <-openSignal:
	case <-ctx.Done():
		return
	}

	for {
		select {
		case msg := <-s.inbox:
			if dc.BufferedAmount() > uint64(highWaterMark) {
				select {
				case <-s.drainSignal:
				case <-ctx.Done():
					return
				}
			}

			if err := dc.Send(protocol.Encode(msg)); err != nil {
				util.LogError("failed to send message (type=%d, if=%d): %v", msg.Type, msg.IfIndex, err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// trySend queues msg without blocking. It reports false when the inbox is
// full; the caller drops the frame.
func (s *sender) trySend(msg *protocol.Message) bool {
	select {
	case s.inbox <- msg:
		return true
	default:
		return false
	}
}
