package relay

import (
	"errors"
	"fmt"

	"github.com/1ureka/rxrelay/internal/packet"
	"github.com/1ureka/rxrelay/internal/util"
)

// DefaultTxIndex is the device index transmitted frames go to unless
// configured otherwise.
const DefaultTxIndex = 1

// Transmitter is the driver's transmit path.
type Transmitter interface {
	Transmit(ifIndex int, frame []byte) error
}

// Options tunes a Relay. The zero value is usable.
type Options struct {
	// TxIndex is the fixed device index used by Send. Zero means DefaultTxIndex.
	TxIndex int

	// ConsumerMTU is the consumer's buffer size. When set, frames longer than
	// it are dropped at ingestion instead of occupying the queue.
	ConsumerMTU int

	// MemoryLimit bounds the bytes held by queued packets (0 = unlimited).
	MemoryLimit int64
}

// Relay connects a driver to a polling consumer. OnFrameReceived is the
// producer side and may be called from any goroutine; Receive and Send are
// the consumer side.
type Relay struct {
	queue   *Queue
	pool    *packet.Pool
	tx      Transmitter
	txIndex int
	mtu     int

	stats Stats
}

// New creates a Relay around q. tx may be nil, in which case Send only
// counts errors.
func New(q *Queue, tx Transmitter, opts Options) *Relay {
	txIndex := opts.TxIndex
	if txIndex == 0 {
		txIndex = DefaultTxIndex
	}

	return &Relay{
		queue:   q,
		pool:    packet.NewPool(opts.MemoryLimit),
		tx:      tx,
		txIndex: txIndex,
		mtu:     opts.ConsumerMTU,
	}
}

// Queue returns the queue shared by both sides.
func (r *Relay) Queue() *Queue { return r.queue }

// Pool returns the allocator packets are drawn from.
func (r *Relay) Pool() *packet.Pool { return r.pool }

// Stats returns the relay's live counters.
func (r *Relay) Stats() *Stats { return &r.stats }

// ---------------------------------------------------------------------------
// Producer side
// ---------------------------------------------------------------------------

// OnFrameReceived copies raw[:length] into a packet and queues it. Failures
// are logged and counted, never returned: the driver calling it has no way
// to handle them. Its signature matches device.RxCallback.
func (r *Relay) OnFrameReceived(ifIndex int, raw []byte, length int) {
	if r.mtu > 0 && length > r.mtu && length <= len(raw) {
		r.stats.DroppedTooBig.Add(1)
		util.LogWarning("[if%d] frame too large: dropping %d bytes (consumer MTU is %d)", ifIndex, length, r.mtu)
		return
	}

	p, err := r.pool.New(raw, length)
	if err != nil {
		switch {
		case errors.Is(err, packet.ErrOutOfMemory):
			r.stats.DroppedNoMem.Add(1)
			util.LogError("[if%d] out of memory: %v", ifIndex, err)
		default:
			r.stats.DroppedTooBig.Add(1)
			util.LogWarning("[if%d] frame too large: %v", ifIndex, err)
		}
		return
	}

	r.queue.Enqueue(p)
	r.stats.Queued.Add(1)
	r.stats.BytesIn.Add(int64(length))
}

// ---------------------------------------------------------------------------
// Consumer side
// ---------------------------------------------------------------------------

// Receive copies the oldest queued frame into dst and returns its length.
// It returns 0 without blocking when the queue is empty, or when the frame
// is longer than len(dst); in that case the frame is discarded, not requeued.
func (r *Relay) Receive(dst []byte) int {
	p, ok := r.queue.Dequeue()
	if !ok {
		return 0
	}
	defer p.Release()

	n := p.Len()
	if n > len(dst) {
		r.stats.DroppedReceive.Add(1)
		util.LogWarning("dropping packet: %v", fmt.Errorf("%w: packet is %d bytes, buffer holds %d", packet.ErrDestinationTooSmall, n, len(dst)))
		return 0
	}

	copy(dst, p.Buffer())
	r.stats.Delivered.Add(1)
	r.stats.BytesOut.Add(int64(n))
	return n
}

// Send hands frame to the driver's transmit path for the configured device
// index. Errors are the driver's concern; they are logged and counted only.
func (r *Relay) Send(frame []byte) {
	if r.tx == nil {
		r.stats.TxErrors.Add(1)
		return
	}

	if err := r.tx.Transmit(r.txIndex, frame); err != nil {
		r.stats.TxErrors.Add(1)
		util.LogDebug("[if%d] transmit failed: %v", r.txIndex, err)
		return
	}
	r.stats.Sent.Add(1)
}
