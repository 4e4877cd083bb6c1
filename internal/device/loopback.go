package device

import (
	"context"
	"net"
	"sync"
)

// loopbackBacklog bounds frames in flight between Transmit and delivery.
const loopbackBacklog = 1024

type loopbackFrame struct {
	ifIndex int
	data    []byte
}

// Loopback is an in-memory driver. Frames passed to Transmit or Inject are
// delivered to the rx callback from a dedicated goroutine, the way a real
// driver calls back from its interrupt path.
type Loopback struct {
	count int

	mu sync.RWMutex
	rx RxCallback

	frames    chan loopbackFrame
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoopback creates a loopback driver serving device indexes 1..count.
// The delivery goroutine stops when ctx is cancelled or Close is called.
func NewLoopback(ctx context.Context, count int) *Loopback {
	if count < 1 {
		count = 1
	}
	lctx, cancel := context.WithCancel(ctx)

	l := &Loopback{
		count:  count,
		frames: make(chan loopbackFrame, loopbackBacklog),
		ctx:    lctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go l.deliver()
	return l
}

func (l *Loopback) deliver() {
	defer close(l.done)

	for {
		select {
		case f := <-l.frames:
			l.mu.RLock()
			rx := l.rx
			l.mu.RUnlock()

			if rx != nil {
				rx(f.ifIndex, f.data, len(f.data))
			}
		case <-l.ctx.Done():
			return
		}
	}
}

// RegisterRxCallback implements Driver.
func (l *Loopback) RegisterRxCallback(fn RxCallback) {
	l.mu.Lock()
	l.rx = fn
	l.mu.Unlock()
}

// Transmit implements Driver: the frame comes back in on the same index.
func (l *Loopback) Transmit(ifIndex int, frame []byte) error {
	return l.Inject(ifIndex, frame)
}

// Inject simulates a frame arriving from the wire on ifIndex.
func (l *Loopback) Inject(ifIndex int, frame []byte) error {
	if ifIndex < 1 || ifIndex > l.count {
		return noSuchDevice(ifIndex)
	}

	select {
	case <-l.ctx.Done():
		return ErrClosed
	default:
	}

	data := make([]byte, len(frame))
	copy(data, frame)

	select {
	case l.frames <- loopbackFrame{ifIndex: ifIndex, data: data}:
		return nil
	default:
		return ErrTxBusy
	}
}

// HardwareAddr implements Driver with a fixed, locally administered address
// derived from the index.
func (l *Loopback) HardwareAddr(ifIndex int) (net.HardwareAddr, error) {
	if ifIndex < 1 || ifIndex > l.count {
		return nil, noSuchDevice(ifIndex)
	}
	return net.HardwareAddr{0x02, 0x00, 0x00, 0x00, byte(ifIndex >> 8), byte(ifIndex)}, nil
}

// Close stops delivery. Frames still in flight are discarded.
func (l *Loopback) Close() error {
	l.closeOnce.Do(func() {
		l.cancel()
		<-l.done
	})
	return nil
}
