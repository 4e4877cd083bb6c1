package packet

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Pool recycles packet buffers and enforces an optional memory budget.
// Every live packet reserves MaxFrameSize bytes of the budget regardless of
// its length, since it owns a full buffer.
//
// A Pool is safe for concurrent use.
type Pool struct {
	limit int64 // 0 = unlimited
	inUse atomic.Int64
	bufs  sync.Pool
}

// NewPool creates a pool. limit is the maximum number of bytes that may be
// held by live packets at once; 0 disables the budget.
func NewPool(limit int64) *Pool {
	return &Pool{
		limit: limit,
		bufs: sync.Pool{
			New: func() any { return new(buffer) },
		},
	}
}

// New builds a packet from raw[:length], drawing its buffer from the pool.
// It fails with ErrOutOfMemory when the budget cannot cover another buffer.
func (p *Pool) New(raw []byte, length int) (*Packet, error) {
	if err := validate(raw, length); err != nil {
		return nil, err
	}

	if !p.reserve() {
		return nil, fmt.Errorf("%w: %d of %d bytes held by queued packets", ErrOutOfMemory, p.inUse.Load(), p.limit)
	}

	buf := p.bufs.Get().(*buffer)
	copy(buf[:], raw[:length])

	return &Packet{buf: buf, n: length, pool: p}, nil
}

// InUse returns the number of bytes currently reserved by live packets.
func (p *Pool) InUse() int64 { return p.inUse.Load() }

// Limit returns the configured budget (0 = unlimited).
func (p *Pool) Limit() int64 { return p.limit }

func (p *Pool) reserve() bool {
	for {
		cur := p.inUse.Load()
		if p.limit > 0 && cur+MaxFrameSize > p.limit {
			return false
		}
		if p.inUse.CompareAndSwap(cur, cur+MaxFrameSize) {
			return true
		}
	}
}

func (p *Pool) put(buf *buffer) {
	p.bufs.Put(buf)
	p.inUse.Add(-MaxFrameSize)
}
