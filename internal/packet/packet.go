// Package packet defines the owned frame buffer that travels from a driver's
// receive callback, through the relay queue, to the consumer loop.
package packet

import "fmt"

// MaxFrameSize is the capacity of every packet buffer: the largest Ethernet
// frame without FCS (14-byte header + 1500-byte payload).
const MaxFrameSize = 1514

// buffer is the fixed backing store owned by a single Packet.
type buffer = [MaxFrameSize]byte

// Packet holds one received frame. Its contents never change after
// construction; ownership moves from the producer to the queue and then to
// the consumer, which must call Release once done with it.
type Packet struct {
	buf  *buffer
	n    int
	pool *Pool // nil for packets built with New
}

// New copies raw[:length] into a freshly allocated Packet.
func New(raw []byte, length int) (*Packet, error) {
	if err := validate(raw, length); err != nil {
		return nil, err
	}

	p := &Packet{buf: new(buffer), n: length}
	copy(p.buf[:], raw[:length])
	return p, nil
}

// validate enforces the construction contract shared by New and Pool.New.
func validate(raw []byte, length int) error {
	if length > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCapacityExceeded, length, MaxFrameSize)
	}
	if length < 0 || length > len(raw) {
		return fmt.Errorf("%w: %d (source holds %d bytes)", ErrInvalidLength, length, len(raw))
	}
	return nil
}

// Buffer returns the valid bytes of the frame. The slice aliases the
// packet's storage and is nil after Release.
func (p *Packet) Buffer() []byte {
	if p.buf == nil {
		return nil
	}
	return p.buf[:p.n]
}

// Len returns the number of valid bytes.
func (p *Packet) Len() int { return p.n }

// Release hands the buffer back to its pool (if any). Calling it more than
// once is a no-op.
func (p *Packet) Release() {
	if p.buf == nil {
		return
	}
	if p.pool != nil {
		p.pool.put(p.buf)
	}
	p.buf = nil
	p.n = 0
}
