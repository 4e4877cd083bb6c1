package packet_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/rxrelay/internal/packet"
)

func TestPoolRoundTrip(t *testing.T) {
	pool := packet.NewPool(0)
	raw := makeFrame(512, 7)

	p, err := pool.New(raw, len(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, p.Buffer())
	assert.Equal(t, int64(packet.MaxFrameSize), pool.InUse())

	p.Release()
	assert.Equal(t, int64(0), pool.InUse())
}

func TestPoolLimit(t *testing.T) {
	assert.Equal(t, int64(0), packet.NewPool(0).Limit())
	assert.Equal(t, int64(4096), packet.NewPool(4096).Limit())
}

// TestPoolBudget checks that the budget rejects allocations once exhausted
// and recovers after packets are released.
func TestPoolBudget(t *testing.T) {
	pool := packet.NewPool(2 * packet.MaxFrameSize)
	raw := makeFrame(64, 1)

	p1, err := pool.New(raw, len(raw))
	require.NoError(t, err)
	p2, err := pool.New(raw, len(raw))
	require.NoError(t, err)

	_, err = pool.New(raw, len(raw))
	require.ErrorIs(t, err, packet.ErrOutOfMemory)

	p1.Release()
	p3, err := pool.New(raw, len(raw))
	require.NoError(t, err)

	p2.Release()
	p3.Release()
	assert.Equal(t, int64(0), pool.InUse())
}

// TestPoolValidationDoesNotReserve ensures rejected frames leave the budget
// untouched.
func TestPoolValidationDoesNotReserve(t *testing.T) {
	pool := packet.NewPool(packet.MaxFrameSize)

	_, err := pool.New(make([]byte, 2000), 2000)
	require.ErrorIs(t, err, packet.ErrCapacityExceeded)
	assert.Equal(t, int64(0), pool.InUse())

	_, err = pool.New(make([]byte, 10), 10)
	require.NoError(t, err)
}

// TestPoolRecycledBufferIsTrimmed verifies a recycled buffer never leaks
// bytes from its previous owner.
func TestPoolRecycledBufferIsTrimmed(t *testing.T) {
	pool := packet.NewPool(0)

	big, err := pool.New(makeFrame(1000, 3), 1000)
	require.NoError(t, err)
	big.Release()

	small, err := pool.New([]byte{0xAA, 0xBB, 0xCC}, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, small.Buffer())
}

func TestPoolConcurrentBudget(t *testing.T) {
	const limit = 8
	pool := packet.NewPool(limit * packet.MaxFrameSize)
	raw := makeFrame(100, 9)

	var (
		mu   sync.Mutex
		live []*packet.Packet
		wg   sync.WaitGroup
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p, err := pool.New(raw, len(raw)); err == nil {
				mu.Lock()
				live = append(live, p)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, live, limit)
	for _, p := range live {
		p.Release()
	}
	assert.Equal(t, int64(0), pool.InUse())
}
