package packet_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/rxrelay/internal/packet"
)

// makeFrame generates deterministic frame bytes of the given size.
func makeFrame(size int, seed byte) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i%251) ^ seed
	}
	return data
}

// TestNewRoundTrip verifies that the stored bytes and length reproduce the
// source exactly for lengths up to MaxFrameSize.
func TestNewRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 3, 60, 1000, packet.MaxFrameSize - 1, packet.MaxFrameSize}

	for _, size := range sizes {
		raw := makeFrame(size, byte(size))

		p, err := packet.New(raw, size)
		require.NoError(t, err, "size %d", size)

		assert.Equal(t, size, p.Len())
		assert.True(t, bytes.Equal(raw, p.Buffer()), "size %d: payload mismatch", size)
	}
}

// TestNewCopiesSource ensures the packet does not alias the caller's slice,
// since drivers reuse their receive buffers.
func TestNewCopiesSource(t *testing.T) {
	raw := []byte{0xAA, 0xBB, 0xCC}
	p, err := packet.New(raw, len(raw))
	require.NoError(t, err)

	raw[0] = 0x00
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, p.Buffer())
}

// TestNewPartialLength stores only the declared prefix of the source.
func TestNewPartialLength(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5}
	p, err := packet.New(raw, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, p.Buffer())
}

func TestNewCapacityExceeded(t *testing.T) {
	for _, size := range []int{packet.MaxFrameSize + 1, 2000, 9000} {
		p, err := packet.New(make([]byte, size), size)
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, packet.ErrCapacityExceeded), "size %d: got %v", size, err)
	}
}

func TestNewInvalidLength(t *testing.T) {
	testCases := []struct {
		name   string
		raw    []byte
		length int
	}{
		{"negative", []byte{1, 2, 3}, -1},
		{"longer than source", []byte{1, 2, 3}, 4},
		{"nil source", nil, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := packet.New(tc.raw, tc.length)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, packet.ErrInvalidLength)
		})
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	p, err := packet.New([]byte{1, 2, 3}, 3)
	require.NoError(t, err)

	p.Release()
	p.Release()

	assert.Nil(t, p.Buffer())
	assert.Equal(t, 0, p.Len())
}
