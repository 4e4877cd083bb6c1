package main

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/rxrelay/internal/config"
	"github.com/1ureka/rxrelay/internal/device"
	"github.com/1ureka/rxrelay/internal/packet"
	"github.com/1ureka/rxrelay/internal/util"
)

func init() {
	util.Mute()
}

func TestNormalizeWSURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"example.devtunnels.ms", "wss://example.devtunnels.ms/ws"},
		{"ws://127.0.0.1:8080", "ws://127.0.0.1:8080/ws"},
		{"https://host.example/other/path", "wss://host.example/ws"},
		{"  wss://host.example/ws?pin=4821 ", "wss://host.example/ws?pin=4821"},
	}

	for _, c := range cases {
		got, err := normalizeWSURL(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestNormalizeWSURLInvalid(t *testing.T) {
	for _, in := range []string{"", "wss://", "://bad"} {
		_, err := normalizeWSURL(in)
		assert.Error(t, err, in)
	}
}

func TestWSAddr(t *testing.T) {
	assert.Equal(t, ":0", wsAddr(0, false))
	assert.Equal(t, "127.0.0.1:9000", wsAddr(9000, false))
	assert.Equal(t, ":9000", wsAddr(9000, true))
}

// countingDriver counts every frame the relay transmits.
type countingDriver struct {
	*device.Loopback
	transmits atomic.Int64
}

func (d *countingDriver) Transmit(ifIndex int, frame []byte) error {
	d.transmits.Add(1)
	return d.Loopback.Transmit(ifIndex, frame)
}

// TestRunLoopbackEchoDoesNotLoop checks that a frame received on the loopback
// device with echo requested is not sent back into the same device.
func TestRunLoopbackEchoDoesNotLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	drv := &countingDriver{Loopback: device.NewLoopback(ctx, 1)}
	defer drv.Close()

	cfg := config.Default()
	cfg.Echo = true
	cfg.StatsInterval = 0

	go func() {
		time.Sleep(50 * time.Millisecond)
		drv.Inject(1, make([]byte, 60))
	}()
	time.AfterFunc(300*time.Millisecond, cancel)

	require.NoError(t, run(ctx, cfg, drv))
	assert.Equal(t, int64(0), drv.transmits.Load())
}

func TestSentBy(t *testing.T) {
	own := net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
	other := net.HardwareAddr{0x02, 0, 0, 0, 0, 0x02}

	frame := make([]byte, 60)
	copy(frame[0:6], other)
	copy(frame[6:12], own)

	assert.True(t, sentBy(frame, own))
	assert.False(t, sentBy(frame, other))
	assert.False(t, sentBy(frame[:8], own))
}

func TestMemoryBudget(t *testing.T) {
	assert.Equal(t, "unlimited", memoryBudget(0))
	assert.Equal(t, "15140 bytes (10 frames)", memoryBudget(10*packet.MaxFrameSize))
}
