package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/1ureka/rxrelay/internal/packet"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown device", func(c *Config) { c.Device = "tap" }, "invalid device"},
		{"unknown role", func(c *Config) { c.Device = DevicePeer; c.Role = "relay" }, "invalid role"},
		{"client without URL", func(c *Config) { c.Device = DevicePeer; c.Role = RoleClient }, "missing WebSocket URL"},
		{"pcap without interface", func(c *Config) { c.Device = DevicePCAP }, "missing interface"},
		{"zero tx index", func(c *Config) { c.TxIndex = 0 }, "invalid transmit index"},
		{"MTU too large", func(c *Config) { c.MTU = packet.MaxFrameSize + 1 }, "invalid MTU"},
		{"MTU zero", func(c *Config) { c.MTU = 0 }, "invalid MTU"},
		{"negative memory", func(c *Config) { c.MemoryLimit = -1 }, "invalid memory limit"},
		{"memory below one frame", func(c *Config) { c.MemoryLimit = 100 }, "invalid memory limit"},
		{"echo on loopback", func(c *Config) { c.Echo = true }, "echo is not supported"},
		{"peer tx index 2", func(c *Config) { c.Device = DevicePeer; c.TxIndex = 2 }, "peer device serves only 1"},
		{"pcap tx index 2", func(c *Config) { c.Device = DevicePCAP; c.Interface = "eth0"; c.TxIndex = 2 }, "pcap device serves only 1"},
		{"loopback tx index 2", func(c *Config) { c.TxIndex = 2 }, ""},
		{"echo on peer", func(c *Config) { c.Device = DevicePeer; c.Echo = true }, ""},
		{"ok client", func(c *Config) { c.Device = DevicePeer; c.Role = RoleClient; c.WSURL = "ws://h/ws" }, ""},
		{"ok pcap", func(c *Config) { c.Device = DevicePCAP; c.Interface = "eth0" }, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestRelayOptions(t *testing.T) {
	c := Default()
	c.MTU = 600
	c.MemoryLimit = 1 << 20

	opts := c.RelayOptions()
	assert.Equal(t, 600, opts.ConsumerMTU)
	assert.Equal(t, int64(1<<20), opts.MemoryLimit)
	assert.Equal(t, c.TxIndex, opts.TxIndex)
}
