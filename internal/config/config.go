// Package config holds the runtime configuration gathered from CLI flags or
// interactive prompts.
package config

import (
	"fmt"
	"time"

	"github.com/1ureka/rxrelay/internal/device"
	"github.com/1ureka/rxrelay/internal/packet"
	"github.com/1ureka/rxrelay/internal/relay"
)

// DeviceKind selects the driver the relay runs on.
type DeviceKind string

const (
	DeviceLoopback DeviceKind = "loopback"
	DevicePeer     DeviceKind = "peer"
	DevicePCAP     DeviceKind = "pcap"
)

// Role selects the signaling side of a peer device.
type Role string

const (
	RoleHost   Role = "host"
	RoleClient Role = "client"
)

// Config stores every runtime parameter.
type Config struct {
	Device DeviceKind

	// Peer device
	Role      Role
	WSAddr    string // Host: listen address for the signaling server
	WSURL     string // Client: WebSocket URL to connect to
	PINDigits int    // Host: length of the signaling PIN

	// PCAP device
	Interface string
	Filter    string // optional BPF expression

	// Relay
	TxIndex     int   // fixed device index used by Send
	MTU         int   // consumer buffer size
	MemoryLimit int64 // bytes held by queued packets, 0 = unlimited

	// Consumer loop
	Echo          bool // send every received frame back out
	StatsInterval time.Duration

	Debug bool
}

// Default returns the configuration used when no flag overrides a field.
func Default() Config {
	return Config{
		Device:        DeviceLoopback,
		Role:          RoleHost,
		WSAddr:        ":0",
		PINDigits:     4,
		TxIndex:       relay.DefaultTxIndex,
		MTU:           packet.MaxFrameSize,
		StatsInterval: 10 * time.Second,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Device {
	case DeviceLoopback:
		// Loopback hands every transmitted frame straight back.
		if c.Echo {
			return fmt.Errorf("echo is not supported on the loopback device")
		}
	case DevicePeer:
		switch c.Role {
		case RoleHost:
		case RoleClient:
			if c.WSURL == "" {
				return fmt.Errorf("missing WebSocket URL for client role")
			}
		default:
			return fmt.Errorf("invalid role %q: must be 'host' or 'client'", c.Role)
		}
		if c.TxIndex != device.PeerIfIndex {
			return fmt.Errorf("invalid transmit index %d: peer device serves only %d", c.TxIndex, device.PeerIfIndex)
		}
	case DevicePCAP:
		if c.Interface == "" {
			return fmt.Errorf("missing interface for pcap device")
		}
		if c.TxIndex != device.PCAPIfIndex {
			return fmt.Errorf("invalid transmit index %d: pcap device serves only %d", c.TxIndex, device.PCAPIfIndex)
		}
	default:
		return fmt.Errorf("invalid device %q: must be 'loopback', 'peer' or 'pcap'", c.Device)
	}

	if c.TxIndex < 1 {
		return fmt.Errorf("invalid transmit index %d: must be >= 1", c.TxIndex)
	}
	if c.MTU < 1 || c.MTU > packet.MaxFrameSize {
		return fmt.Errorf("invalid MTU %d: must be 1~%d", c.MTU, packet.MaxFrameSize)
	}
	if c.MemoryLimit < 0 || (c.MemoryLimit > 0 && c.MemoryLimit < packet.MaxFrameSize) {
		return fmt.Errorf("invalid memory limit %d: must be 0 (unlimited) or at least %d bytes", c.MemoryLimit, packet.MaxFrameSize)
	}
	if c.StatsInterval < 0 {
		return fmt.Errorf("invalid stats interval %v", c.StatsInterval)
	}
	return nil
}

// RelayOptions derives the relay settings.
func (c Config) RelayOptions() relay.Options {
	return relay.Options{
		TxIndex:     c.TxIndex,
		ConsumerMTU: c.MTU,
		MemoryLimit: c.MemoryLimit,
	}
}
