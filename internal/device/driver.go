// Package device defines the driver boundary the relay sits on and provides
// the drivers the CLI can run against: an in-memory loopback, a WebRTC peer
// link and (with -tags pcap) a live host interface.
package device

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"
)

// Single-device drivers serve only index 1.
const (
	PeerIfIndex = 1
	PCAPIfIndex = 1
)

// RxCallback receives one frame. It is invoked from the driver's own
// goroutine; frame is only valid for the duration of the call.
type RxCallback func(ifIndex int, frame []byte, length int)

// Driver is the link layer as seen by the relay.
type Driver interface {
	// RegisterRxCallback sets the function receiving every inbound frame.
	// Frames arriving before registration are dropped.
	RegisterRxCallback(fn RxCallback)

	// Transmit sends one frame out of the device at ifIndex.
	Transmit(ifIndex int, frame []byte) error

	// HardwareAddr returns the MAC address of the device at ifIndex.
	HardwareAddr(ifIndex int) (net.HardwareAddr, error)

	Close() error
}

var (
	// ErrNoSuchDevice is returned for an index the driver does not serve.
	ErrNoSuchDevice = errors.New("no such device")

	// ErrClosed is returned by Transmit after Close.
	ErrClosed = errors.New("device closed")

	// ErrTxBusy is returned when the transmit path cannot take another frame.
	ErrTxBusy = errors.New("transmit queue full")
)

func noSuchDevice(ifIndex int) error {
	return fmt.Errorf("%w: index %d", ErrNoSuchDevice, ifIndex)
}

// RandomMAC returns a random unicast, locally administered hardware address.
func RandomMAC() (net.HardwareAddr, error) {
	mac := make(net.HardwareAddr, 6)
	if _, err := rand.Read(mac); err != nil {
		return nil, fmt.Errorf("failed to generate MAC: %w", err)
	}
	mac[0] = (mac[0] &^ 0x01) | 0x02
	return mac, nil
}
