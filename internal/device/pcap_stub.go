//go:build !pcap
// +build !pcap

package device

import (
	"context"
	"fmt"
	"net"
)

// PCAP is unavailable without the 'pcap' build tag.
type PCAP struct{}

// OpenPCAP is a stub implementation when PCAP support is disabled.
// Build with -tags=pcap to enable live capture.
func OpenPCAP(ctx context.Context, ifaceName, filter string) (*PCAP, error) {
	return nil, fmt.Errorf("PCAP support not enabled: rebuild with -tags=pcap to capture on %s", ifaceName)
}

func (p *PCAP) RegisterRxCallback(fn RxCallback) {}

func (p *PCAP) Transmit(ifIndex int, frame []byte) error { return ErrClosed }

func (p *PCAP) HardwareAddr(ifIndex int) (net.HardwareAddr, error) {
	return nil, noSuchDevice(ifIndex)
}

func (p *PCAP) Close() error { return nil }
