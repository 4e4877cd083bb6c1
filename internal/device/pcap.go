//go:build pcap
// +build pcap

package device

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"github.com/1ureka/rxrelay/internal/util"
)

const (
	// snapLen captures whole frames including VLAN tags and jumbo frames; the
	// relay decides what it keeps.
	snapLen = 65536

	// readTimeout bounds each libpcap read so Close never waits on a quiet link.
	readTimeout = 500 * time.Millisecond
)

// PCAP drives a host network interface through libpcap: received frames are
// captured in promiscuous mode, transmitted frames are injected raw.
// This driver is only available when building with the 'pcap' build tag.
type PCAP struct {
	handle *pcap.Handle
	iface  *net.Interface

	mu sync.RWMutex
	rx RxCallback

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// OpenPCAP opens ifaceName for live capture. filter is an optional BPF
// expression applied before frames reach the rx callback.
func OpenPCAP(ctx context.Context, ifaceName, filter string) (*PCAP, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up interface %s: %w", ifaceName, err)
	}

	handle, err := pcap.OpenLive(ifaceName, snapLen, true, readTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for capture: %w", ifaceName, err)
	}

	// Only inbound traffic: frames we inject must not loop back into the relay.
	if err := handle.SetDirection(pcap.DirectionIn); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to set capture direction on %s: %w", ifaceName, err)
	}

	if filter != "" {
		if err := handle.SetBPFFilter(filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("failed to set BPF filter '%s': %w", filter, err)
		}
		util.LogInfo("PCAP BPF filter set: %s", filter)
	}

	pctx, cancel := context.WithCancel(ctx)
	p := &PCAP{
		handle: handle,
		iface:  iface,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.capture(pctx)

	return p, nil
}

func (p *PCAP) capture(ctx context.Context) {
	defer close(p.done)

	source := gopacket.NewPacketSource(p.handle, p.handle.LinkType())
	source.Lazy = true
	source.NoCopy = true

	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-source.Packets():
			if !ok {
				return
			}

			p.mu.RLock()
			rx := p.rx
			p.mu.RUnlock()

			if rx != nil {
				data := pkt.Data()
				rx(PCAPIfIndex, data, len(data))
			}
		}
	}
}

// RegisterRxCallback implements Driver.
func (p *PCAP) RegisterRxCallback(fn RxCallback) {
	p.mu.Lock()
	p.rx = fn
	p.mu.Unlock()
}

// Transmit implements Driver.
func (p *PCAP) Transmit(ifIndex int, frame []byte) error {
	if ifIndex != PCAPIfIndex {
		return noSuchDevice(ifIndex)
	}
	if err := p.handle.WritePacketData(frame); err != nil {
		return fmt.Errorf("failed to inject frame on %s: %w", p.iface.Name, err)
	}
	return nil
}

// HardwareAddr implements Driver.
func (p *PCAP) HardwareAddr(ifIndex int) (net.HardwareAddr, error) {
	if ifIndex != PCAPIfIndex {
		return nil, noSuchDevice(ifIndex)
	}
	return p.iface.HardwareAddr, nil
}

// Close stops capturing and releases the pcap handle.
func (p *PCAP) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		p.handle.Close()
		<-p.done
	})
	return nil
}
