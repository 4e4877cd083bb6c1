package device

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/1ureka/rxrelay/internal/protocol"
	"github.com/1ureka/rxrelay/internal/util"
)

// Link is the frame-carrying connection a Peer runs over.
// *transport.Transport implements it.
type Link interface {
	SendFrame(ifIndex uint32, frame []byte) error
	SendHello(ifIndex uint32, mac []byte) error
	OnMessage(fn func(*protocol.Message, error))
	Ready() <-chan struct{}
	Done() <-chan struct{}
	Close() error
}

// Peer is a virtual Ethernet device whose wire is a Link to a remote peer.
// Frames the remote transmits arrive on the rx callback; Transmit sends
// frames to the remote.
type Peer struct {
	link Link
	mac  net.HardwareAddr

	mu      sync.RWMutex
	rx      RxCallback
	peerMAC net.HardwareAddr
}

// NewPeer wires a Peer onto link and announces mac once the link is ready.
func NewPeer(ctx context.Context, link Link, mac net.HardwareAddr) *Peer {
	p := &Peer{link: link, mac: mac}

	link.OnMessage(p.handle)

	go func() {
		select {
		case <-link.Ready():
			if err := link.SendHello(PeerIfIndex, mac); err != nil {
				util.LogWarning("failed to announce hardware address: %v", err)
			}
		case <-link.Done():
		case <-ctx.Done():
		}
	}()

	return p
}

// handle dispatches one inbound DataChannel message.
func (p *Peer) handle(msg *protocol.Message, err error) {
	if err != nil {
		util.LogWarning("failed to decode peer message: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeHello:
		mac := make(net.HardwareAddr, len(msg.Payload))
		copy(mac, msg.Payload)

		p.mu.Lock()
		p.peerMAC = mac
		p.mu.Unlock()
		util.LogInfo("peer hardware address: %s", mac)

	case protocol.TypeFrame:
		p.mu.RLock()
		rx := p.rx
		p.mu.RUnlock()

		if rx == nil {
			util.LogDebug("[if%d] no rx callback, dropping %d-byte frame", PeerIfIndex, len(msg.Payload))
			return
		}
		rx(PeerIfIndex, msg.Payload, len(msg.Payload))
	}
}

// RegisterRxCallback implements Driver.
func (p *Peer) RegisterRxCallback(fn RxCallback) {
	p.mu.Lock()
	p.rx = fn
	p.mu.Unlock()
}

// Transmit implements Driver.
func (p *Peer) Transmit(ifIndex int, frame []byte) error {
	if ifIndex != PeerIfIndex {
		return noSuchDevice(ifIndex)
	}

	select {
	case <-p.link.Done():
		return ErrClosed
	default:
	}

	if err := p.link.SendFrame(PeerIfIndex, frame); err != nil {
		return fmt.Errorf("failed to send frame to peer: %w", err)
	}
	return nil
}

// HardwareAddr implements Driver.
func (p *Peer) HardwareAddr(ifIndex int) (net.HardwareAddr, error) {
	if ifIndex != PeerIfIndex {
		return nil, noSuchDevice(ifIndex)
	}
	return p.mac, nil
}

// PeerAddr returns the remote's hardware address, or nil until its hello
// has arrived.
func (p *Peer) PeerAddr() net.HardwareAddr {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.peerMAC
}

// Done is closed when the underlying link goes down.
func (p *Peer) Done() <-chan struct{} {
	return p.link.Done()
}

// Close closes the link.
func (p *Peer) Close() error {
	return p.link.Close()
}
