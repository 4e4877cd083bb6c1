// Package transport carries link frames between two peers over a WebRTC
// DataChannel.
package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/1ureka/rxrelay/internal/protocol"
	"github.com/1ureka/rxrelay/internal/util"
	"github.com/pion/webrtc/v4"
)

// ErrSendBufferFull is returned when a frame cannot be queued because the
// sender is behind.
var ErrSendBufferFull = errors.New("transport send buffer full")

// Transport wraps a single PeerConnection + DataChannel pair, providing the
// signaling surface plus frame send/receive.
//
// Its lifecycle is governed by the DataChannel state and the context passed
// at construction time.
type Transport struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	sender     *sender
	openSignal chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewTransport creates a Transport backed by a new PeerConnection and a
// pre-negotiated DataChannel. The caller performs signaling through the
// exposed methods and then uses SendFrame / OnMessage.
func NewTransport(ctx context.Context) (*Transport, error) {
	pc, dc, err := openFrameLink()
	if err != nil {
		return nil, err
	}

	tCtx, tCancel := context.WithCancel(ctx)

	t := &Transport{
		pc:         pc,
		dc:         dc,
		openSignal: make(chan struct{}),
		ctx:        tCtx,
		cancel:     tCancel,
	}

	var openOnce sync.Once
	dc.OnOpen(func() {
		openOnce.Do(func() { close(t.openSignal) })
	})

	dc.OnClose(func() {
		util.LogInfo("DataChannel closed")
		tCancel()
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("PeerConnection state: %s", state.String())
		if state == webrtc.PeerConnectionStateFailed {
			util.LogWarning("peer connection failed")
			tCancel()
		}
	})

	t.sender = newSender(tCtx, dc, t.openSignal)

	return t, nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Ready returns a channel that is closed once the DataChannel is open.
func (t *Transport) Ready() <-chan struct{} {
	return t.openSignal
}

// Done returns a channel that is closed when the Transport shuts down.
func (t *Transport) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Close shuts down the DataChannel and PeerConnection.
func (t *Transport) Close() error {
	t.cancel()
	return errors.Join(t.dc.Close(), t.pc.Close())
}

// ---------------------------------------------------------------------------
// Signaling
// ---------------------------------------------------------------------------

// CreateOffer generates an SDP offer.
func (t *Transport) CreateOffer() (webrtc.SessionDescription, error) {
	return t.pc.CreateOffer(nil)
}

// CreateAnswer generates an SDP answer.
func (t *Transport) CreateAnswer() (webrtc.SessionDescription, error) {
	return t.pc.CreateAnswer(nil)
}

// SetLocalDescription applies the local SDP.
func (t *Transport) SetLocalDescription(sdp webrtc.SessionDescription) error {
	return t.pc.SetLocalDescription(sdp)
}

// SetRemoteDescription applies the remote SDP.
func (t *Transport) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(sdp)
}

// OnICECandidate registers a callback invoked for every gathered local ICE
// candidate. A nil candidate signals the end of gathering.
func (t *Transport) OnICECandidate(fn func(*webrtc.ICECandidate)) {
	t.pc.OnICECandidate(fn)
}

// AddICECandidate adds a remote ICE candidate received through signaling.
func (t *Transport) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return t.pc.AddICECandidate(candidate)
}

// ---------------------------------------------------------------------------
// Data
// ---------------------------------------------------------------------------

// SendFrame queues one frame for the peer without blocking.
func (t *Transport) SendFrame(ifIndex uint32, frame []byte) error {
	payload := make([]byte, len(frame))
	copy(payload, frame)
	return t.send(&protocol.Message{Type: protocol.TypeFrame, IfIndex: ifIndex, Payload: payload})
}

// SendHello announces the local hardware address to the peer.
func (t *Transport) SendHello(ifIndex uint32, mac []byte) error {
	return t.send(&protocol.Message{Type: protocol.TypeHello, IfIndex: ifIndex, Payload: mac})
}

func (t *Transport) send(msg *protocol.Message) error {
	select {
	case <-t.ctx.Done():
		return t.ctx.Err()
	default:
	}
	if !t.sender.trySend(msg) {
		return ErrSendBufferFull
	}
	return nil
}

// OnMessage registers a callback invoked for every inbound DataChannel
// message. The callback receives the decoded message and any decoding error.
func (t *Transport) OnMessage(fn func(*protocol.Message, error)) {
	t.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		fn(protocol.Decode(msg.Data))
	})
}
