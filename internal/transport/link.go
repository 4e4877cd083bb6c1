package transport

import (
	"fmt"
	"time"

	"github.com/pion/webrtc/v4"
)

// No TURN: peers are expected to reach each other directly once signaling
// is done.
var stunServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// ICE liveness. A link that stays silent past iceFailedTimeout moves the
// PeerConnection to failed, which shuts the Transport down.
const (
	iceDisconnectedTimeout = 5 * time.Second
	iceFailedTimeout       = 15 * time.Second
	iceKeepAliveInterval   = 2 * time.Second
)

const (
	frameChannelLabel        = "frames"
	frameChannelID    uint16 = 0
)

func newAPI() *webrtc.API {
	var se webrtc.SettingEngine
	se.SetICETimeouts(iceDisconnectedTimeout, iceFailedTimeout, iceKeepAliveInterval)
	return webrtc.NewAPI(webrtc.WithSettingEngine(se))
}

// openFrameLink creates the PeerConnection and its pre-negotiated frame
// channel. Frames are delivered unordered and never retransmitted, so the
// virtual link is best-effort like Ethernet.
func openFrameLink() (*webrtc.PeerConnection, *webrtc.DataChannel, error) {
	pc, err := newAPI().NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: stunServers}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create PeerConnection: %w", err)
	}

	dc, err := pc.CreateDataChannel(frameChannelLabel, &webrtc.DataChannelInit{
		Ordered:        ptr(false),
		MaxRetransmits: ptr(uint16(0)),
		Negotiated:     ptr(true),
		ID:             ptr(frameChannelID),
	})
	if err != nil {
		pc.Close()
		return nil, nil, fmt.Errorf("failed to create DataChannel: %w", err)
	}

	return pc, dc, nil
}

func ptr[T any](v T) *T { return &v }
