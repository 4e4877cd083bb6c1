package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
)

// remote is the part of the transport fed by incoming signaling messages.
type remote interface {
	SetRemoteDescription(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error
}

// receiver applies incoming signaling messages to the transport.
type receiver struct {
	tr     remote
	conn   *websocket.Conn
	sender *sender
}

// watch reads messages until the WebSocket fails or closes. An offer is
// answered immediately, so the same loop serves both roles.
func (r *receiver) watch() error {
	for {
		var msg message
		if err := r.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read WS message: %w", err)
		}

		if err := r.apply(msg); err != nil {
			return err
		}
	}
}

func (r *receiver) apply(msg message) error {
	switch msg.Type {
	case msgTypeOffer:
		if err := r.tr.SetRemoteDescription(webrtc.SessionDescription{
			Type: webrtc.SDPTypeOffer, SDP: msg.SDP,
		}); err != nil {
			return fmt.Errorf("failed to apply offer: %w", err)
		}
		return r.sender.sendAnswer()

	case msgTypeAnswer:
		if err := r.tr.SetRemoteDescription(webrtc.SessionDescription{
			Type: webrtc.SDPTypeAnswer, SDP: msg.SDP,
		}); err != nil {
			return fmt.Errorf("failed to apply answer: %w", err)
		}

	case msgTypeCandidate:
		var init webrtc.ICECandidateInit
		if err := json.Unmarshal([]byte(msg.Candidate), &init); err != nil {
			return fmt.Errorf("failed to parse ICE candidate: %w", err)
		}
		if err := r.tr.AddICECandidate(init); err != nil {
			return err
		}
	}
	return nil
}
