package signaling

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
)

// describer is the part of the transport the signaling sender drives.
type describer interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
}

// sender serializes outgoing signaling messages to the WebSocket.
type sender struct {
	tr   describer
	conn *websocket.Conn
	mu   sync.Mutex
}

// send writes a signaling message to the WebSocket, guarded by a mutex.
func (s *sender) send(msg message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// sendOffer creates an SDP offer, sets it as local description, and sends it.
func (s *sender) sendOffer() error {
	offer, err := s.tr.CreateOffer()
	if err != nil {
		return err
	}
	if err := s.tr.SetLocalDescription(offer); err != nil {
		return err
	}
	return s.send(message{Type: msgTypeOffer, SDP: offer.SDP})
}

// sendAnswer creates an SDP answer, sets it as local description, and sends it.
func (s *sender) sendAnswer() error {
	answer, err := s.tr.CreateAnswer()
	if err != nil {
		return err
	}
	if err := s.tr.SetLocalDescription(answer); err != nil {
		return err
	}
	return s.send(message{Type: msgTypeAnswer, SDP: answer.SDP})
}

// sendCandidate trickles one local ICE candidate to the peer.
func (s *sender) sendCandidate(c *webrtc.ICECandidate) error {
	data, err := json.Marshal(c.ToJSON())
	if err != nil {
		return err
	}
	return s.send(message{Type: msgTypeCandidate, Candidate: string(data)})
}
