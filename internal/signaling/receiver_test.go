package signaling

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote records what the receiver applies.
type fakeRemote struct {
	remote     []webrtc.SessionDescription
	candidates []webrtc.ICECandidateInit
}

func (f *fakeRemote) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	f.remote = append(f.remote, sdp)
	return nil
}

func (f *fakeRemote) AddICECandidate(c webrtc.ICECandidateInit) error {
	f.candidates = append(f.candidates, c)
	return nil
}

func TestReceiverAppliesAnswer(t *testing.T) {
	fr := &fakeRemote{}
	r := &receiver{tr: fr}

	require.NoError(t, r.apply(message{Type: msgTypeAnswer, SDP: "v=0"}))
	require.Len(t, fr.remote, 1)
	assert.Equal(t, webrtc.SDPTypeAnswer, fr.remote[0].Type)
	assert.Equal(t, "v=0", fr.remote[0].SDP)
}

func TestReceiverAppliesCandidate(t *testing.T) {
	fr := &fakeRemote{}
	r := &receiver{tr: fr}

	msg := message{Type: msgTypeCandidate, Candidate: `{"candidate":"candidate:1 1 udp 1 127.0.0.1 5000 typ host"}`}
	require.NoError(t, r.apply(msg))
	require.Len(t, fr.candidates, 1)
	assert.Contains(t, fr.candidates[0].Candidate, "127.0.0.1")
}

func TestReceiverRejectsBadCandidate(t *testing.T) {
	r := &receiver{tr: &fakeRemote{}}
	assert.Error(t, r.apply(message{Type: msgTypeCandidate, Candidate: "{"}))
}
