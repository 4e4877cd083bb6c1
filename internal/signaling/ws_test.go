package signaling

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePIN(t *testing.T) {
	for i := 0; i < 50; i++ {
		pin := GeneratePIN(6)
		require.Len(t, pin, 6)
		assert.Equal(t, "", strings.Trim(pin, "0123456789"))
	}
	assert.Equal(t, "", GeneratePIN(0))
}

func startTestRendezvous(t *testing.T, pin string) (*rendezvous, string) {
	t.Helper()
	rv, err := listen("127.0.0.1:0", pin)
	require.NoError(t, err)
	t.Cleanup(rv.shutdown)
	return rv, fmt.Sprintf("ws://127.0.0.1:%d%s", rv.port, wsPath)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDialRejectsWrongPIN(t *testing.T) {
	_, url := startTestRendezvous(t, "1234")

	_, err := dial(testContext(t), url+"?pin=0000")
	assert.ErrorIs(t, err, ErrInvalidPIN)
}

// TestRendezvousAdmitsFirstPeer checks that a peer with the right PIN is
// handed to accept and that messages flow both ways.
func TestRendezvousAdmitsFirstPeer(t *testing.T) {
	rv, url := startTestRendezvous(t, "1234")
	ctx := testContext(t)

	client, err := dial(ctx, url+"?pin=1234")
	require.NoError(t, err)
	defer client.Close()

	hostConn, err := rv.accept(ctx)
	require.NoError(t, err)
	defer hostConn.Close()

	require.NoError(t, client.WriteJSON(message{Type: msgTypeAnswer, SDP: "v=0"}))

	var got message
	require.NoError(t, hostConn.ReadJSON(&got))
	assert.Equal(t, msgTypeAnswer, got.Type)
	assert.Equal(t, "v=0", got.SDP)
}

func TestRendezvousTurnsAwaySecondPeer(t *testing.T) {
	_, url := startTestRendezvous(t, "")
	ctx := testContext(t)

	first, err := dial(ctx, url)
	require.NoError(t, err)
	defer first.Close()

	_, err = dial(ctx, url)
	assert.ErrorIs(t, err, ErrHostBusy)
}

func TestRendezvousAdmittedConnSurvivesShutdown(t *testing.T) {
	rv, url := startTestRendezvous(t, "")
	ctx := testContext(t)

	client, err := dial(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	hostConn, err := rv.accept(ctx)
	require.NoError(t, err)
	defer hostConn.Close()

	rv.shutdown()

	require.NoError(t, hostConn.WriteJSON(message{Type: msgTypeOffer, SDP: "v=0"}))
	var got message
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, msgTypeOffer, got.Type)
}

func TestAcceptCancelled(t *testing.T) {
	rv, _ := startTestRendezvous(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rv.accept(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPINMatches(t *testing.T) {
	open := &rendezvous{}
	assert.True(t, open.pinMatches("anything"))

	locked := &rendezvous{pin: "4821"}
	assert.True(t, locked.pinMatches("4821"))
	assert.False(t, locked.pinMatches("482"))
	assert.False(t, locked.pinMatches(""))
}
