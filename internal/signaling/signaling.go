// Package signaling runs the WebSocket-based SDP/ICE exchange that brings up
// a peer link. Callers receive a Transport whose DataChannel is open.
package signaling

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/pterm/pterm"

	"github.com/1ureka/rxrelay/internal/transport"
	"github.com/1ureka/rxrelay/internal/util"
)

// EstablishAsHost executes the host-side flow:
//  1. Start a WS server on wsAddr and print its port and PIN
//  2. Wait for the peer to connect
//  3. Create a Transport and send the offer
//  4. Return once the DataChannel is open
func EstablishAsHost(ctx context.Context, wsAddr, pin string) (*transport.Transport, error) {
	rv, err := listen(wsAddr, pin)
	if err != nil {
		return nil, err
	}
	defer rv.shutdown()

	pterm.DefaultBox.WithTitle("WebSocket Signaling Server").Println(
		fmt.Sprintf("Port : %d\nPIN  : %s\nPath : %s?pin=%s", rv.port, pin, wsPath, pin),
	)
	util.LogInfo("waiting for peer...")

	wsConn, err := rv.accept(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for peer: %w", err)
	}
	defer wsConn.Close()
	util.LogInfo("peer connected")

	return exchange(ctx, wsConn, true)
}

// EstablishAsClient executes the client-side flow: connect to the host's WS
// endpoint, answer its offer and return once the DataChannel is open.
func EstablishAsClient(ctx context.Context, wsURL string) (*transport.Transport, error) {
	util.LogInfo("connecting to host...")
	wsConn, err := dial(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	defer wsConn.Close()
	util.LogDebug("WS connected: %s", wsURL)

	return exchange(ctx, wsConn, false)
}

// exchange creates the Transport and runs SDP/ICE over wsConn until the
// DataChannel opens. The offering side sends the first message.
func exchange(ctx context.Context, wsConn *websocket.Conn, offer bool) (*transport.Transport, error) {
	tr, err := transport.NewTransport(ctx)
	if err != nil {
		return nil, err
	}

	s := &sender{tr: tr, conn: wsConn}
	r := &receiver{tr: tr, conn: wsConn, sender: s}

	tr.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		// Best-effort: a lost candidate only narrows the paths ICE can try.
		if err := s.sendCandidate(c); err != nil {
			util.LogDebug("failed to send ICE candidate: %v", err)
		}
	})

	// Exits when wsConn is closed by the caller's defer.
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.watch()
	}()

	if offer {
		if err := s.sendOffer(); err != nil {
			tr.Close()
			return nil, fmt.Errorf("failed to send offer: %w", err)
		}
	}

	select {
	case <-tr.Ready():
		util.LogSuccess("WebRTC DataChannel established, closing WS")
		return tr, nil

	case err := <-errCh:
		tr.Close()
		return nil, fmt.Errorf("signaling failed: %w", err)

	case <-ctx.Done():
		tr.Close()
		return nil, ctx.Err()
	}
}
