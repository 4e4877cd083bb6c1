package signaling

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/1ureka/rxrelay/internal/util"
)

const (
	wsPath           = "/ws"
	handshakeTimeout = 10 * time.Second
)

var (
	// ErrInvalidPIN is returned to a peer that presents the wrong PIN.
	ErrInvalidPIN = errors.New("invalid signaling PIN")

	// ErrHostBusy is returned to a peer arriving after the host admitted one.
	ErrHostBusy = errors.New("host already has a peer")
)

// rendezvous is the host's single-use WebSocket endpoint. It admits exactly
// one peer presenting the PIN; everyone after that is turned away.
type rendezvous struct {
	pin      string
	port     int
	srv      *http.Server
	upgrader websocket.Upgrader

	admitted atomic.Bool
	peer     chan *websocket.Conn
}

// listen starts the endpoint on addr (":0" picks a random port). An empty
// pin admits any peer.
func listen(addr, pin string) (*rendezvous, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start WS server: %w", err)
	}

	rv := &rendezvous{
		pin:  pin,
		port: ln.Addr().(*net.TCPAddr).Port,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: handshakeTimeout,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
		peer: make(chan *websocket.Conn, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(wsPath, rv.admit)
	rv.srv = &http.Server{Handler: mux, ReadHeaderTimeout: handshakeTimeout}

	go func() {
		if err := rv.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.LogDebug("WS server stopped: %v", err)
		}
	}()

	return rv, nil
}

func (rv *rendezvous) admit(w http.ResponseWriter, r *http.Request) {
	if !rv.pinMatches(r.URL.Query().Get("pin")) {
		http.Error(w, ErrInvalidPIN.Error(), http.StatusUnauthorized)
		return
	}
	if !rv.admitted.CompareAndSwap(false, true) {
		http.Error(w, ErrHostBusy.Error(), http.StatusConflict)
		return
	}

	conn, err := rv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		rv.admitted.Store(false)
		util.LogDebug("WS upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	rv.peer <- conn
}

func (rv *rendezvous) pinMatches(got string) bool {
	return rv.pin == "" || subtle.ConstantTimeCompare([]byte(got), []byte(rv.pin)) == 1
}

// accept blocks until the peer is admitted or ctx is cancelled.
func (rv *rendezvous) accept(ctx context.Context) (*websocket.Conn, error) {
	select {
	case conn := <-rv.peer:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// shutdown stops listening. The admitted connection is hijacked and stays open.
func (rv *rendezvous) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = rv.srv.Shutdown(ctx)
}

// dial connects to a host's rendezvous, mapping its refusals to sentinels.
func dial(ctx context.Context, url string) (*websocket.Conn, error) {
	d := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	conn, resp, err := d.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return nil, ErrInvalidPIN
			case http.StatusConflict:
				return nil, ErrHostBusy
			}
		}
		return nil, fmt.Errorf("failed to connect to WS server: %w", err)
	}
	return conn, nil
}

// GeneratePIN returns a uniformly random numeric PIN of length digits,
// zero-padded.
func GeneratePIN(length int) string {
	if length < 1 {
		return ""
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, _ := rand.Int(rand.Reader, limit)
	return fmt.Sprintf("%0*d", length, n)
}
