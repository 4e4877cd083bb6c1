// Command rxrelay runs the receive relay between a link driver and a polling
// consumer loop. The driver can be an in-memory loopback, a virtual Ethernet
// link to a remote peer over WebRTC, or (with -tags pcap) a host interface.
//
// It can be launched interactively (no -device flag) or non-interactively
// via CLI flags.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"

	"github.com/1ureka/rxrelay/internal/config"
	"github.com/1ureka/rxrelay/internal/device"
	"github.com/1ureka/rxrelay/internal/frame"
	"github.com/1ureka/rxrelay/internal/packet"
	"github.com/1ureka/rxrelay/internal/poll"
	"github.com/1ureka/rxrelay/internal/relay"
	"github.com/1ureka/rxrelay/internal/signaling"
	"github.com/1ureka/rxrelay/internal/util"
)

var version = "dev"

// loopbackIP is the address announced on the loopback link at startup.
var loopbackIP = net.IPv4(10, 0, 0, 1)

func main() {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Default()

	deviceFlag := flag.String("device", "", "Driver: loopback, peer or pcap")
	roleFlag := flag.String("role", string(cfg.Role), "Peer role: host or client")
	wsPortFlag := flag.Int("wsPort", 0, "WebSocket signaling server port (peer host only)")
	wsListenFlag := flag.Bool("wsListen", false, "Listen on all network interfaces (peer host only)")
	wsURLFlag := flag.String("wsUrl", "", "WebSocket URL to connect to (peer client only)")
	flag.StringVar(&cfg.Interface, "iface", "", "Host interface to capture on (pcap only)")
	flag.StringVar(&cfg.Filter, "filter", "", "BPF filter expression (pcap only)")
	flag.IntVar(&cfg.TxIndex, "tx", cfg.TxIndex, "Device index used for transmit")
	flag.IntVar(&cfg.MTU, "mtu", cfg.MTU, fmt.Sprintf("Consumer buffer size, 1~%d", packet.MaxFrameSize))
	flag.Int64Var(&cfg.MemoryLimit, "memLimit", 0, "Bytes queued packets may hold (0 = unlimited)")
	flag.BoolVar(&cfg.Echo, "echo", false, "Send every received frame back out")
	flag.DurationVar(&cfg.StatsInterval, "stats", cfg.StatsInterval, "Traffic report interval (0 disables)")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if cfg.Debug {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("rxrelay — v%s", version))
	pterm.Println()

	if *deviceFlag == "" {
		runInteractive(&cfg)
	} else {
		cfg.Device = config.DeviceKind(*deviceFlag)
		cfg.Role = config.Role(*roleFlag)
		cfg.WSAddr = wsAddr(*wsPortFlag, *wsListenFlag)

		if *wsURLFlag != "" {
			wsURL, err := normalizeWSURL(*wsURLFlag)
			if err != nil {
				util.LogError("%v", err)
				os.Exit(1)
			}
			cfg.WSURL = wsURL
		}
	}

	if err := cfg.Validate(); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	drv, err := openDriver(ctx, cfg)
	if err != nil {
		util.LogError("failed to open %s device: %v", cfg.Device, err)
		os.Exit(1)
	}
	defer drv.Close()

	if err := run(ctx, cfg, drv); err != nil {
		util.LogError("relay stopped: %v", err)
		os.Exit(1)
	}

	util.LogInfo("relay stopped")
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

// openDriver brings up the configured link driver.
func openDriver(ctx context.Context, cfg config.Config) (device.Driver, error) {
	switch cfg.Device {
	case config.DeviceLoopback:
		return device.NewLoopback(ctx, cfg.TxIndex), nil

	case config.DevicePCAP:
		return device.OpenPCAP(ctx, cfg.Interface, cfg.Filter)

	case config.DevicePeer:
		mac, err := device.RandomMAC()
		if err != nil {
			return nil, err
		}

		var link device.Link
		if cfg.Role == config.RoleHost {
			link, err = signaling.EstablishAsHost(ctx, cfg.WSAddr, signaling.GeneratePIN(cfg.PINDigits))
		} else {
			link, err = signaling.EstablishAsClient(ctx, cfg.WSURL)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to establish peer link: %w", err)
		}
		return device.NewPeer(ctx, link, mac), nil
	}

	return nil, fmt.Errorf("unknown device %q", cfg.Device)
}

// run wires the relay between drv and the consumer loop and blocks until
// ctx is cancelled or the peer link goes down.
func run(ctx context.Context, cfg config.Config, drv device.Driver) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := relay.New(relay.NewQueue(), drv, cfg.RelayOptions())
	drv.RegisterRxCallback(r.OnFrameReceived)

	mac, err := drv.HardwareAddr(cfg.TxIndex)
	if err != nil {
		return fmt.Errorf("failed to read hardware address: %w", err)
	}
	util.LogSuccess("relay ready on if%d (%s), consumer MTU %d, memory %s",
		cfg.TxIndex, mac, cfg.MTU, memoryBudget(r.Pool().Limit()))

	if p, ok := drv.(*device.Peer); ok {
		go func() {
			select {
			case <-p.Done():
				util.LogWarning("peer link closed")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if lo, ok := drv.(*device.Loopback); ok {
		announce, err := frame.GratuitousARP(mac, loopbackIP)
		if err != nil {
			return err
		}
		if err := lo.Inject(cfg.TxIndex, announce); err != nil {
			return err
		}
	}

	util.StartStatsReporter(ctx, cfg.StatsInterval, r.Stats().Traffic)

	// Loopback hands transmitted frames straight back to the relay.
	echo := cfg.Echo && cfg.Device != config.DeviceLoopback
	if cfg.Echo && !echo {
		util.LogWarning("echo disabled on the loopback device")
	}

	err = poll.Run(ctx, r, cfg.MTU, poll.DefaultIdle, func(f []byte) {
		util.LogInfo("rx %s", frame.Describe(f))
		if echo && !sentBy(f, mac) {
			r.Send(f)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runInteractive fills cfg from pterm prompts when no -device flag is given.
func runInteractive(cfg *config.Config) {
	choice, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{
			"Loopback — In-memory link for local testing",
			"Host     — Share a virtual link over WebRTC",
			"Client   — Join a host's virtual link",
			"PCAP     — Capture on a host interface",
		}).
		WithDefaultText("Select a device").
		Show()

	pterm.Println()

	switch {
	case strings.HasPrefix(choice, "Host"):
		cfg.Device = config.DevicePeer
		cfg.Role = config.RoleHost
	case strings.HasPrefix(choice, "Client"):
		cfg.Device = config.DevicePeer
		cfg.Role = config.RoleClient
		cfg.WSURL = askURL()
	case strings.HasPrefix(choice, "PCAP"):
		cfg.Device = config.DevicePCAP
		cfg.Interface = askInterface()
	default:
		cfg.Device = config.DeviceLoopback
	}
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// sentBy reports whether f carries mac as its Ethernet source, i.e. it is
// one of our own frames coming back.
func sentBy(f []byte, mac net.HardwareAddr) bool {
	return len(f) >= 12 && bytes.Equal(f[6:12], mac)
}

// memoryBudget renders a pool limit for the startup line.
func memoryBudget(limit int64) string {
	if limit == 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d bytes (%d frames)", limit, limit/packet.MaxFrameSize)
}

// wsAddr picks the signaling listen address from the port flags.
func wsAddr(port int, listenAll bool) string {
	switch {
	case listenAll:
		return fmt.Sprintf(":%d", port)
	case port > 0:
		return fmt.Sprintf("127.0.0.1:%d", port)
	default:
		return ":0"
	}
}

// normalizeWSURL validates a raw WebSocket URL, defaulting to wss and the
// /ws path while keeping the PIN query.
func normalizeWSURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.Contains(trimmed, "://") {
		trimmed = "wss://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid WebSocket URL: %s", raw)
	}

	scheme := "wss"
	if u.Scheme == "ws" || u.Scheme == "wss" {
		scheme = u.Scheme
	}

	out := url.URL{Scheme: scheme, Host: u.Host, Path: "/ws", RawQuery: u.RawQuery}
	return out.String(), nil
}

// askURL prompts the user for a valid WebSocket URL until one is entered.
func askURL() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("WebSocket URL (e.g. wss://***.devtunnels.ms/ws?pin=1234)").
			Show()

		wsURL, err := normalizeWSURL(raw)
		if err == nil {
			pterm.Println()
			return wsURL
		}

		pterm.Println()
		util.LogWarning("invalid input: please enter a valid host or URL")
	}
}

// askInterface prompts for an existing network interface name.
func askInterface() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Interface name (e.g. eth0)").
			Show()

		name := strings.TrimSpace(raw)
		if _, err := net.InterfaceByName(name); err == nil {
			pterm.Println()
			return name
		}

		pterm.Println()
		util.LogWarning("no such interface: %s", name)
	}
}
