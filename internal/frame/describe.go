// Package frame renders raw Ethernet frames as one-line summaries for
// diagnostics. It does not interpret frames beyond what a log line needs.
package frame

import (
	"fmt"
	"net"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Describe decodes data as an Ethernet frame and returns a short summary such
// as "02:00:00:00:00:01 > ff:ff:ff:ff:ff:ff ARP request 10.0.0.1 > 10.0.0.2".
func Describe(data []byte) string {
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	eth, ok := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	if !ok {
		return fmt.Sprintf("malformed frame (%d bytes)", len(data))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s > %s", eth.SrcMAC, eth.DstMAC)

	switch {
	case pkt.Layer(layers.LayerTypeARP) != nil:
		arp := pkt.Layer(layers.LayerTypeARP).(*layers.ARP)
		op := "reply"
		if arp.Operation == layers.ARPRequest {
			op = "request"
		}
		fmt.Fprintf(&b, " ARP %s %s > %s", op, net.IP(arp.SourceProtAddress), net.IP(arp.DstProtAddress))

	case pkt.Layer(layers.LayerTypeIPv4) != nil:
		ip := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
		fmt.Fprintf(&b, " IPv4 %s > %s %s", ip.SrcIP, ip.DstIP, transport(pkt, ip.Protocol.String()))

	case pkt.Layer(layers.LayerTypeIPv6) != nil:
		ip := pkt.Layer(layers.LayerTypeIPv6).(*layers.IPv6)
		fmt.Fprintf(&b, " IPv6 %s > %s %s", ip.SrcIP, ip.DstIP, transport(pkt, ip.NextHeader.String()))

	default:
		fmt.Fprintf(&b, " %s", eth.EthernetType)
	}

	fmt.Fprintf(&b, " (%d bytes)", len(data))
	return b.String()
}

// transport appends ports for TCP/UDP and falls back to the protocol name.
func transport(pkt gopacket.Packet, proto string) string {
	if tcp, ok := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP); ok {
		return fmt.Sprintf("TCP %d > %d", tcp.SrcPort, tcp.DstPort)
	}
	if udp, ok := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP); ok {
		return fmt.Sprintf("UDP %d > %d", udp.SrcPort, udp.DstPort)
	}
	return proto
}
