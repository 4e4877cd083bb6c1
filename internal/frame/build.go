package frame

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// broadcast is the Ethernet broadcast address.
var broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// GratuitousARP builds a broadcast ARP request announcing that ip is at mac.
// The result is padded to the Ethernet minimum of 60 bytes.
func GratuitousARP(mac net.HardwareAddr, ip net.IP) ([]byte, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, &net.AddrError{Err: "not an IPv4 address", Addr: ip.String()}
	}

	eth := &layers.Ethernet{
		SrcMAC:       mac,
		DstMAC:       broadcast,
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   mac,
		SourceProtAddress: ip4,
		DstHwAddress:      make([]byte, 6),
		DstProtAddress:    ip4,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, arp); err != nil {
		return nil, err
	}

	data := buf.Bytes()
	if len(data) < 60 {
		data = append(data, make([]byte, 60-len(data))...)
	}
	return data, nil
}
