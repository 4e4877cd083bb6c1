// Package protocol defines how link frames are carried over the peer
// DataChannel: one message per frame, prefixed by a small header.
package protocol

// Message type constants.
const (
	TypeFrame uint8 = 0x01 // Ethernet frame payload
	TypeHello uint8 = 0x02 // Sender's hardware address, sent once on open
)

// HeaderSize is the fixed header size: Type(1) + IfIndex(4).
const HeaderSize = 5

// Message is one DataChannel message.
type Message struct {
	Type    uint8  // TypeFrame or TypeHello
	IfIndex uint32 // Device index on the sending side
	Payload []byte // Frame bytes or hardware address
}
