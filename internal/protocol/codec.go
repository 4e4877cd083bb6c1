package protocol

import (
	"encoding/binary"
	"fmt"
)

// Encode serializes a Message for DataChannel transmission.
func Encode(msg *Message) []byte {
	buf := make([]byte, HeaderSize+len(msg.Payload))
	buf[0] = msg.Type
	binary.BigEndian.PutUint32(buf[1:5], msg.IfIndex)
	copy(buf[HeaderSize:], msg.Payload)
	return buf
}

// Decode parses a DataChannel message. The payload aliases data; callers
// that keep it past the callback must copy it.
func Decode(data []byte) (*Message, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("message too short: %d bytes (need at least %d)", len(data), HeaderSize)
	}

	msg := &Message{
		Type:    data[0],
		IfIndex: binary.BigEndian.Uint32(data[1:5]),
		Payload: data[HeaderSize:],
	}

	switch msg.Type {
	case TypeFrame, TypeHello:
	default:
		return nil, fmt.Errorf("unknown message type 0x%02x", msg.Type)
	}
	return msg, nil
}
