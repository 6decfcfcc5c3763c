package comm

import (
	"fmt"
	"io"
)

// Protocol constants.
const (
	Header0     byte = 0xAA
	Header1     byte = 0x55
	BroadcastID byte = 0x00
	DefaultLAM  byte = 0xFF

	// MaxPayload is the capacity of Packet.Data.
	MaxPayload = 32

	// headerLen counts H0, H1, addressed node, own node, command, byte count.
	headerLen = 6
)

// Packet is one complete protocol message.
type Packet struct {
	AddressedNodeID byte
	OwnNodeID       byte
	CommandID       byte
	ByteCount       byte
	Data            [MaxPayload]byte
	LRC             byte
}

// NewPacket creates a packet and copies payload into Data.
// The payload is truncated to MaxPayload.
func NewPacket(addressed, own, cmd byte, payload ...byte) *Packet {
	p := &Packet{AddressedNodeID: addressed, OwnNodeID: own, CommandID: cmd}
	p.SetPayload(payload)
	return p
}

// Payload returns the meaningful part of Data.
func (p *Packet) Payload() []byte {
	n := int(p.ByteCount)
	if n > MaxPayload {
		n = MaxPayload
	}
	return p.Data[:n]
}

// SetPayload copies data into Data and updates ByteCount.
func (p *Packet) SetPayload(data []byte) {
	p.ByteCount = byte(copy(p.Data[:], data))
}

// ComputeLRC calculates the LRC over command, byte count and payload.
func (p *Packet) ComputeLRC() byte {
	lrc := p.CommandID ^ p.ByteCount
	for _, b := range p.Payload() {
		lrc ^= b
	}
	return lrc
}

// ValidLRC checks the carried LRC against the content.
func (p *Packet) ValidLRC() bool {
	return p.ByteCount <= MaxPayload && p.LRC == p.ComputeLRC()
}

// SealLRC stores the computed LRC and returns the packet.
func (p *Packet) SealLRC() *Packet {
	p.LRC = p.ComputeLRC()
	return p
}

// String implements fmt.Stringer.
func (p *Packet) String() string {
	return fmt.Sprintf("to=%02x from=%02x cmd=%02x len=%d data=% x lrc=%02x",
		p.AddressedNodeID, p.OwnNodeID, p.CommandID, p.ByteCount, p.Payload(), p.LRC)
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() []byte {
	data := p.Payload()
	b := make([]byte, headerLen, headerLen+len(data)+1)
	b[0], b[1] = Header0, Header1
	b[2], b[3], b[4], b[5] = p.AddressedNodeID, p.OwnNodeID, p.CommandID, byte(len(data))
	b = append(b, data...)
	return append(b, p.LRC)
}

// WriteTo writes encoded bytes.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	if p.ByteCount > MaxPayload {
		return 0, ErrPayloadOverflow
	}
	n, err := w.Write(p.Bytes())
	return int64(n), err
}
