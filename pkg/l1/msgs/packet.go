package msgs

import (
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/zolink/pkg/l0/comm"
)

// Packet is the protobuf form of comm.Packet.
type Packet struct {
	AddressedNode        uint32   `protobuf:"varint,1,opt,name=addressed_node,json=addressedNode,proto3" json:"addressed_node,omitempty"`
	OwnNode              uint32   `protobuf:"varint,2,opt,name=own_node,json=ownNode,proto3" json:"own_node,omitempty"`
	Command              uint32   `protobuf:"varint,3,opt,name=command,proto3" json:"command,omitempty"`
	Data                 []byte   `protobuf:"bytes,4,opt,name=data,proto3" json:"data,omitempty"`
	Lrc                  uint32   `protobuf:"varint,5,opt,name=lrc,proto3" json:"lrc,omitempty"`
	ReceivedAt           int64    `protobuf:"varint,6,opt,name=received_at,json=receivedAt,proto3" json:"received_at,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

// Reset implements proto.Message.
func (m *Packet) Reset() { *m = Packet{} }

// String implements proto.Message.
func (m *Packet) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Packet) ProtoMessage() {}

// FromPacket converts a comm.Packet.
func FromPacket(pkt *comm.Packet) *Packet {
	m := &Packet{
		AddressedNode: uint32(pkt.AddressedNodeID),
		OwnNode:       uint32(pkt.OwnNodeID),
		Command:       uint32(pkt.CommandID),
		Lrc:           uint32(pkt.LRC),
	}
	if data := pkt.Payload(); len(data) > 0 {
		m.Data = append([]byte(nil), data...)
	}
	return m
}

// Stamp sets ReceivedAt.
func (m *Packet) Stamp(t time.Time) *Packet {
	m.ReceivedAt = t.UnixNano()
	return m
}

// ToPacket converts back to comm.Packet, validating the ranges.
func (m *Packet) ToPacket() (*comm.Packet, error) {
	for name, v := range map[string]uint32{
		"addressed_node": m.AddressedNode,
		"own_node":       m.OwnNode,
		"command":        m.Command,
		"lrc":            m.Lrc,
	} {
		if v > 0xff {
			return nil, fmt.Errorf("%s out of range: %d", name, v)
		}
	}
	if len(m.Data) > comm.MaxPayload {
		return nil, comm.ErrPayloadOverflow
	}
	pkt := comm.NewPacket(byte(m.AddressedNode), byte(m.OwnNode), byte(m.Command), m.Data...)
	pkt.LRC = byte(m.Lrc)
	return pkt, nil
}

// Encode marshals the message.
func (m *Packet) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodePacket unmarshals a Packet.
func DecodePacket(b []byte) (*Packet, error) {
	m := &Packet{}
	if err := proto.Unmarshal(b, m); err != nil {
		return nil, err
	}
	return m, nil
}
