package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacket(t *testing.T) {
	testCases := []struct {
		name   string
		packet *Packet
		expect []byte
	}{
		{"no data", &Packet{AddressedNodeID: 1, OwnNodeID: 2, CommandID: 3, LRC: 4}, []byte{0xaa, 0x55, 1, 2, 3, 0, 4}},
		{"small data", NewPacket(1, 2, 0x10, 0x0a, 0x0b), []byte{0xaa, 0x55, 1, 2, 0x10, 2, 0x0a, 0x0b, 0}},
		{"broadcast", NewPacket(BroadcastID, 2, 0x10, 1), []byte{0xaa, 0x55, 0, 2, 0x10, 1, 1, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.packet.Bytes())
			var buf bytes.Buffer
			n, err := tc.packet.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.EqualValues(t, len(tc.expect), n)
		})
	}
}

func TestPacketPayload(t *testing.T) {
	data := make([]byte, MaxPayload+5)
	for i := range data {
		data[i] = byte(i)
	}
	pkt := NewPacket(1, 2, 3, data...)
	require.EqualValues(t, MaxPayload, pkt.ByteCount)
	require.Equal(t, data[:MaxPayload], pkt.Payload())

	pkt.SetPayload(nil)
	require.Zero(t, pkt.ByteCount)
	require.Empty(t, pkt.Payload())
}

func TestPacketOverflowNotWritten(t *testing.T) {
	pkt := &Packet{ByteCount: MaxPayload + 1}
	var buf bytes.Buffer
	_, err := pkt.WriteTo(&buf)
	require.Equal(t, ErrPayloadOverflow, err)
	require.Zero(t, buf.Len())
}

func TestPacketLRC(t *testing.T) {
	pkt := NewPacket(1, 2, 0x10, 0x0a, 0x0b)
	require.Equal(t, byte(0x10^0x02^0x0a^0x0b), pkt.ComputeLRC())
	require.False(t, pkt.ValidLRC())
	require.True(t, pkt.SealLRC().ValidLRC())
	pkt.Data[0] ^= 0xff
	require.False(t, pkt.ValidLRC())

	empty := &Packet{CommandID: 0x33}
	require.Equal(t, byte(0x33), empty.ComputeLRC())
}

func TestPacketString(t *testing.T) {
	pkt := NewPacket(1, 2, 0x10, 0x0a, 0x0b)
	pkt.LRC = 0xcc
	require.Equal(t, "to=01 from=02 cmd=10 len=2 data=0a 0b lrc=cc", pkt.String())
}
