// Package comm provides L0 protocol support.
package comm

// L0 protocol is communicated between a master and slave nodes sharing
// one serial medium (UART or RS485). Frames are
//
//   [0xAA][0x55][addressed node][own node][command][byte count][data...][lrc]
//
// A node accepts a frame when the addressed node is the broadcast ID or
// matches its own ID on the bits selected by its Local Acceptance Mask,
// which allows group addressing.
//
// Bytes are decoded one at a time and nothing is buffered beyond the
// packet being assembled. A frame whose next character doesn't arrive
// within the character timeout is abandoned and reported as an
// incomplete packet. The LRC is carried as-is; checking it is up to the
// caller (see Packet.ValidLRC and Link.VerifyLRC).
//
// There is no retransmission or flow control at this level.
