package comm

import "fmt"

// HWType selects the physical wiring of the link.
type HWType int

const (
	// HWUart is a full-duplex point-to-point UART.
	HWUart HWType = iota
	// HWRS485HalfDuplex is a shared RS485 bus with direction control.
	HWRS485HalfDuplex
)

// String implements fmt.Stringer.
func (t HWType) String() string {
	switch t {
	case HWUart:
		return "uart"
	case HWRS485HalfDuplex:
		return "rs485"
	}
	return fmt.Sprintf("hw(%d)", int(t))
}

// ParseHWType parses the name returned by HWType.String.
func ParseHWType(s string) (HWType, error) {
	switch s {
	case "uart", "":
		return HWUart, nil
	case "rs485":
		return HWRS485HalfDuplex, nil
	}
	return HWUart, fmt.Errorf("unknown hardware type %q", s)
}

// Driver is the character level serial driver. None of the methods
// block on the line.
type Driver interface {
	// Configure prepares the driver for the wiring.
	Configure(HWType) error
	// SetBitrate changes the line speed.
	SetBitrate(bitsPerSecond uint32) error
	// PutByte queues one byte for transmission, or fails with
	// ErrTxBusy when it can't.
	PutByte(byte) error
	// GetByte returns the next received byte if any.
	GetByte() (byte, bool)
}
