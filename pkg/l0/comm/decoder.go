package comm

// ErrorReporter receives conditions the decoder can't return to the caller,
// e.g. a frame abandoned on timeout.
type ErrorReporter interface {
	ReportError(error)
}

// ReportErrorFunc is func type of ErrorReporter.
type ReportErrorFunc func(error)

// ReportError implements ErrorReporter.
func (f ReportErrorFunc) ReportError(err error) {
	f(err)
}

// DecoderState is the state of the frame decoder.
type DecoderState int

// Decoder states in frame order.
const (
	WaitHeader0 DecoderState = iota
	WaitHeader1
	WaitAddressedNode
	WaitOwnNode
	WaitCommand
	WaitByteCount
	WaitData
	WaitLRC
)

var decoderStateNames = [...]string{
	"WaitHeader0",
	"WaitHeader1",
	"WaitAddressedNode",
	"WaitOwnNode",
	"WaitCommand",
	"WaitByteCount",
	"WaitData",
	"WaitLRC",
}

// String implements fmt.Stringer.
func (s DecoderState) String() string {
	if s >= 0 && int(s) < len(decoderStateNames) {
		return decoderStateNames[s]
	}
	return "Unknown"
}

// Decoder assembles packets one byte at a time.
type Decoder struct {
	Identity *Identity
	Guard    *TimeoutGuard
	Reporter ErrorReporter

	rx        RxFlag
	state     DecoderState
	packet    Packet
	remaining byte
}

// NewDecoder creates a Decoder accepting frames for identity.
func NewDecoder(identity *Identity) *Decoder {
	return &Decoder{Identity: identity, Guard: NewTimeoutGuard()}
}

// State gets the current decoder state.
func (d *Decoder) State() DecoderState {
	return d.state
}

// Receiving indicates a frame is in progress.
func (d *Decoder) Receiving() bool {
	return d.rx.Get()
}

// Reset drops any partial frame.
func (d *Decoder) Reset() {
	d.state, d.remaining = WaitHeader0, 0
	d.rx.Set(false)
}

// CheckTimeout abandons a frame whose next character is overdue.
// It returns true if a frame was abandoned.
func (d *Decoder) CheckTimeout() bool {
	if !d.rx.Get() || !d.guard().Expired() {
		return false
	}
	d.Reset()
	d.guard().Arm()
	if r := d.Reporter; r != nil {
		r.ReportError(ErrIncompletePacket)
	}
	return true
}

// Feed consumes one byte. A packet is returned only on the byte
// completing a frame, and it's a copy owned by the caller.
func (d *Decoder) Feed(b byte) (*Packet, error) {
	d.CheckTimeout()
	pkt, err := d.feedByte(b)
	d.guard().Arm()
	return pkt, err
}

func (d *Decoder) guard() *TimeoutGuard {
	if d.Guard == nil {
		d.Guard = NewTimeoutGuard()
	}
	return d.Guard
}

func (d *Decoder) accepts(dest byte) bool {
	if d.Identity == nil {
		return Accepts(dest, 0, DefaultLAM, BroadcastID)
	}
	return d.Identity.Accepts(dest)
}

func (d *Decoder) feedByte(b byte) (*Packet, error) {
	switch d.state {
	case WaitHeader0:
		if b == Header0 {
			d.state = WaitHeader1
		}
	case WaitHeader1:
		if b != Header1 {
			d.state = WaitHeader0
			break
		}
		d.rx.Set(true)
		d.state = WaitAddressedNode
	case WaitAddressedNode:
		if !d.accepts(b) {
			d.Reset()
			break
		}
		d.packet = Packet{AddressedNodeID: b}
		d.state = WaitOwnNode
	case WaitOwnNode:
		d.packet.OwnNodeID = b
		d.state = WaitCommand
	case WaitCommand:
		d.packet.CommandID = b
		d.state = WaitByteCount
	case WaitByteCount:
		if b > MaxPayload {
			d.Reset()
			return nil, ErrPayloadOverflow
		}
		d.packet.ByteCount, d.remaining = b, b
		if b == 0 {
			d.state = WaitLRC
		} else {
			d.state = WaitData
		}
	case WaitData:
		offset := int(d.packet.ByteCount - d.remaining)
		if offset >= len(d.packet.Data) {
			d.Reset()
			return nil, ErrPayloadOverflow
		}
		d.packet.Data[offset] = b
		if d.remaining--; d.remaining == 0 {
			d.state = WaitLRC
		}
	case WaitLRC:
		d.packet.LRC = b
		d.Reset()
		pkt := d.packet
		return &pkt, nil
	}
	return nil, nil
}
