package comm

// Encoder writes packets to a Driver byte by byte.
type Encoder struct {
	Driver Driver
}

// NewEncoder creates an Encoder.
func NewEncoder(drv Driver) *Encoder {
	return &Encoder{Driver: drv}
}

// Encode writes pkt in wire order and stops at the first byte the driver
// refuses. Nothing is retried, so after a failure the receiving side may
// have seen any prefix of the frame.
func (e *Encoder) Encode(pkt *Packet) error {
	if pkt.ByteCount > MaxPayload {
		return ErrPayloadOverflow
	}
	if err := e.put("header", Header0, Header1); err != nil {
		return err
	}
	if err := e.put("addressed node", pkt.AddressedNodeID); err != nil {
		return err
	}
	if err := e.put("own node", pkt.OwnNodeID); err != nil {
		return err
	}
	if err := e.put("command", pkt.CommandID); err != nil {
		return err
	}
	if err := e.put("byte count", pkt.ByteCount); err != nil {
		return err
	}
	if err := e.put("data", pkt.Payload()...); err != nil {
		return err
	}
	return e.put("lrc", pkt.LRC)
}

func (e *Encoder) put(field string, bs ...byte) error {
	for _, b := range bs {
		if err := e.Driver.PutByte(b); err != nil {
			return &EncodeError{Field: field, Err: err}
		}
	}
	return nil
}
