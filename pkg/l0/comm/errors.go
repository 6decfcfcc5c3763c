package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompletePacket indicates a frame was abandoned because the next
	// character didn't arrive in time.
	ErrIncompletePacket = errors.New("incomplete packet")
	// ErrPayloadOverflow indicates a byte count larger than MaxPayload.
	ErrPayloadOverflow = errors.New("payload overflow")
	// ErrTxBusy is returned by drivers when the transmit queue can't
	// accept another byte.
	ErrTxBusy = errors.New("transmitter busy")
	// ErrLRCMismatch indicates the received LRC doesn't match the content.
	ErrLRCMismatch = errors.New("lrc mismatch")
	// ErrNotInitialized indicates the link is used before Init.
	ErrNotInitialized = errors.New("link not initialized")
)

// EncodeError wraps the driver error with the field being written.
type EncodeError struct {
	Field string
	Err   error
}

// Error implements error.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Field, e.Err)
}

// Unwrap returns the driver error.
func (e *EncodeError) Unwrap() error {
	return e.Err
}
