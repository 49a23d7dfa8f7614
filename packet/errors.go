package packet

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete reports that more bytes are needed. It is not a failure.
	ErrIncomplete = errors.New("incomplete")

	ErrMalformedVarInt = errors.New("VarInt is too long")
	ErrUnknownPacket   = errors.New("unknown packet")

	ErrNegativeLength = errors.New("negative length")
	ErrStringTooLong  = errors.New("string exceeds maximum length")
	ErrInvalidUTF8    = errors.New("string is not valid UTF-8")
	ErrInvalidEnum    = errors.New("invalid enum value")
	ErrTrailingBytes  = errors.New("trailing bytes after packet body")
)

// UnknownPacketError is returned when no registry entry exists for the
// (state, direction, id) triple.
type UnknownPacketError struct {
	State     State
	Direction Direction
	ID        int32
}

func (e *UnknownPacketError) Error() string {
	return fmt.Sprintf("unknown %s packet 0x%02X in state %s", e.Direction, e.ID, e.State)
}

func (e *UnknownPacketError) Unwrap() error {
	return ErrUnknownPacket
}

// DecodeError is a field-level failure while decoding a packet body.
type DecodeError struct {
	Packet string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Packet, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
