package packet

import (
	"io"
)

// ProtocolVersion is the only protocol revision this package speaks.
const ProtocolVersion = 47

// Packet is a typed packet body. ID is fixed per (state, direction);
// Encode and Decode cover the body only, never the id or frame length.
type Packet interface {
	ID() int32
	Encode(w io.Writer) error
	Decode(r *Reader) error
}

// Next states requested by a Handshake.
const (
	NextStatus = 1
	NextLogin  = 2
)

type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

func (p Handshake) ID() int32 {
	return 0x00
}

func (p Handshake) Encode(w io.Writer) (err error) {
	if err = WriteVarInt(w, p.ProtocolVersion); err != nil {
		return
	}
	if err = WriteString(w, p.ServerAddress); err != nil {
		return
	}
	if err = WriteUnsignedShort(w, p.ServerPort); err != nil {
		return
	}
	return WriteVarInt(w, p.NextState)
}

func (p *Handshake) Decode(r *Reader) (err error) {
	if p.ProtocolVersion, err = ReadVarInt(r); err != nil {
		return
	}
	if p.ServerAddress, err = ReadString(r, 255); err != nil {
		return
	}
	if p.ServerPort, err = ReadUnsignedShort(r); err != nil {
		return
	}
	if p.NextState, err = ReadVarInt(r); err != nil {
		return
	}
	if p.NextState != NextStatus && p.NextState != NextLogin {
		err = ErrInvalidEnum
	}
	return
}

// NextPhase maps the requested next state onto a State.
func (p Handshake) NextPhase() State {
	if p.NextState == NextStatus {
		return Status
	}
	return Login
}
