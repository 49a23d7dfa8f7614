package packet

import (
	"io"
)

// MaxUsernameChars bounds LoginStart.Username.
const MaxUsernameChars = 16

type LoginStart struct {
	Username string
}

func (p LoginStart) ID() int32 {
	return 0x00
}

func (p LoginStart) Encode(w io.Writer) error {
	return WriteString(w, p.Username)
}

func (p *LoginStart) Decode(r *Reader) (err error) {
	p.Username, err = ReadString(r, MaxUsernameChars)
	return
}

type LoginDisconnect struct {
	Reason string // JSON Text Component
}

func (p LoginDisconnect) ID() int32 {
	return 0x00
}

func (p LoginDisconnect) Encode(w io.Writer) error {
	return WriteString(w, p.Reason)
}

func (p *LoginDisconnect) Decode(r *Reader) (err error) {
	p.Reason, err = ReadString(r, MaxStringChars)
	return
}

// LoginSuccess carries the player UUID in its hyphenated text form.
type LoginSuccess struct {
	UUID     string
	Username string
}

func (p LoginSuccess) ID() int32 {
	return 0x02
}

func (p LoginSuccess) Encode(w io.Writer) (err error) {
	if err = WriteString(w, p.UUID); err != nil {
		return
	}
	return WriteString(w, p.Username)
}

func (p *LoginSuccess) Decode(r *Reader) (err error) {
	if p.UUID, err = ReadString(r, 36); err != nil {
		return
	}
	p.Username, err = ReadString(r, MaxUsernameChars)
	return
}
