package mcserver

import (
	"errors"
	"io"

	"github.com/gstoney/mcserver/packet"
)

var (
	ErrFrameTooLarge  = errors.New("frame exceeds maximum payload length")
	ErrBadFrameLength = errors.New("invalid frame length")
)

// FrameDecoder accumulates stream bytes and splits them into frame payloads.
// Bytes may arrive in arbitrary pieces; a payload is only handed out once it
// is complete, and its length prefix and body are consumed together.
type FrameDecoder struct {
	buf []byte
	off int
	max int32
}

// NewFrameDecoder returns a decoder rejecting payloads longer than maxPayload.
func NewFrameDecoder(maxPayload int32) *FrameDecoder {
	return &FrameDecoder{max: maxPayload}
}

// Write appends p to the receive buffer. It never fails.
func (d *FrameDecoder) Write(p []byte) (int, error) {
	if d.off > 0 && d.off >= len(d.buf)/2 {
		n := copy(d.buf, d.buf[d.off:])
		d.buf = d.buf[:n]
		d.off = 0
	}
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Next returns the next complete payload, or packet.ErrIncomplete if the
// buffer does not hold one yet. The length limit is checked before the
// payload is waited for or copied. The returned slice is owned by the caller.
func (d *FrameDecoder) Next() ([]byte, error) {
	pending := d.buf[d.off:]

	length, n, err := packet.DecodeVarInt(pending)
	if err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, ErrBadFrameLength
	}
	if length > d.max {
		return nil, ErrFrameTooLarge
	}
	if len(pending)-n < int(length) {
		return nil, packet.ErrIncomplete
	}

	payload := make([]byte, length)
	copy(payload, pending[n:])
	d.off += n + int(length)
	if d.off == len(d.buf) {
		d.buf = d.buf[:0]
		d.off = 0
	}
	return payload, nil
}

// Buffered reports how many received bytes have not been handed out.
func (d *FrameDecoder) Buffered() int {
	return len(d.buf) - d.off
}

// Reset drops everything buffered.
func (d *FrameDecoder) Reset() {
	d.buf = d.buf[:0]
	d.off = 0
}

// AppendFrame appends VarInt(len(payload)) and payload to dst.
func AppendFrame(dst, payload []byte) []byte {
	dst = packet.AppendVarInt(dst, int32(len(payload)))
	return append(dst, payload...)
}

// WriteFrame writes one length-prefixed frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	if err := packet.WriteVarInt(w, int32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
