package packet

import "io"

// MaxVarIntLen is the longest encoding of a 32-bit VarInt.
const MaxVarIntLen = 5

func WriteVarInt(w io.Writer, v int32) error {
	var b [MaxVarIntLen]byte
	_, err := w.Write(AppendVarInt(b[:0], v))
	return err
}

func AppendVarInt(dst []byte, v int32) []byte {
	uv := uint32(v)
	for uv >= 0x80 {
		dst = append(dst, byte(uv&0x7F)|0x80)
		uv >>= 7
	}
	return append(dst, byte(uv))
}

// VarIntSize returns the number of bytes AppendVarInt emits for v.
func VarIntSize(v int32) int {
	uv := uint32(v)
	n := 1
	for uv >= 0x80 {
		uv >>= 7
		n++
	}
	return n
}

// ReadVarInt reads a VarInt from a stream. Running out of bytes mid-value is
// reported as io.ErrUnexpectedEOF.
func ReadVarInt(r io.ByteReader) (int32, error) {
	var v int32
	var shift uint

	for n := 0; n < MaxVarIntLen; n++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && n > 0 {
				err = io.ErrUnexpectedEOF
			}
			return v, err
		}

		v |= int32(b&0x7F) << shift
		shift += 7

		if (b & 0x80) == 0 {
			return v, nil
		}
	}
	return v, ErrMalformedVarInt
}

// DecodeVarInt decodes a VarInt at the front of buf without consuming it.
// It returns the value and the number of bytes it occupies, ErrIncomplete
// if buf ends before the terminal byte, or ErrMalformedVarInt.
func DecodeVarInt(buf []byte) (v int32, n int, err error) {
	var shift uint
	for n < MaxVarIntLen {
		if n >= len(buf) {
			return 0, 0, ErrIncomplete
		}
		b := buf[n]
		n++

		v |= int32(b&0x7F) << shift
		shift += 7

		if (b & 0x80) == 0 {
			return v, n, nil
		}
	}
	return 0, 0, ErrMalformedVarInt
}
