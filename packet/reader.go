package packet

import "io"

// Reader reads fields out of a single packet body. Running past the end of
// the body yields io.ErrUnexpectedEOF.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) Reader {
	return Reader{
		buf: buf,
		off: 0,
	}
}

func (r Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) ReadByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// Read returns the next n bytes. The slice aliases the body.
func (r *Reader) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}
	if r.off+n > len(r.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Rest consumes and returns a copy of everything left in the body.
func (r *Reader) Rest() []byte {
	b := make([]byte, len(r.buf)-r.off)
	copy(b, r.buf[r.off:])
	r.off = len(r.buf)
	return b
}
