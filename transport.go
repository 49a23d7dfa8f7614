package mcserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/gstoney/mcserver/packet"
)

// DefaultMaxPacketLen is the largest frame payload accepted by default.
const DefaultMaxPacketLen = 1 << 21

type TransportConfig struct {
	MaxPacketLen int32
	ReadSize     int
}

// IOError is a socket level failure. EOF is wrapped too, so callers can test
// for io.EOF with errors.Is.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Transport provides framed read and write access to a stream. Its read side
// and write side share no state, so one goroutine may call Recv while another
// calls Send and Flush. Transport does not deserialize packets.
type Transport struct {
	reader  io.Reader
	decoder *FrameDecoder
	scratch []byte

	writer *bufio.Writer
	frame  []byte
}

// NewTransport creates a Transport. Writes are buffered until Flush.
func NewTransport(r io.Reader, w io.Writer, cfg TransportConfig) *Transport {
	if cfg.MaxPacketLen <= 0 {
		cfg.MaxPacketLen = DefaultMaxPacketLen
	}
	if cfg.ReadSize <= 0 {
		cfg.ReadSize = 4096
	}

	t := &Transport{
		reader:  r,
		decoder: NewFrameDecoder(cfg.MaxPacketLen),
		scratch: make([]byte, cfg.ReadSize),
	}
	if w != nil {
		t.writer = bufio.NewWriter(w)
	}
	return t
}

// Recv returns the next frame payload, reading from the stream as needed.
// When the stream ends, an incomplete trailing frame is discarded and the
// error wraps io.ErrUnexpectedEOF instead of io.EOF.
func (t *Transport) Recv() ([]byte, error) {
	for {
		payload, err := t.decoder.Next()
		if !errors.Is(err, packet.ErrIncomplete) {
			return payload, err
		}

		n, err := t.reader.Read(t.scratch)
		if n > 0 {
			t.decoder.Write(t.scratch[:n])
		}
		if err != nil {
			if n > 0 && err == io.EOF {
				continue
			}
			if err == io.EOF && t.decoder.Buffered() > 0 {
				t.decoder.Reset()
				err = io.ErrUnexpectedEOF
			}
			return nil, &IOError{Op: "read", Err: err}
		}
	}
}

// Buffered reports received bytes not yet returned by Recv.
func (t *Transport) Buffered() int {
	return t.decoder.Buffered()
}

// Send buffers one frame holding payload.
func (t *Transport) Send(payload []byte) error {
	t.frame = AppendFrame(t.frame[:0], payload)
	if _, err := t.writer.Write(t.frame); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// Flush pushes buffered frames to the stream.
func (t *Transport) Flush() error {
	if err := t.writer.Flush(); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}
