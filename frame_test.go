package mcserver

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/gstoney/mcserver/packet"
)

func testPayload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i * 7)
	}
	return p
}

// drain collects every complete payload currently buffered.
func drain(t *testing.T, d *FrameDecoder) [][]byte {
	t.Helper()
	var out [][]byte
	for {
		p, err := d.Next()
		if errors.Is(err, packet.ErrIncomplete) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, p)
	}
}

// TestFrameDecoder_EverySplit feeds one frame cut at every pair of offsets
// and checks exactly one identical payload comes out.
func TestFrameDecoder_EverySplit(t *testing.T) {
	payload := testPayload(200) // two byte length prefix
	frame := AppendFrame(nil, payload)

	for i := 0; i <= len(frame); i++ {
		for j := i; j <= len(frame); j++ {
			d := NewFrameDecoder(1024)
			var got [][]byte
			for _, piece := range [][]byte{frame[:i], frame[i:j], frame[j:]} {
				d.Write(piece)
				got = append(got, drain(t, d)...)
			}

			if len(got) != 1 {
				t.Fatalf("split (%d,%d): got %d payloads, want 1", i, j, len(got))
			}
			if !bytes.Equal(got[0], payload) {
				t.Fatalf("split (%d,%d): payload mismatch", i, j)
			}
			if d.Buffered() != 0 {
				t.Fatalf("split (%d,%d): %d bytes left over", i, j, d.Buffered())
			}
		}
	}
}

// TestFrameDecoder_RandomChunks streams many frames in random sized chunks.
func TestFrameDecoder_RandomChunks(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	var want [][]byte
	var stream []byte
	for i := 0; i < 300; i++ {
		p := testPayload(1 + rng.IntN(600))
		p[0] = byte(i)
		want = append(want, p)
		stream = AppendFrame(stream, p)
	}

	d := NewFrameDecoder(1024)
	var got [][]byte
	for len(stream) > 0 {
		n := 1 + rng.IntN(97)
		if n > len(stream) {
			n = len(stream)
		}
		d.Write(stream[:n])
		stream = stream[n:]
		got = append(got, drain(t, d)...)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d payloads, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("payload %d mismatch", i)
		}
	}
}

func TestFrameDecoder_PeekDoesNotConsume(t *testing.T) {
	d := NewFrameDecoder(1024)
	frame := AppendFrame(nil, testPayload(300))

	d.Write(frame[:1]) // half of the length prefix
	if _, err := d.Next(); !errors.Is(err, packet.ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	d.Write(frame[1:10])
	if _, err := d.Next(); !errors.Is(err, packet.ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if d.Buffered() != 10 {
		t.Fatalf("Buffered = %d, want 10", d.Buffered())
	}
	d.Write(frame[10:])
	if got := drain(t, d); len(got) != 1 {
		t.Fatalf("got %d payloads, want 1", len(got))
	}
}

func TestFrameDecoder_Errors(t *testing.T) {
	tests := []struct {
		desc      string
		max       int32
		in        []byte
		expectErr error
	}{
		{
			desc:      "Payload over limit rejected before it arrives",
			max:       100,
			in:        []byte{0xe5, 0x00}, // length 101, no body yet
			expectErr: ErrFrameTooLarge,
		},
		{
			desc:      "Zero length",
			max:       100,
			in:        []byte{0x00},
			expectErr: ErrBadFrameLength,
		},
		{
			desc:      "Negative length",
			max:       100,
			in:        []byte{0xff, 0xff, 0xff, 0xff, 0x0f},
			expectErr: ErrBadFrameLength,
		},
		{
			desc:      "Malformed length",
			max:       100,
			in:        []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01},
			expectErr: packet.ErrMalformedVarInt,
		},
	}
	for _, tC := range tests {
		t.Run(tC.desc, func(t *testing.T) {
			d := NewFrameDecoder(tC.max)
			d.Write(tC.in)
			if _, err := d.Next(); !errors.Is(err, tC.expectErr) {
				t.Errorf("expected %v, got %v", tC.expectErr, err)
			}
		})
	}
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := testPayload(130)
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), AppendFrame(nil, payload)) {
		t.Errorf("WriteFrame and AppendFrame disagree")
	}
	if !bytes.Equal(buf.Bytes()[:2], []byte{0x82, 0x01}) {
		t.Errorf("unexpected prefix %x", buf.Bytes()[:2])
	}
}
