package packet

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

type WriteFn[T any] func(io.Writer, T) error
type ReadFn[T any] func(*Reader) (T, error)

func WriteBoolean(w io.Writer, v bool) (err error) {
	b := byte(0)
	if v {
		b = 1
	}

	_, err = w.Write([]byte{b})
	return
}

func ReadBoolean(r *Reader) (v bool, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return
	}

	switch b {
	case 0:
		v = false
	case 1:
		v = true
	default:
		err = ErrInvalidEnum
	}
	return
}

func WriteByte(w io.Writer, v int8) (err error) {
	_, err = w.Write([]byte{byte(v)})
	return
}

func ReadByte(r *Reader) (v int8, err error) {
	b, err := r.ReadByte()
	return int8(b), err
}

func WriteUnsignedByte(w io.Writer, v uint8) (err error) {
	_, err = w.Write([]byte{v})
	return
}

func ReadUnsignedByte(r *Reader) (v uint8, err error) {
	return r.ReadByte()
}

func WriteShort(w io.Writer, v int16) (err error) {
	return WriteUnsignedShort(w, uint16(v))
}

func ReadShort(r *Reader) (v int16, err error) {
	u, err := ReadUnsignedShort(r)
	return int16(u), err
}

func WriteUnsignedShort(w io.Writer, v uint16) (err error) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err = w.Write(b[:])
	return
}

func ReadUnsignedShort(r *Reader) (v uint16, err error) {
	b, err := r.Read(2)
	if err != nil {
		return
	}

	v = binary.BigEndian.Uint16(b)
	return
}

func WriteInt(w io.Writer, v int32) (err error) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	_, err = w.Write(b[:])
	return
}

func ReadInt(r *Reader) (v int32, err error) {
	b, err := r.Read(4)
	if err != nil {
		return
	}

	v = int32(binary.BigEndian.Uint32(b))
	return
}

func WriteLong(w io.Writer, v int64) (err error) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	_, err = w.Write(b[:])
	return
}

func ReadLong(r *Reader) (v int64, err error) {
	b, err := r.Read(8)
	if err != nil {
		return
	}

	v = int64(binary.BigEndian.Uint64(b))
	return
}

func WriteFloat(w io.Writer, v float32) error {
	return WriteInt(w, int32(math.Float32bits(v)))
}

func ReadFloat(r *Reader) (v float32, err error) {
	bits, err := ReadInt(r)
	return math.Float32frombits(uint32(bits)), err
}

func WriteDouble(w io.Writer, v float64) error {
	return WriteLong(w, int64(math.Float64bits(v)))
}

func ReadDouble(r *Reader) (v float64, err error) {
	bits, err := ReadLong(r)
	return math.Float64frombits(uint64(bits)), err
}

// ReadVarIntField adapts ReadVarInt to ReadFn.
func ReadVarIntField(r *Reader) (int32, error) {
	return ReadVarInt(r)
}

// MaxStringChars is the protocol-wide ceiling for a string field.
const MaxStringChars = 32767

func WriteString(w io.Writer, v string) (err error) {
	err = WriteVarInt(w, int32(len(v)))
	if err != nil {
		return
	}
	_, err = io.WriteString(w, v)
	return
}

// ReadString reads a length-prefixed UTF-8 string holding at most maxChars
// characters. The byte length may not exceed 4*maxChars.
func ReadString(r *Reader, maxChars int) (v string, err error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return
	}

	if length < 0 {
		err = ErrNegativeLength
		return
	}
	if int64(length) > int64(maxChars)*4 {
		err = ErrStringTooLong
		return
	}

	buf, err := r.Read(int(length))
	if err != nil {
		return
	}
	if !utf8.Valid(buf) {
		err = ErrInvalidUTF8
		return
	}
	if utf8.RuneCount(buf) > maxChars {
		err = ErrStringTooLong
		return
	}
	return string(buf), nil
}

// StringReader returns a ReadFn for strings bounded by maxChars.
func StringReader(maxChars int) ReadFn[string] {
	return func(r *Reader) (string, error) {
		return ReadString(r, maxChars)
	}
}

// Position packs X and Z into 26 bits each and Y into 12 bits.
// Out of range values are truncated on write.
type Position struct {
	X int32
	Y int16
	Z int32
}

func WritePosition(w io.Writer, v Position) (err error) {
	packed := (uint64(v.X&0x3FFFFFF) << 38) |
		(uint64(v.Y&0xFFF) << 26) |
		uint64(v.Z&0x3FFFFFF)

	return WriteLong(w, int64(packed))
}

func ReadPosition(r *Reader) (v Position, err error) {
	b, err := r.Read(8)
	if err != nil {
		return
	}

	packed := int64(binary.BigEndian.Uint64(b))

	v.X = int32(packed >> 38)
	v.Y = int16(packed << 26 >> 52)
	v.Z = int32(packed << 38 >> 38)
	return
}

func WriteUUID(w io.Writer, v uuid.UUID) (err error) {
	_, err = w.Write(v[:])
	return
}

func ReadUUID(r *Reader) (v uuid.UUID, err error) {
	b, err := r.Read(16)
	if err != nil {
		return
	}

	v = uuid.UUID(b)
	return
}

func WritePrefixedArray[T any](w io.Writer, v []T, write WriteFn[T]) (err error) {
	err = WriteVarInt(w, int32(len(v)))
	if err != nil {
		return
	}

	for _, item := range v {
		err = write(w, item)
		if err != nil {
			return
		}
	}
	return
}

// ReadPrefixedArray never allocates more elements than there are bytes left
// in the body, so a hostile length prefix cannot force a large allocation.
func ReadPrefixedArray[T any](r *Reader, read ReadFn[T]) (v []T, err error) {
	length := int32(0)
	if length, err = ReadVarInt(r); err != nil {
		return
	}

	if length < 0 {
		err = ErrNegativeLength
		return
	}
	if int(length) > r.Remaining() {
		err = io.ErrUnexpectedEOF
		return
	}

	v = make([]T, length)
	for i := 0; i < int(length); i++ {
		var item T
		if item, err = read(r); err != nil {
			return
		}
		v[i] = item
	}

	return
}

// Optional[T] represents Optional field in a packet
//
// Serialized Optional[T] is prefixed with Boolean of whether the value exists.
// If so, the value T is followed.
type Optional[T any] struct {
	Exists bool
	Item   T
}

func WriteOptional[T any](w io.Writer, v Optional[T], write WriteFn[T]) (err error) {
	err = WriteBoolean(w, v.Exists)
	if err != nil {
		return
	}

	if v.Exists {
		err = write(w, v.Item)
	}
	return
}

func ReadOptional[T any](r *Reader, read ReadFn[T]) (v Optional[T], err error) {
	if v.Exists, err = ReadBoolean(r); err != nil {
		return
	}

	if v.Exists {
		v.Item, err = read(r)
	}
	return
}
