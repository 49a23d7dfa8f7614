package packet

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
)

// Entry registers one packet type for a state and direction. The numeric id
// comes from the packet's own ID method.
type Entry struct {
	State     State
	Direction Direction
	Category  Category
	New       func() Packet

	id   int32
	name string
	typ  reflect.Type
}

func (e Entry) ID() int32 {
	return e.id
}

// Name is the packet's type name, used in logs and errors.
func (e Entry) Name() string {
	return e.name
}

type tableKey struct {
	state State
	dir   Direction
}

// Registry maps (state, direction, id) to packet types. It is immutable once
// built and safe for concurrent use.
type Registry struct {
	tables map[tableKey]map[int32]Entry
}

// NewRegistry builds a registry, rejecting duplicate ids within a table.
func NewRegistry(entries ...Entry) (*Registry, error) {
	reg := &Registry{tables: make(map[tableKey]map[int32]Entry)}

	for _, e := range entries {
		if e.New == nil {
			return nil, errors.New("registry entry without constructor")
		}
		p := e.New()
		e.id = p.ID()
		e.typ = reflect.TypeOf(p)
		e.name = e.typ.Elem().Name()

		k := tableKey{e.State, e.Direction}
		t, ok := reg.tables[k]
		if !ok {
			t = make(map[int32]Entry)
			reg.tables[k] = t
		}
		if prev, dup := t[e.id]; dup {
			return nil, fmt.Errorf("%s %s id 0x%02X registered by both %s and %s",
				e.State, e.Direction, e.id, prev.name, e.name)
		}
		t[e.id] = e
	}
	return reg, nil
}

// Lookup returns the entry for id in the given state and direction.
func (reg *Registry) Lookup(state State, dir Direction, id int32) (Entry, bool) {
	e, ok := reg.tables[tableKey{state, dir}][id]
	return e, ok
}

// Entries returns every entry of one table, in no particular order.
func (reg *Registry) Entries(state State, dir Direction) []Entry {
	t := reg.tables[tableKey{state, dir}]
	entries := make([]Entry, 0, len(t))
	for _, e := range t {
		entries = append(entries, e)
	}
	return entries
}

// Decode parses one frame payload (packet id followed by body).
func (reg *Registry) Decode(state State, dir Direction, payload []byte) (Packet, Entry, error) {
	r := NewReader(payload)

	id, err := ReadVarInt(&r)
	if err != nil {
		return nil, Entry{}, &DecodeError{Packet: "packet id", Err: err}
	}

	e, ok := reg.Lookup(state, dir, id)
	if !ok {
		return nil, Entry{}, &UnknownPacketError{State: state, Direction: dir, ID: id}
	}

	p := e.New()
	if err = p.Decode(&r); err != nil {
		return nil, e, &DecodeError{Packet: e.name, Err: err}
	}
	if r.Remaining() != 0 {
		return nil, e, &DecodeError{Packet: e.name, Err: ErrTrailingBytes}
	}
	return p, e, nil
}

// Encode serializes p as packet id followed by body.
func (reg *Registry) Encode(state State, dir Direction, p Packet) ([]byte, error) {
	return reg.AppendPacket(nil, state, dir, p)
}

// AppendPacket is Encode appending to dst. It fails only when p is not
// registered for the state and direction.
func (reg *Registry) AppendPacket(dst []byte, state State, dir Direction, p Packet) ([]byte, error) {
	id := p.ID()
	e, ok := reg.Lookup(state, dir, id)
	if !ok || e.typ != reflect.TypeOf(p) {
		return dst, &UnknownPacketError{State: state, Direction: dir, ID: id}
	}

	buf := bytes.NewBuffer(AppendVarInt(dst, id))
	if err := p.Encode(buf); err != nil {
		return dst, fmt.Errorf("encode %s: %w", e.name, err)
	}
	return buf.Bytes(), nil
}
