package packet

import (
	"io"

	"github.com/google/uuid"
)

// Serverbound

// KeepAlive answers a KeepAliveRequest with the same id.
type KeepAlive struct {
	KeepAliveID int32
}

func (p KeepAlive) ID() int32 {
	return 0x00
}

func (p KeepAlive) Encode(w io.Writer) error {
	return WriteVarInt(w, p.KeepAliveID)
}

func (p *KeepAlive) Decode(r *Reader) (err error) {
	p.KeepAliveID, err = ReadVarInt(r)
	return
}

type ChatMessage struct {
	Message string
}

func (p ChatMessage) ID() int32 {
	return 0x01
}

func (p ChatMessage) Encode(w io.Writer) error {
	return WriteString(w, p.Message)
}

func (p *ChatMessage) Decode(r *Reader) (err error) {
	p.Message, err = ReadString(r, 100)
	return
}

type PlayerGround struct {
	OnGround bool
}

func (p PlayerGround) ID() int32 {
	return 0x03
}

func (p PlayerGround) Encode(w io.Writer) error {
	return WriteBoolean(w, p.OnGround)
}

func (p *PlayerGround) Decode(r *Reader) (err error) {
	p.OnGround, err = ReadBoolean(r)
	return
}

type PlayerPosition struct {
	X, FeetY, Z float64
	OnGround    bool
}

func (p PlayerPosition) ID() int32 {
	return 0x04
}

func (p PlayerPosition) Encode(w io.Writer) (err error) {
	if err = writeVec(w, p.X, p.FeetY, p.Z); err != nil {
		return
	}
	return WriteBoolean(w, p.OnGround)
}

func (p *PlayerPosition) Decode(r *Reader) (err error) {
	if p.X, p.FeetY, p.Z, err = readVec(r); err != nil {
		return
	}
	p.OnGround, err = ReadBoolean(r)
	return
}

type PlayerLook struct {
	Yaw, Pitch float32
	OnGround   bool
}

func (p PlayerLook) ID() int32 {
	return 0x05
}

func (p PlayerLook) Encode(w io.Writer) (err error) {
	if err = WriteFloat(w, p.Yaw); err != nil {
		return
	}
	if err = WriteFloat(w, p.Pitch); err != nil {
		return
	}
	return WriteBoolean(w, p.OnGround)
}

func (p *PlayerLook) Decode(r *Reader) (err error) {
	if p.Yaw, err = ReadFloat(r); err != nil {
		return
	}
	if p.Pitch, err = ReadFloat(r); err != nil {
		return
	}
	p.OnGround, err = ReadBoolean(r)
	return
}

type PlayerPositionLook struct {
	X, FeetY, Z float64
	Yaw, Pitch  float32
	OnGround    bool
}

func (p PlayerPositionLook) ID() int32 {
	return 0x06
}

func (p PlayerPositionLook) Encode(w io.Writer) (err error) {
	if err = writeVec(w, p.X, p.FeetY, p.Z); err != nil {
		return
	}
	if err = WriteFloat(w, p.Yaw); err != nil {
		return
	}
	if err = WriteFloat(w, p.Pitch); err != nil {
		return
	}
	return WriteBoolean(w, p.OnGround)
}

func (p *PlayerPositionLook) Decode(r *Reader) (err error) {
	if p.X, p.FeetY, p.Z, err = readVec(r); err != nil {
		return
	}
	if p.Yaw, err = ReadFloat(r); err != nil {
		return
	}
	if p.Pitch, err = ReadFloat(r); err != nil {
		return
	}
	p.OnGround, err = ReadBoolean(r)
	return
}

type ClientSettings struct {
	Locale       string
	ViewDistance int8
	ChatMode     int8
	ChatColors   bool
	SkinParts    uint8
}

func (p ClientSettings) ID() int32 {
	return 0x15
}

func (p ClientSettings) Encode(w io.Writer) (err error) {
	if err = WriteString(w, p.Locale); err != nil {
		return
	}
	if err = WriteByte(w, p.ViewDistance); err != nil {
		return
	}
	if err = WriteByte(w, p.ChatMode); err != nil {
		return
	}
	if err = WriteBoolean(w, p.ChatColors); err != nil {
		return
	}
	return WriteUnsignedByte(w, p.SkinParts)
}

func (p *ClientSettings) Decode(r *Reader) (err error) {
	if p.Locale, err = ReadString(r, 16); err != nil {
		return
	}
	if p.ViewDistance, err = ReadByte(r); err != nil {
		return
	}
	if p.ChatMode, err = ReadByte(r); err != nil {
		return
	}
	if p.ChatColors, err = ReadBoolean(r); err != nil {
		return
	}
	p.SkinParts, err = ReadUnsignedByte(r)
	return
}

// PluginMessage's Data runs to the end of the packet body.
type PluginMessage struct {
	Channel string
	Data    []byte
}

func (p PluginMessage) ID() int32 {
	return 0x17
}

func (p PluginMessage) Encode(w io.Writer) (err error) {
	if err = WriteString(w, p.Channel); err != nil {
		return
	}
	_, err = w.Write(p.Data)
	return
}

func (p *PluginMessage) Decode(r *Reader) (err error) {
	if p.Channel, err = ReadString(r, 20); err != nil {
		return
	}
	p.Data = r.Rest()
	return
}

// Clientbound

type KeepAliveRequest struct {
	KeepAliveID int32
}

func (p KeepAliveRequest) ID() int32 {
	return 0x00
}

func (p KeepAliveRequest) Encode(w io.Writer) error {
	return WriteVarInt(w, p.KeepAliveID)
}

func (p *KeepAliveRequest) Decode(r *Reader) (err error) {
	p.KeepAliveID, err = ReadVarInt(r)
	return
}

type JoinGame struct {
	EntityID         int32
	GameMode         uint8
	Dimension        int8
	Difficulty       uint8
	MaxPlayers       uint8
	LevelType        string
	ReducedDebugInfo bool
}

func (p JoinGame) ID() int32 {
	return 0x01
}

func (p JoinGame) Encode(w io.Writer) (err error) {
	if err = WriteInt(w, p.EntityID); err != nil {
		return
	}
	if err = WriteUnsignedByte(w, p.GameMode); err != nil {
		return
	}
	if err = WriteByte(w, p.Dimension); err != nil {
		return
	}
	if err = WriteUnsignedByte(w, p.Difficulty); err != nil {
		return
	}
	if err = WriteUnsignedByte(w, p.MaxPlayers); err != nil {
		return
	}
	if err = WriteString(w, p.LevelType); err != nil {
		return
	}
	return WriteBoolean(w, p.ReducedDebugInfo)
}

func (p *JoinGame) Decode(r *Reader) (err error) {
	if p.EntityID, err = ReadInt(r); err != nil {
		return
	}
	if p.GameMode, err = ReadUnsignedByte(r); err != nil {
		return
	}
	if p.Dimension, err = ReadByte(r); err != nil {
		return
	}
	if p.Difficulty, err = ReadUnsignedByte(r); err != nil {
		return
	}
	if p.MaxPlayers, err = ReadUnsignedByte(r); err != nil {
		return
	}
	if p.LevelType, err = ReadString(r, 16); err != nil {
		return
	}
	p.ReducedDebugInfo, err = ReadBoolean(r)
	return
}

// Chat positions for ChatBroadcast.
const (
	ChatPositionChat   int8 = 0
	ChatPositionSystem int8 = 1
	ChatPositionHotbar int8 = 2
)

type ChatBroadcast struct {
	JSON     string
	Position int8
}

func (p ChatBroadcast) ID() int32 {
	return 0x02
}

func (p ChatBroadcast) Encode(w io.Writer) (err error) {
	if err = WriteString(w, p.JSON); err != nil {
		return
	}
	return WriteByte(w, p.Position)
}

func (p *ChatBroadcast) Decode(r *Reader) (err error) {
	if p.JSON, err = ReadString(r, MaxStringChars); err != nil {
		return
	}
	p.Position, err = ReadByte(r)
	return
}

type SpawnPosition struct {
	Location Position
}

func (p SpawnPosition) ID() int32 {
	return 0x05
}

func (p SpawnPosition) Encode(w io.Writer) error {
	return WritePosition(w, p.Location)
}

func (p *SpawnPosition) Decode(r *Reader) (err error) {
	p.Location, err = ReadPosition(r)
	return
}

// PlayerTeleport is the clientbound Player Position And Look.
type PlayerTeleport struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      int8
}

func (p PlayerTeleport) ID() int32 {
	return 0x08
}

func (p PlayerTeleport) Encode(w io.Writer) (err error) {
	if err = writeVec(w, p.X, p.Y, p.Z); err != nil {
		return
	}
	if err = WriteFloat(w, p.Yaw); err != nil {
		return
	}
	if err = WriteFloat(w, p.Pitch); err != nil {
		return
	}
	return WriteByte(w, p.Flags)
}

func (p *PlayerTeleport) Decode(r *Reader) (err error) {
	if p.X, p.Y, p.Z, err = readVec(r); err != nil {
		return
	}
	if p.Yaw, err = ReadFloat(r); err != nil {
		return
	}
	if p.Pitch, err = ReadFloat(r); err != nil {
		return
	}
	p.Flags, err = ReadByte(r)
	return
}

// Player list actions supported by PlayerListItem.
const (
	PlayerListAdd    int32 = 0
	PlayerListRemove int32 = 4
)

type ProfileProperty struct {
	Name      string
	Value     string
	Signature Optional[string]
}

func writeProfileProperty(w io.Writer, v ProfileProperty) (err error) {
	if err = WriteString(w, v.Name); err != nil {
		return
	}
	if err = WriteString(w, v.Value); err != nil {
		return
	}
	return WriteOptional(w, v.Signature, WriteString)
}

func readProfileProperty(r *Reader) (v ProfileProperty, err error) {
	if v.Name, err = ReadString(r, MaxStringChars); err != nil {
		return
	}
	if v.Value, err = ReadString(r, MaxStringChars); err != nil {
		return
	}
	v.Signature, err = ReadOptional(r, StringReader(MaxStringChars))
	return
}

// PlayerListEntry fields past UUID are only on the wire for PlayerListAdd.
type PlayerListEntry struct {
	UUID        uuid.UUID
	Name        string
	Properties  []ProfileProperty
	GameMode    int32
	Ping        int32
	DisplayName Optional[string]
}

type PlayerListItem struct {
	Action  int32
	Players []PlayerListEntry
}

func (p PlayerListItem) ID() int32 {
	return 0x38
}

func (p PlayerListItem) Encode(w io.Writer) (err error) {
	if p.Action != PlayerListAdd && p.Action != PlayerListRemove {
		return ErrInvalidEnum
	}
	if err = WriteVarInt(w, p.Action); err != nil {
		return
	}
	return WritePrefixedArray(w, p.Players, func(w io.Writer, e PlayerListEntry) (err error) {
		if err = WriteUUID(w, e.UUID); err != nil || p.Action == PlayerListRemove {
			return
		}
		if err = WriteString(w, e.Name); err != nil {
			return
		}
		if err = WritePrefixedArray(w, e.Properties, writeProfileProperty); err != nil {
			return
		}
		if err = WriteVarInt(w, e.GameMode); err != nil {
			return
		}
		if err = WriteVarInt(w, e.Ping); err != nil {
			return
		}
		return WriteOptional(w, e.DisplayName, WriteString)
	})
}

func (p *PlayerListItem) Decode(r *Reader) (err error) {
	if p.Action, err = ReadVarInt(r); err != nil {
		return
	}
	if p.Action != PlayerListAdd && p.Action != PlayerListRemove {
		return ErrInvalidEnum
	}
	p.Players, err = ReadPrefixedArray(r, func(r *Reader) (e PlayerListEntry, err error) {
		if e.UUID, err = ReadUUID(r); err != nil || p.Action == PlayerListRemove {
			return
		}
		if e.Name, err = ReadString(r, MaxUsernameChars); err != nil {
			return
		}
		if e.Properties, err = ReadPrefixedArray(r, readProfileProperty); err != nil {
			return
		}
		if e.GameMode, err = ReadVarInt(r); err != nil {
			return
		}
		if e.Ping, err = ReadVarInt(r); err != nil {
			return
		}
		e.DisplayName, err = ReadOptional(r, StringReader(MaxStringChars))
		return
	})
	return
}

type Disconnect struct {
	Reason string // JSON Text Component
}

func (p Disconnect) ID() int32 {
	return 0x40
}

func (p Disconnect) Encode(w io.Writer) error {
	return WriteString(w, p.Reason)
}

func (p *Disconnect) Decode(r *Reader) (err error) {
	p.Reason, err = ReadString(r, MaxStringChars)
	return
}

func writeVec(w io.Writer, x, y, z float64) (err error) {
	if err = WriteDouble(w, x); err != nil {
		return
	}
	if err = WriteDouble(w, y); err != nil {
		return
	}
	return WriteDouble(w, z)
}

func readVec(r *Reader) (x, y, z float64, err error) {
	if x, err = ReadDouble(r); err != nil {
		return
	}
	if y, err = ReadDouble(r); err != nil {
		return
	}
	z, err = ReadDouble(r)
	return
}
