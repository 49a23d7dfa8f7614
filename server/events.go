package server

import (
	"net"

	"github.com/google/uuid"

	"github.com/gstoney/mcserver/packet"
)

// ClientID identifies one connection for the lifetime of the process.
// IDs are never reused.
type ClientID uint64

// Profile describes a logged-in player.
type Profile struct {
	Name       string
	UUID       uuid.UUID
	RemoteAddr net.Addr

	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
}

// Event is a message from a connection to the dispatcher: one of
// NewConnection, PacketReceived or ConnectionClosed.
type Event interface {
	Client() ClientID
	event()
}

// NewConnection is sent once a client has logged in and entered Play.
type NewConnection struct {
	ID      ClientID
	Profile Profile
}

// PacketReceived carries one decoded gameplay packet.
type PacketReceived struct {
	ID     ClientID
	Packet packet.Packet
}

// ConnectionClosed is sent exactly once for every connection that produced
// a NewConnection. Reason is nil for an orderly close.
type ConnectionClosed struct {
	ID     ClientID
	Reason error
}

func (e NewConnection) Client() ClientID    { return e.ID }
func (e PacketReceived) Client() ClientID   { return e.ID }
func (e ConnectionClosed) Client() ClientID { return e.ID }

func (NewConnection) event()    {}
func (PacketReceived) event()   {}
func (ConnectionClosed) event() {}
