package lobby

import (
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gstoney/mcserver/packet"
	"github.com/gstoney/mcserver/server"
)

type sent struct {
	to  server.ClientID
	pkt packet.Packet
}

type fakeOutbox struct {
	sent      []sent
	broadcast []packet.Packet
	kicked    map[server.ClientID]string
}

func (o *fakeOutbox) Send(id server.ClientID, p packet.Packet) error {
	o.sent = append(o.sent, sent{id, p})
	return nil
}

func (o *fakeOutbox) Broadcast(p packet.Packet) error {
	o.broadcast = append(o.broadcast, p)
	return nil
}

func (o *fakeOutbox) Disconnect(id server.ClientID, reason string) error {
	if o.kicked == nil {
		o.kicked = make(map[server.ClientID]string)
	}
	o.kicked[id] = reason
	return nil
}

func (o *fakeOutbox) to(id server.ClientID) []packet.Packet {
	var ps []packet.Packet
	for _, s := range o.sent {
		if s.to == id {
			ps = append(ps, s.pkt)
		}
	}
	return ps
}

type journalEntry struct {
	key    uint64
	join   bool
	name   string
	reason string
}

type fakeJournal struct {
	entries []journalEntry
}

func (j *fakeJournal) Joined(key uint64, player uuid.UUID, name, remote string, at time.Time) {
	j.entries = append(j.entries, journalEntry{key: key, join: true, name: name})
}

func (j *fakeJournal) Left(key uint64, at time.Time, reason string) {
	j.entries = append(j.entries, journalEntry{key: key, reason: reason})
}

func joinEvent(id server.ClientID, name string) server.NewConnection {
	return server.NewConnection{ID: id, Profile: server.Profile{
		Name:       name,
		UUID:       server.OfflineUUID(name),
		RemoteAddr: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50000 + int(id)},
	}}
}

func tick(l *Lobby, out *fakeOutbox, events ...server.Event) {
	l.Tick(server.TickContext{Tick: 1, Now: time.Unix(100, 0), Delta: 50 * time.Millisecond, Out: out}, events)
}

func TestLobby_Join(t *testing.T) {
	out := &fakeOutbox{}
	journal := &fakeJournal{}
	l := New(Config{MaxPlayers: 20, GameMode: 1, Spawn: packet.Position{X: 0, Y: 64, Z: 0}}, journal)

	tick(l, out, joinEvent(1, "Steve"))

	got := out.to(1)
	if len(got) != 5 {
		t.Fatalf("expected 5 packets for the joining player, got %d", len(got))
	}
	join, ok := got[0].(*packet.JoinGame)
	if !ok || join.EntityID != 1 || join.GameMode != 1 || join.LevelType != "flat" || join.MaxPlayers != 20 {
		t.Errorf("unexpected JoinGame %+v", got[0])
	}
	if spawn, ok := got[1].(*packet.SpawnPosition); !ok || spawn.Location.Y != 64 {
		t.Errorf("unexpected SpawnPosition %+v", got[1])
	}
	if tp, ok := got[2].(*packet.PlayerTeleport); !ok || tp.X != 0.5 || tp.Y != 64 || tp.Z != 0.5 {
		t.Errorf("unexpected PlayerTeleport %+v", got[2])
	}
	list, ok := got[3].(*packet.PlayerListItem)
	if !ok || list.Action != packet.PlayerListAdd || len(list.Players) != 1 || list.Players[0].Name != "Steve" {
		t.Errorf("unexpected PlayerListItem %+v", got[3])
	}
	if msg, ok := got[4].(*packet.ChatBroadcast); !ok || !strings.Contains(msg.JSON, "Steve joined the game") {
		t.Errorf("unexpected announcement %+v", got[4])
	}

	if len(journal.entries) != 1 || !journal.entries[0].join || journal.entries[0].name != "Steve" {
		t.Errorf("journal %+v", journal.entries)
	}
	if names := l.Online(); len(names) != 1 || names[0] != "Steve" {
		t.Errorf("online %v", names)
	}
}

func TestLobby_SecondPlayer(t *testing.T) {
	out := &fakeOutbox{}
	l := New(Config{MaxPlayers: 20}, nil)
	tick(l, out, joinEvent(1, "Steve"))
	out.sent = nil

	tick(l, out, joinEvent(2, "Alex"))

	var roster *packet.PlayerListItem
	for _, p := range out.to(2) {
		if list, ok := p.(*packet.PlayerListItem); ok {
			roster = list
		}
	}
	if roster == nil || len(roster.Players) != 2 {
		t.Fatalf("new player did not get the full roster: %+v", roster)
	}

	var addedAlex bool
	for _, p := range out.to(1) {
		if list, ok := p.(*packet.PlayerListItem); ok && list.Players[0].Name == "Alex" {
			addedAlex = true
		}
	}
	if !addedAlex {
		t.Error("existing player not told about the new one")
	}
	if join := out.to(2)[0].(*packet.JoinGame); join.EntityID != 2 {
		t.Errorf("entity id %d", join.EntityID)
	}
}

func TestLobby_Full(t *testing.T) {
	out := &fakeOutbox{}
	l := New(Config{MaxPlayers: 1}, nil)

	tick(l, out, joinEvent(1, "Steve"), joinEvent(2, "Alex"))

	if out.kicked[2] != "The server is full!" {
		t.Errorf("kicked %v", out.kicked)
	}
	if len(out.to(2)) != 0 {
		t.Errorf("rejected player got %d packets", len(out.to(2)))
	}

	out.sent = nil
	tick(l, out, server.ConnectionClosed{ID: 2})
	if len(out.sent) != 0 {
		t.Error("close of a rejected player was announced")
	}
}

func TestLobby_Chat(t *testing.T) {
	tests := []struct {
		desc          string
		message       string
		broadcast     string
		reply         string
	}{
		{desc: "Chat", message: "hello", broadcast: `<Steve> hello`},
		{desc: "Blank", message: "   "},
		{desc: "List", message: "/list", reply: "There are 1/20 players online: Steve"},
		{desc: "Where", message: "/where", reply: "You are at 3.0, 70.0, -2.5"},
		{desc: "Unknown command", message: "/op Steve", reply: "Unknown command"},
	}
	for _, tC := range tests {
		t.Run(tC.desc, func(t *testing.T) {
			out := &fakeOutbox{}
			l := New(Config{MaxPlayers: 20}, nil)
			tick(l, out, joinEvent(1, "Steve"),
				server.PacketReceived{ID: 1, Packet: &packet.PlayerPosition{X: 3, FeetY: 70, Z: -2.5, OnGround: true}})
			out.sent = nil

			tick(l, out, server.PacketReceived{ID: 1, Packet: &packet.ChatMessage{Message: tC.message}})

			switch {
			case tC.broadcast != "":
				if len(out.broadcast) != 1 || out.broadcast[0].(*packet.ChatBroadcast).JSON != packet.Text(tC.broadcast) {
					t.Errorf("broadcast %+v", out.broadcast)
				}
			case tC.reply != "":
				if len(out.sent) != 1 {
					t.Fatalf("expected one reply, got %d", len(out.sent))
				}
				msg := out.sent[0].pkt.(*packet.ChatBroadcast)
				if !strings.Contains(msg.JSON, tC.reply) || msg.Position != packet.ChatPositionSystem {
					t.Errorf("reply %+v", msg)
				}
			default:
				if len(out.sent)+len(out.broadcast) != 0 {
					t.Error("blank message produced output")
				}
			}
		})
	}
}

func TestLobby_Movement(t *testing.T) {
	out := &fakeOutbox{}
	l := New(Config{}, nil)
	tick(l, out, joinEvent(1, "Steve"))

	tick(l, out,
		server.PacketReceived{ID: 1, Packet: &packet.PlayerPositionLook{X: 10, FeetY: 65, Z: 20, Yaw: 90}},
		server.PacketReceived{ID: 1, Packet: &packet.PlayerLook{Yaw: 180, Pitch: 10}},
		server.PacketReceived{ID: 1, Packet: &packet.PlayerPosition{X: 11, FeetY: 65, Z: 21}},
	)

	x, y, z, ok := l.Position(1)
	if !ok || x != 11 || y != 65 || z != 21 {
		t.Errorf("position %v %v %v %v", x, y, z, ok)
	}
	if p := l.players[1]; p.yaw != 180 || p.pitch != 10 {
		t.Errorf("look %v %v", p.yaw, p.pitch)
	}
	if _, _, _, ok := l.Position(9); ok {
		t.Error("unknown player has a position")
	}
}

func TestLobby_Brand(t *testing.T) {
	out := &fakeOutbox{}
	l := New(Config{}, nil)
	tick(l, out, joinEvent(1, "Steve"))

	var data []byte
	data = packet.AppendVarInt(data, 7)
	data = append(data, "vanilla"...)
	tick(l, out, server.PacketReceived{ID: 1, Packet: &packet.PluginMessage{Channel: "MC|Brand", Data: data}})

	if l.players[1].brand != "vanilla" {
		t.Errorf("brand %q", l.players[1].brand)
	}
}

func TestLobby_Leave(t *testing.T) {
	out := &fakeOutbox{}
	journal := &fakeJournal{}
	l := New(Config{MaxPlayers: 20}, journal)
	tick(l, out, joinEvent(1, "Steve"), joinEvent(2, "Alex"))
	out.sent = nil

	tick(l, out, server.ConnectionClosed{ID: 1, Reason: errors.New("keep-alive timed out")})

	got := out.to(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(got))
	}
	remove, ok := got[0].(*packet.PlayerListItem)
	if !ok || remove.Action != packet.PlayerListRemove || remove.Players[0].UUID != server.OfflineUUID("Steve") {
		t.Errorf("unexpected %+v", got[0])
	}
	if msg := got[1].(*packet.ChatBroadcast); !strings.Contains(msg.JSON, "Steve left the game") {
		t.Errorf("unexpected %+v", msg)
	}
	if len(out.to(1)) != 0 {
		t.Error("packets sent to the player who left")
	}

	last := journal.entries[len(journal.entries)-1]
	if last.join || last.key != 1 || last.reason != "keep-alive timed out" {
		t.Errorf("journal %+v", last)
	}

	tick(l, out, server.ConnectionClosed{ID: 1})
	if len(journal.entries) != 3 {
		t.Error("second close journaled")
	}
}
