// Package lobby is a minimal game: players spawn on a flat world, see each
// other in the player list and can chat.
package lobby

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gstoney/mcserver/internal/logging"
	"github.com/gstoney/mcserver/packet"
	"github.com/gstoney/mcserver/server"
)

// Journal records session boundaries. *store.Journal implements it.
type Journal interface {
	Joined(key uint64, player uuid.UUID, name, remote string, at time.Time)
	Left(key uint64, at time.Time, reason string)
}

type Config struct {
	MaxPlayers int
	GameMode   uint8
	LevelType  string
	Spawn      packet.Position
}

type player struct {
	profile  server.Profile
	entityID int32

	x, y, z    float64
	yaw, pitch float32
	onGround   bool

	locale       string
	viewDistance int8
	brand        string
}

type Lobby struct {
	cfg     Config
	journal Journal
	log     zerolog.Logger

	players    map[server.ClientID]*player
	nextEntity int32
}

// New creates a lobby. journal may be nil.
func New(cfg Config, journal Journal) *Lobby {
	if cfg.LevelType == "" {
		cfg.LevelType = "flat"
	}
	return &Lobby{
		cfg:     cfg,
		journal: journal,
		log:     logging.Component("lobby"),
		players: make(map[server.ClientID]*player),
	}
}

// Online returns the names of the players in the lobby, sorted.
func (l *Lobby) Online() []string {
	names := make([]string, 0, len(l.players))
	for _, p := range l.players {
		names = append(names, p.profile.Name)
	}
	sort.Strings(names)
	return names
}

// Position reports where a player last said it was.
func (l *Lobby) Position(id server.ClientID) (x, y, z float64, ok bool) {
	p, ok := l.players[id]
	if !ok {
		return 0, 0, 0, false
	}
	return p.x, p.y, p.z, true
}

func (l *Lobby) Tick(tc server.TickContext, events []server.Event) {
	for _, ev := range events {
		switch ev := ev.(type) {
		case server.NewConnection:
			l.join(tc, ev)
		case server.PacketReceived:
			if p, ok := l.players[ev.ID]; ok {
				l.handle(tc, p, ev.ID, ev.Packet)
			}
		case server.ConnectionClosed:
			l.leave(tc, ev)
		}
	}
}

func (l *Lobby) join(tc server.TickContext, ev server.NewConnection) {
	if l.cfg.MaxPlayers > 0 && len(l.players) >= l.cfg.MaxPlayers {
		tc.Out.Disconnect(ev.ID, "The server is full!")
		return
	}

	l.nextEntity++
	p := &player{
		profile:  ev.Profile,
		entityID: l.nextEntity,
		x:        float64(l.cfg.Spawn.X) + 0.5,
		y:        float64(l.cfg.Spawn.Y),
		z:        float64(l.cfg.Spawn.Z) + 0.5,
	}

	out := tc.Out
	out.Send(ev.ID, &packet.JoinGame{
		EntityID:   p.entityID,
		GameMode:   l.cfg.GameMode,
		MaxPlayers: uint8(l.cfg.MaxPlayers),
		LevelType:  l.cfg.LevelType,
	})
	out.Send(ev.ID, &packet.SpawnPosition{Location: l.cfg.Spawn})
	out.Send(ev.ID, &packet.PlayerTeleport{X: p.x, Y: p.y, Z: p.z})

	entry := l.listEntry(p)
	roster := []packet.PlayerListEntry{entry}
	for id, other := range l.players {
		roster = append(roster, l.listEntry(other))
		out.Send(id, &packet.PlayerListItem{Action: packet.PlayerListAdd, Players: []packet.PlayerListEntry{entry}})
	}
	out.Send(ev.ID, &packet.PlayerListItem{Action: packet.PlayerListAdd, Players: roster})

	l.players[ev.ID] = p
	l.announce(tc, yellow(ev.Profile.Name+" joined the game"))

	if l.journal != nil {
		l.journal.Joined(uint64(ev.ID), ev.Profile.UUID, ev.Profile.Name, addr(ev.Profile), tc.Now)
	}
	l.log.Info().
		Uint64("client", uint64(ev.ID)).
		Str("name", ev.Profile.Name).
		Int32("entity", p.entityID).
		Int("online", len(l.players)).
		Msg("player joined")
}

func (l *Lobby) leave(tc server.TickContext, ev server.ConnectionClosed) {
	p, ok := l.players[ev.ID]
	if !ok {
		return
	}
	delete(l.players, ev.ID)

	reason := "quit"
	if ev.Reason != nil {
		reason = ev.Reason.Error()
	}

	remove := &packet.PlayerListItem{
		Action:  packet.PlayerListRemove,
		Players: []packet.PlayerListEntry{{UUID: p.profile.UUID}},
	}
	for id := range l.players {
		tc.Out.Send(id, remove)
	}
	l.announce(tc, yellow(p.profile.Name+" left the game"))

	if l.journal != nil {
		l.journal.Left(uint64(ev.ID), tc.Now, reason)
	}
	l.log.Info().
		Uint64("client", uint64(ev.ID)).
		Str("name", p.profile.Name).
		Str("reason", reason).
		Msg("player left")
}

func (l *Lobby) handle(tc server.TickContext, p *player, id server.ClientID, pkt packet.Packet) {
	switch pkt := pkt.(type) {
	case *packet.ChatMessage:
		l.chat(tc, p, id, pkt.Message)

	case *packet.PlayerGround:
		p.onGround = pkt.OnGround
	case *packet.PlayerPosition:
		p.x, p.y, p.z, p.onGround = pkt.X, pkt.FeetY, pkt.Z, pkt.OnGround
	case *packet.PlayerLook:
		p.yaw, p.pitch, p.onGround = pkt.Yaw, pkt.Pitch, pkt.OnGround
	case *packet.PlayerPositionLook:
		p.x, p.y, p.z = pkt.X, pkt.FeetY, pkt.Z
		p.yaw, p.pitch, p.onGround = pkt.Yaw, pkt.Pitch, pkt.OnGround

	case *packet.ClientSettings:
		p.locale, p.viewDistance = pkt.Locale, pkt.ViewDistance

	case *packet.PluginMessage:
		if pkt.Channel == "MC|Brand" {
			r := packet.NewReader(pkt.Data)
			if brand, err := packet.ReadString(&r, packet.MaxStringChars); err == nil {
				p.brand = brand
			}
		}
		l.log.Debug().Str("channel", pkt.Channel).Int("len", len(pkt.Data)).Msg("plugin message")

	default:
		l.log.Debug().Str("packet", fmt.Sprintf("%T", pkt)).Msg("ignored packet")
	}
}

func (l *Lobby) chat(tc server.TickContext, p *player, id server.ClientID, msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}

	if cmd, ok := strings.CutPrefix(msg, "/"); ok {
		l.command(tc, p, id, cmd)
		return
	}

	l.log.Info().Str("name", p.profile.Name).Str("message", msg).Msg("chat")
	tc.Out.Broadcast(&packet.ChatBroadcast{
		JSON:     packet.Text("<" + p.profile.Name + "> " + msg),
		Position: packet.ChatPositionChat,
	})
}

func (l *Lobby) command(tc server.TickContext, p *player, id server.ClientID, cmd string) {
	name, _, _ := strings.Cut(cmd, " ")
	var reply string
	switch name {
	case "list":
		names := l.Online()
		reply = fmt.Sprintf("There are %d/%d players online: %s", len(names), l.cfg.MaxPlayers, strings.Join(names, ", "))
	case "where":
		reply = fmt.Sprintf("You are at %.1f, %.1f, %.1f", p.x, p.y, p.z)
	default:
		reply = "Unknown command. Try /list or /where"
	}
	tc.Out.Send(id, &packet.ChatBroadcast{JSON: packet.Text(reply), Position: packet.ChatPositionSystem})
}

// announce sends a system message to everyone in the lobby.
func (l *Lobby) announce(tc server.TickContext, json string) {
	msg := &packet.ChatBroadcast{JSON: json, Position: packet.ChatPositionSystem}
	for id := range l.players {
		tc.Out.Send(id, msg)
	}
}

func (l *Lobby) listEntry(p *player) packet.PlayerListEntry {
	return packet.PlayerListEntry{
		UUID:       p.profile.UUID,
		Name:       p.profile.Name,
		Properties: []packet.ProfileProperty{},
		GameMode:   int32(l.cfg.GameMode),
	}
}

func yellow(s string) string {
	return packet.Text("§e" + s)
}

func addr(p server.Profile) string {
	if p.RemoteAddr == nil {
		return ""
	}
	return p.RemoteAddr.String()
}
