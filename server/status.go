package server

import (
	"encoding/json"

	"github.com/gstoney/mcserver/packet"
)

// StatusConfig is what the server list shows.
type StatusConfig struct {
	VersionName string
	MOTD        string
	MaxPlayers  int
}

type statusVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type statusPlayers struct {
	Max    int `json:"max"`
	Online int `json:"online"`
}

type statusDescription struct {
	Text string `json:"text"`
}

type statusDocument struct {
	Version     statusVersion     `json:"version"`
	Players     statusPlayers     `json:"players"`
	Description statusDescription `json:"description"`
}

func (s *Server) statusJSON() string {
	name := s.Status.VersionName
	if name == "" {
		name = "1.8.9"
	}
	doc := statusDocument{
		Version:     statusVersion{Name: name, Protocol: packet.ProtocolVersion},
		Players:     statusPlayers{Max: s.Status.MaxPlayers, Online: s.Clients.Online()},
		Description: statusDescription{Text: s.Status.MOTD},
	}
	b, _ := json.Marshal(doc)
	return string(b)
}
