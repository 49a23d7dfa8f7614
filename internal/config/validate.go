package config

import (
	"errors"
	"fmt"
	"net"
)

// ValidationError names the offending key.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	s := c.Server
	if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		add("server.addr", "invalid listen address %q", s.Addr)
	}
	if s.MaxPacketLen < 1 || s.MaxPacketLen > 1<<21 {
		add("server.max_packet_len", "must be between 1 and %d", 1<<21)
	}
	if s.InboundQueue < 1 {
		add("server.inbound_queue", "must be at least 1")
	}
	if s.OutboundQueue < 1 {
		add("server.outbound_queue", "must be at least 1")
	}
	if s.TickRate < 1 || s.TickRate > 1000 {
		add("server.tick_rate", "must be between 1 and 1000")
	}
	if s.KeepAliveInterval.Duration < 0 {
		add("server.keepalive_interval", "must not be negative")
	}
	if s.KeepAliveInterval.Duration > 0 && s.KeepAliveTimeout.Duration <= s.KeepAliveInterval.Duration {
		add("server.keepalive_timeout", "must be longer than keepalive_interval")
	}
	if s.PacketRate < 0 {
		add("server.packet_rate", "must not be negative")
	}
	if s.PacketRate > 0 && s.PacketBurst < 1 {
		add("server.packet_burst", "must be at least 1 when packet_rate is set")
	}

	if c.Status.MaxPlayers < 0 || c.Status.MaxPlayers > 255 {
		add("status.max_players", "must be between 0 and 255")
	}
	if c.Lobby.GameMode > 3 {
		add("lobby.game_mode", "must be 0 to 3")
	}
	switch c.Lobby.LevelType {
	case "default", "flat", "largeBiomes", "amplified", "default_1_1":
	default:
		add("lobby.level_type", "unknown level type %q", c.Lobby.LevelType)
	}

	return errors.Join(errs...)
}
