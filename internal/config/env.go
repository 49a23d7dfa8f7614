package config

import (
	"fmt"
	"strconv"
	"time"
)

const envPrefix = "MCSERVER_"

type envVar struct {
	key   string
	apply func(c *Config, v string) error
}

var envVars = []envVar{
	{"ADDR", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{"TICK_RATE", intVar(func(c *Config) *int { return &c.Server.TickRate })},
	{"OUTBOUND_QUEUE", intVar(func(c *Config) *int { return &c.Server.OutboundQueue })},
	{"INBOUND_QUEUE", intVar(func(c *Config) *int { return &c.Server.InboundQueue })},
	{"KEEPALIVE_INTERVAL", durationVar(func(c *Config) *time.Duration { return &c.Server.KeepAliveInterval.Duration })},
	{"KEEPALIVE_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.Server.KeepAliveTimeout.Duration })},
	{"PACKET_RATE", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		c.Server.PacketRate = f
		return err
	}},
	{"MOTD", func(c *Config, v string) error { c.Status.MOTD = v; return nil }},
	{"MAX_PLAYERS", intVar(func(c *Config) *int { return &c.Status.MaxPlayers })},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"LOG_FILE", func(c *Config, v string) error { c.Log.File = v; return nil }},
	{"STORE_PATH", func(c *Config, v string) error { c.Store.Path = v; return nil }},
}

func intVar(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func durationVar(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, ev := range envVars {
		v, ok := lookup(envPrefix + ev.key)
		if !ok {
			continue
		}
		if err := ev.apply(c, v); err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, ev.key, err)
		}
	}
	return nil
}
