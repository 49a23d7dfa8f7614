// Package config loads server settings from a TOML file, an optional .env
// file and MCSERVER_* environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/gstoney/mcserver/internal/logging"
)

// Duration is a time.Duration written as "15s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Server ServerConfig   `toml:"server"`
	Status StatusConfig   `toml:"status"`
	Lobby  LobbyConfig    `toml:"lobby"`
	Log    logging.Config `toml:"log"`
	Store  StoreConfig    `toml:"store"`
}

type ServerConfig struct {
	Addr          string `toml:"addr"`
	MaxPacketLen  int32  `toml:"max_packet_len"`
	InboundQueue  int    `toml:"inbound_queue"`
	OutboundQueue int    `toml:"outbound_queue"`
	TickRate      int    `toml:"tick_rate"`

	KeepAliveInterval Duration `toml:"keepalive_interval"`
	KeepAliveTimeout  Duration `toml:"keepalive_timeout"`
	LoginTimeout      Duration `toml:"login_timeout"`
	WriteTimeout      Duration `toml:"write_timeout"`

	PacketRate  float64 `toml:"packet_rate"`
	PacketBurst int     `toml:"packet_burst"`
}

type StatusConfig struct {
	VersionName string `toml:"version_name"`
	MOTD        string `toml:"motd"`
	MaxPlayers  int    `toml:"max_players"`
}

type LobbyConfig struct {
	GameMode  uint8  `toml:"game_mode"`
	LevelType string `toml:"level_type"`
	SpawnX    int32  `toml:"spawn_x"`
	SpawnY    int16  `toml:"spawn_y"`
	SpawnZ    int32  `toml:"spawn_z"`
}

type StoreConfig struct {
	// Path of the SQLite session journal. Empty disables it.
	Path string `toml:"path"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":25565",
			MaxPacketLen:      1 << 21,
			InboundQueue:      1024,
			OutboundQueue:     256,
			TickRate:          20,
			KeepAliveInterval: Duration{15 * time.Second},
			KeepAliveTimeout:  Duration{30 * time.Second},
			LoginTimeout:      Duration{30 * time.Second},
			WriteTimeout:      Duration{10 * time.Second},
			PacketRate:        500,
			PacketBurst:       1000,
		},
		Status: StatusConfig{
			VersionName: "1.8.9",
			MOTD:        "A Minecraft Server",
			MaxPlayers:  20,
		},
		Lobby: LobbyConfig{
			GameMode:  1,
			LevelType: "flat",
			SpawnY:    64,
		},
		Log: logging.DefaultConfig(),
	}
}

// Load builds the effective configuration. A missing envFile is not an
// error; a missing path is. Either may be empty to skip it.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, fmt.Errorf("unknown config keys: [%s]", strings.Join(keys, ", "))
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
