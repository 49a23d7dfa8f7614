// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects the level and outputs of the global logger.
type Config struct {
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
	// File receives JSON lines when set.
	File string `toml:"file"`
}

func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Console: true,
	}
}

// Init replaces the global logger. The returned closer releases the log
// file, if any.
func Init(cfg Config) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		writers = append(writers, f)
		closer = f
	}
	if cfg.Console || len(writers) == 0 {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()

	log.Debug().
		Str("level", level.String()).
		Str("file", cfg.File).
		Msg("logger initialized")

	return closer, nil
}

// Component returns a child of the global logger tagged with component.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
