package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	mcserver "github.com/gstoney/mcserver"
	"github.com/gstoney/mcserver/internal/logging"
	"github.com/gstoney/mcserver/packet"
)

// Config tunes every connection a Server accepts.
type Config struct {
	MaxPacketLen  int32
	OutboundQueue int

	// PacketRate limits decoded packets per second per connection.
	// Zero disables the limit.
	PacketRate  float64
	PacketBurst int

	KeepAliveInterval time.Duration
	KeepAliveTimeout  time.Duration
	// LoginTimeout bounds the time from accept to entering Play.
	LoginTimeout time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig matches vanilla 1.8 behaviour where there is one.
func DefaultConfig() Config {
	return Config{
		MaxPacketLen:      mcserver.DefaultMaxPacketLen,
		OutboundQueue:     256,
		PacketRate:        500,
		PacketBurst:       1000,
		KeepAliveInterval: 15 * time.Second,
		KeepAliveTimeout:  30 * time.Second,
		LoginTimeout:      30 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// A Server accepts client connections and runs one Conn per client.
// Logged-in clients are announced on Events.
type Server struct {
	Addr     string
	Config   Config
	Status   StatusConfig
	Registry *packet.Registry
	Clients  *Clients
	Events   chan<- Event
	Clock    Clock
	Logger   *zerolog.Logger

	wg sync.WaitGroup
}

func (s *Server) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	l := logging.Component("server")
	s.Logger = &l
	return s.Logger
}

func (s *Server) clock() Clock {
	if s.Clock == nil {
		return SystemClock{}
	}
	return s.Clock
}

func (s *Server) init() error {
	if s.Events == nil {
		return errors.New("server: nil Events channel")
	}
	if s.Registry == nil {
		s.Registry = packet.Default()
	}
	if s.Clients == nil {
		s.Clients = NewClients(s.Registry)
	}
	def := DefaultConfig()
	if s.Config.OutboundQueue <= 0 {
		s.Config.OutboundQueue = def.OutboundQueue
	}
	if s.Config.KeepAliveInterval > 0 && s.Config.KeepAliveTimeout <= 0 {
		s.Config.KeepAliveTimeout = 2 * s.Config.KeepAliveInterval
	}
	if s.Config.PacketRate > 0 && s.Config.PacketBurst <= 0 {
		s.Config.PacketBurst = int(s.Config.PacketRate)
	}
	s.logger()
	return nil
}

// ListenAndServe listens on s.Addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr, err)
	}
	return s.Serve(ctx, l)
}

// Serve accepts incoming connections on the Listener l, creating a new
// goroutine for each. It returns once ctx is done and every connection has
// finished.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	if err := s.init(); err != nil {
		l.Close()
		return err
	}

	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()

	s.Logger.Info().Str("addr", l.Addr().String()).Msg("listening")

	var delay time.Duration
	for {
		nc, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.Logger.Info().Msg("listener stopped")
				s.wg.Wait()
				return nil
			}

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else if delay *= 2; delay > time.Second {
				delay = time.Second
			}
			s.Logger.Error().Err(err).Dur("retry", delay).Msg("accept failed")
			time.Sleep(delay)
			continue
		}
		delay = 0

		if tcp, ok := nc.(*net.TCPConn); ok {
			tcp.SetNoDelay(true)
		}

		c := newConn(s, nc)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.serve(ctx)
		}()
	}
}
