package server

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gstoney/mcserver/internal/logging"
	"github.com/gstoney/mcserver/packet"
)

// Clock is the only time source of the server. Tests swap it out.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Outbox is how game logic talks back to clients. Every method is
// non-blocking.
type Outbox interface {
	Send(id ClientID, p packet.Packet) error
	Broadcast(p packet.Packet) error
	Disconnect(id ClientID, reason string) error
}

// TickContext describes one dispatcher tick.
type TickContext struct {
	Tick  uint64
	Now   time.Time
	Delta time.Duration
	Out   Outbox
}

// Game consumes the events gathered during a tick. Tick runs on the
// dispatcher goroutine only, so implementations need no locking of their
// own state.
type Game interface {
	Tick(tc TickContext, events []Event)
}

// GameFunc adapts a function to Game.
type GameFunc func(tc TickContext, events []Event)

func (f GameFunc) Tick(tc TickContext, events []Event) { f(tc, events) }

type DispatcherConfig struct {
	TickRate     int
	InboundQueue int
	// CatchupMaxTicks bounds Delta after a stall, in ticks.
	CatchupMaxTicks int
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.TickRate <= 0 {
		c.TickRate = 20
	}
	if c.InboundQueue <= 0 {
		c.InboundQueue = 1024
	}
	if c.CatchupMaxTicks <= 0 {
		c.CatchupMaxTicks = 5
	}
	return c
}

// Dispatcher owns the inbound event channel and runs game logic on a fixed
// tick. Events from one connection reach the game in the order they were
// sent.
type Dispatcher struct {
	cfg   DispatcherConfig
	in    chan Event
	game  Game
	out   Outbox
	clock Clock
	log   zerolog.Logger

	tick uint64
	last time.Time
}

func NewDispatcher(game Game, out Outbox, cfg DispatcherConfig, clock Clock) *Dispatcher {
	cfg = cfg.withDefaults()
	if clock == nil {
		clock = SystemClock{}
	}
	return &Dispatcher{
		cfg:   cfg,
		in:    make(chan Event, cfg.InboundQueue),
		game:  game,
		out:   out,
		clock: clock,
		log:   logging.Component("dispatcher"),
	}
}

// Inbound is the channel connections write events to.
func (d *Dispatcher) Inbound() chan<- Event {
	return d.in
}

// Pending reports queued events.
func (d *Dispatcher) Pending() int {
	return len(d.in)
}

// Drain takes every event queued at the time of the call without blocking.
func (d *Dispatcher) Drain() []Event {
	n := len(d.in)
	if n == 0 {
		return nil
	}
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, <-d.in)
	}
	return events
}

// Step runs one tick at now and returns the number of events handed to the
// game. A panic in the game is logged and the tick is dropped.
func (d *Dispatcher) Step(now time.Time) (n int) {
	var delta time.Duration
	budget := time.Second / time.Duration(d.cfg.TickRate)
	switch {
	case d.last.IsZero():
		delta = budget
	default:
		delta = now.Sub(d.last)
		if delta <= 0 {
			delta = budget
		} else if ceiling := budget * time.Duration(d.cfg.CatchupMaxTicks); delta > ceiling {
			delta = ceiling
		}
	}
	d.last = now
	d.tick++

	events := d.Drain()
	tc := TickContext{Tick: d.tick, Now: now, Delta: delta, Out: d.out}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Uint64("tick", d.tick).
				Int("events", len(events)).
				Str("panic", fmt.Sprint(r)).
				Msg("game tick panicked")
		}
	}()

	d.game.Tick(tc, events)
	return len(events)
}

// Run ticks until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	budget := time.Second / time.Duration(d.cfg.TickRate)
	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	d.log.Info().Int("tick_rate", d.cfg.TickRate).Msg("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Uint64("ticks", d.tick).Msg("dispatcher stopped")
			return nil
		case <-ticker.C:
			start := d.clock.Now()
			n := d.Step(start)
			if took := d.clock.Now().Sub(start); took > budget {
				d.log.Warn().
					Uint64("tick", d.tick).
					Int("events", n).
					Dur("took", took).
					Msg("tick over budget")
			}
		}
	}
}
