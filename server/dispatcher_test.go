package server

import (
	"testing"
	"time"

	"github.com/gstoney/mcserver/packet"
)

type recordingGame struct {
	ticks  []TickContext
	events [][]Event
}

func (g *recordingGame) Tick(tc TickContext, events []Event) {
	g.ticks = append(g.ticks, tc)
	g.events = append(g.events, events)
}

func TestDispatcher_DrainOrder(t *testing.T) {
	game := &recordingGame{}
	d := NewDispatcher(game, nil, DispatcherConfig{InboundQueue: 16}, nil)

	in := d.Inbound()
	in <- NewConnection{ID: 1, Profile: Profile{Name: "Steve"}}
	in <- PacketReceived{ID: 1, Packet: &packet.ChatMessage{Message: "a"}}
	in <- PacketReceived{ID: 2, Packet: &packet.ChatMessage{Message: "x"}}
	in <- PacketReceived{ID: 1, Packet: &packet.ChatMessage{Message: "b"}}
	in <- ConnectionClosed{ID: 1}

	if n := d.Step(time.Unix(100, 0)); n != 5 {
		t.Fatalf("Step handled %d events", n)
	}
	if d.Pending() != 0 {
		t.Errorf("%d events left", d.Pending())
	}

	var fromOne []string
	for _, ev := range game.events[0] {
		if ev.Client() != 1 {
			continue
		}
		switch ev := ev.(type) {
		case NewConnection:
			fromOne = append(fromOne, "join")
		case PacketReceived:
			fromOne = append(fromOne, ev.Packet.(*packet.ChatMessage).Message)
		case ConnectionClosed:
			fromOne = append(fromOne, "leave")
		}
	}
	want := []string{"join", "a", "b", "leave"}
	if len(fromOne) != len(want) {
		t.Fatalf("got %v, want %v", fromOne, want)
	}
	for i := range want {
		if fromOne[i] != want[i] {
			t.Fatalf("got %v, want %v", fromOne, want)
		}
	}
}

func TestDispatcher_EmptyTick(t *testing.T) {
	game := &recordingGame{}
	d := NewDispatcher(game, nil, DispatcherConfig{}, nil)

	if n := d.Step(time.Unix(100, 0)); n != 0 {
		t.Errorf("Step handled %d events", n)
	}
	if len(game.ticks) != 1 || game.events[0] != nil {
		t.Errorf("game not ticked once with no events: %+v", game.events)
	}
}

func TestDispatcher_Delta(t *testing.T) {
	tests := []struct {
		desc   string
		gap    time.Duration
		expect time.Duration
	}{
		{"On time", 50 * time.Millisecond, 50 * time.Millisecond},
		{"Late", 120 * time.Millisecond, 120 * time.Millisecond},
		{"Stalled", 10 * time.Second, 250 * time.Millisecond},
		{"Clock went back", -time.Second, 50 * time.Millisecond},
	}
	for _, tC := range tests {
		t.Run(tC.desc, func(t *testing.T) {
			game := &recordingGame{}
			d := NewDispatcher(game, nil, DispatcherConfig{TickRate: 20, CatchupMaxTicks: 5}, nil)

			start := time.Unix(1000, 0)
			d.Step(start)
			d.Step(start.Add(tC.gap))

			if got := game.ticks[1].Delta; got != tC.expect {
				t.Errorf("delta %v, want %v", got, tC.expect)
			}
			if game.ticks[1].Tick != 2 {
				t.Errorf("tick %d", game.ticks[1].Tick)
			}
		})
	}
}

func TestDispatcher_RecoversPanic(t *testing.T) {
	calls := 0
	d := NewDispatcher(GameFunc(func(tc TickContext, events []Event) {
		calls++
		if calls == 1 {
			panic("boom")
		}
	}), nil, DispatcherConfig{}, nil)

	d.Inbound() <- PacketReceived{ID: 1}
	d.Step(time.Unix(1, 0))
	d.Step(time.Unix(2, 0))

	if calls != 2 {
		t.Errorf("game called %d times", calls)
	}
}

func TestDispatcher_Outbox(t *testing.T) {
	clients := NewClients(nil)
	var seen Outbox
	d := NewDispatcher(GameFunc(func(tc TickContext, events []Event) {
		seen = tc.Out
	}), clients, DispatcherConfig{}, nil)

	d.Step(time.Unix(1, 0))
	if seen != clients {
		t.Error("tick context does not carry the outbox")
	}
}
