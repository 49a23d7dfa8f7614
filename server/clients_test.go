package server

import (
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gstoney/mcserver/packet"
)

type fakePeer struct {
	id     ClientID
	joined bool

	mu     sync.Mutex
	sent   []packet.Packet
	raw    [][]byte
	kicked string
}

func (p *fakePeer) ID() ClientID { return p.id }
func (p *fakePeer) Joined() bool { return p.joined }

func (p *fakePeer) Send(pkt packet.Packet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pkt)
	return nil
}

func (p *fakePeer) SendRaw(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw = append(p.raw, payload)
	return nil
}

func (p *fakePeer) Disconnect(reason string) error {
	p.kicked = reason
	return nil
}

func TestClients_NextID(t *testing.T) {
	c := NewClients(nil)

	const n = 1000
	ids := make(chan ClientID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- c.NextID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[ClientID]bool)
	for id := range ids {
		if id == 0 || seen[id] {
			t.Fatalf("id %d zero or reused", id)
		}
		seen[id] = true
	}
	if next := c.NextID(); next != n+1 {
		t.Errorf("next id %d", next)
	}
}

func TestClients_Registry(t *testing.T) {
	c := NewClients(nil)
	a := &fakePeer{id: 1, joined: true}
	b := &fakePeer{id: 2}

	c.Register(a)
	c.Register(b)
	c.Register(a)
	if c.Len() != 2 || c.Online() != 1 {
		t.Errorf("len %d online %d", c.Len(), c.Online())
	}

	if err := c.Send(1, &packet.ChatBroadcast{JSON: packet.Text("hi")}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(a.sent) != 1 {
		t.Errorf("peer got %d packets", len(a.sent))
	}
	if err := c.Disconnect(2, "bye"); err != nil || b.kicked != "bye" {
		t.Errorf("Disconnect: %v %q", err, b.kicked)
	}

	c.Unregister(1)
	c.Unregister(1)
	if c.Len() != 1 {
		t.Errorf("len %d after unregister", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Error("unregistered peer still found")
	}
	if err := c.Send(1, &packet.ChatBroadcast{}); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("send to gone client: %v", err)
	}
	if err := c.Disconnect(7, ""); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("disconnect unknown client: %v", err)
	}
}

func TestClients_Broadcast(t *testing.T) {
	c := NewClients(nil)
	joined := &fakePeer{id: 1, joined: true}
	pending := &fakePeer{id: 2}
	c.Register(joined)
	c.Register(pending)

	msg := &packet.ChatBroadcast{JSON: packet.Text("hello"), Position: packet.ChatPositionSystem}
	if err := c.Broadcast(msg); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(joined.raw) != 1 || len(pending.raw) != 0 {
		t.Fatalf("joined got %d, pending got %d", len(joined.raw), len(pending.raw))
	}

	p, _, err := packet.Default().Decode(packet.Play, packet.Clientbound, joined.raw[0])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := p.(*packet.ChatBroadcast); got.JSON != msg.JSON || got.Position != msg.Position {
		t.Errorf("broadcast %+v", got)
	}

	if err := c.Broadcast(&packet.StatusPong{}); !errors.Is(err, packet.ErrUnknownPacket) {
		t.Errorf("non-Play broadcast: %v", err)
	}
}

func TestConn_SlowConsumer(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	nop := zerolog.Nop()
	srv := &Server{Config: Config{OutboundQueue: 2}, Clients: NewClients(nil), Logger: &nop}
	c := newConn(srv, a)

	for i := 0; i < 2; i++ {
		if err := c.Send(&packet.KeepAliveRequest{KeepAliveID: int32(i)}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if err := c.Send(&packet.KeepAliveRequest{}); !errors.Is(err, ErrSlowConsumer) {
		t.Fatalf("expected ErrSlowConsumer, got %v", err)
	}
	if !c.closed() || !errors.Is(c.closeErr, ErrSlowConsumer) {
		t.Errorf("connection not closed for slow consumer: %v", c.closeErr)
	}
	if err := c.Send(&packet.KeepAliveRequest{}); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("send after close: %v", err)
	}
	if err := c.Disconnect("bye"); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("disconnect after close: %v", err)
	}
}

func TestOfflineUUID(t *testing.T) {
	tests := []struct {
		name   string
		expect string
	}{
		{"Steve", "5627dd98-e6be-3c21-b8a8-e92344183641"},
		{"Notch", "b50ad385-829d-3141-a216-7e7d7539ba7f"},
	}
	for _, tC := range tests {
		t.Run(tC.name, func(t *testing.T) {
			id := OfflineUUID(tC.name)
			if id.String() != tC.expect {
				t.Errorf("got %s, want %s", id, tC.expect)
			}
			if id.Version() != 3 {
				t.Errorf("version %d", id.Version())
			}
		})
	}
}
