package server

import (
	"sync"
	"sync/atomic"

	"github.com/gstoney/mcserver/packet"
)

// Peer is the handle the registry keeps for a live connection.
type Peer interface {
	ID() ClientID
	// Joined reports whether the peer has logged in.
	Joined() bool
	Send(p packet.Packet) error
	SendRaw(payload []byte) error
	Disconnect(reason string) error
}

// Clients assigns client ids and maps them to live peers. It is the only
// structure shared by connection goroutines and the dispatcher.
type Clients struct {
	registry *packet.Registry
	peers    sync.Map // ClientID -> Peer
	next     atomic.Uint64
	count    atomic.Int64
}

func NewClients(registry *packet.Registry) *Clients {
	if registry == nil {
		registry = packet.Default()
	}
	return &Clients{registry: registry}
}

// NextID returns a fresh id. IDs start at 1 and increase monotonically.
func (c *Clients) NextID() ClientID {
	return ClientID(c.next.Add(1))
}

func (c *Clients) Register(p Peer) {
	if _, loaded := c.peers.LoadOrStore(p.ID(), p); !loaded {
		c.count.Add(1)
	}
}

func (c *Clients) Unregister(id ClientID) {
	if _, loaded := c.peers.LoadAndDelete(id); loaded {
		c.count.Add(-1)
	}
}

func (c *Clients) Get(id ClientID) (Peer, bool) {
	v, ok := c.peers.Load(id)
	if !ok {
		return nil, false
	}
	return v.(Peer), true
}

// Len returns the number of registered connections, logged in or not.
func (c *Clients) Len() int {
	return int(c.count.Load())
}

// Online counts logged-in peers.
func (c *Clients) Online() int {
	n := 0
	c.Range(func(p Peer) bool {
		if p.Joined() {
			n++
		}
		return true
	})
	return n
}

// Range calls fn for every registered peer until fn returns false.
func (c *Clients) Range(fn func(Peer) bool) {
	c.peers.Range(func(_, v any) bool {
		return fn(v.(Peer))
	})
}

// Send queues a Play packet for one client.
func (c *Clients) Send(id ClientID, p packet.Packet) error {
	peer, ok := c.Get(id)
	if !ok {
		return ErrChannelClosed
	}
	return peer.Send(p)
}

// Broadcast encodes p once and queues it for every logged-in peer.
func (c *Clients) Broadcast(p packet.Packet) error {
	payload, err := c.registry.Encode(packet.Play, packet.Clientbound, p)
	if err != nil {
		return err
	}
	c.Range(func(peer Peer) bool {
		if peer.Joined() {
			peer.SendRaw(payload)
		}
		return true
	})
	return nil
}

// Disconnect kicks one client with reason shown on its screen.
func (c *Clients) Disconnect(id ClientID, reason string) error {
	peer, ok := c.Get(id)
	if !ok {
		return ErrChannelClosed
	}
	return peer.Disconnect(reason)
}
