package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	mcserver "github.com/gstoney/mcserver"
	"github.com/gstoney/mcserver/packet"
)

type outbound struct {
	state packet.State
	pkt   packet.Packet
	raw   []byte
}

// Conn is one client connection. A read loop owns the protocol state and a
// write loop owns the socket's write side; both run inside serve.
type Conn struct {
	id  ClientID
	srv *Server
	nc  net.Conn
	t   *mcserver.Transport
	log zerolog.Logger

	// Read loop only.
	state    packet.State
	protocol int32
	addr     string
	port     uint16
	limiter  *rate.Limiter

	// phase mirrors state for callers outside the read loop.
	phase     atomic.Uint32
	profile   Profile
	joined    atomic.Bool
	announced bool

	out       chan outbound
	closing   chan struct{}
	closeOnce sync.Once
	closeErr  error
	wbuf      []byte

	kaSeq     int32 // write loop only
	kaPending atomic.Int32
	kaSentAt  atomic.Int64
}

func newConn(srv *Server, nc net.Conn) *Conn {
	cfg := srv.Config
	c := &Conn{
		id:  srv.Clients.NextID(),
		srv: srv,
		nc:  nc,
		t: mcserver.NewTransport(nc, nc, mcserver.TransportConfig{
			MaxPacketLen: cfg.MaxPacketLen,
		}),
		state:   packet.Handshaking,
		out:     make(chan outbound, cfg.OutboundQueue),
		closing: make(chan struct{}),
	}
	if cfg.PacketRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.PacketRate), cfg.PacketBurst)
	}
	c.log = srv.logger().With().
		Uint64("client", uint64(c.id)).
		Str("remote", nc.RemoteAddr().String()).
		Logger()
	return c
}

func (c *Conn) ID() ClientID { return c.id }

func (c *Conn) Joined() bool { return c.joined.Load() }

// Profile is valid once Joined reports true.
func (c *Conn) Profile() Profile { return c.profile }

// Send queues a Play packet. A full queue disconnects the client.
func (c *Conn) Send(p packet.Packet) error {
	return c.enqueue(outbound{state: packet.Play, pkt: p})
}

// SendRaw queues an already encoded Play payload.
func (c *Conn) SendRaw(payload []byte) error {
	return c.enqueue(outbound{state: packet.Play, raw: payload})
}

// Disconnect closes the connection once the queue is flushed. Clients in
// the login or play state are told the reason first.
func (c *Conn) Disconnect(reason string) error {
	return c.kick(reason, ErrKicked)
}

func (c *Conn) kick(reason string, cause error) error {
	var err error
	state := c.Phase()
	if notice := disconnectNotice(state, reason); notice != nil {
		err = c.enqueue(outbound{state: state, pkt: notice})
	}
	c.close(cause)
	return err
}

// Phase is the protocol state the read loop last switched to.
func (c *Conn) Phase() packet.State { return packet.State(c.phase.Load()) }

func (c *Conn) setState(s packet.State) {
	c.state = s
	c.phase.Store(uint32(s))
}

// disconnectNotice returns the packet that tells a client why it is being
// dropped, or nil when the state has none.
func disconnectNotice(s packet.State, reason string) packet.Packet {
	switch s {
	case packet.Login:
		return &packet.LoginDisconnect{Reason: packet.Text(reason)}
	case packet.Play:
		return &packet.Disconnect{Reason: packet.Text(reason)}
	}
	return nil
}

func (c *Conn) enqueue(item outbound) error {
	select {
	case <-c.closing:
		return ErrChannelClosed
	default:
	}

	select {
	case c.out <- item:
		return nil
	default:
		c.close(ErrSlowConsumer)
		return ErrSlowConsumer
	}
}

// close records why the connection ends. Only the first call counts.
func (c *Conn) close(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err
		close(c.closing)
	})
}

func (c *Conn) closed() bool {
	select {
	case <-c.closing:
		return true
	default:
		return false
	}
}

// serve runs the connection to completion.
func (c *Conn) serve(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { c.close(ErrServerClosed) })
	defer stop()

	c.srv.Clients.Register(c)
	defer c.srv.Clients.Unregister(c.id)

	c.log.Debug().Msg("connection accepted")

	if d := c.srv.Config.LoginTimeout; d > 0 {
		c.nc.SetReadDeadline(time.Now().Add(d))
	}

	var g errgroup.Group
	g.Go(c.writeLoop)
	g.Go(func() error {
		c.fail(c.readLoop(ctx))
		return nil
	})
	g.Wait()

	reason := c.closeErr
	switch {
	case quiet(reason):
		c.log.Debug().AnErr("reason", reason).Msg("connection closed")
	default:
		c.log.Warn().Err(reason).Msg("connection closed")
	}

	if c.announced {
		if errors.Is(reason, errDone) || errors.Is(reason, ErrKicked) || peerGone(reason) {
			reason = nil
		}
		select {
		case c.srv.Events <- ConnectionClosed{ID: c.id, Reason: reason}:
		case <-ctx.Done():
		}
	}
}

// fail ends the connection because of a read side error. Protocol errors
// get a best-effort notice in the states that can carry one.
func (c *Conn) fail(err error) {
	if err == nil || c.closed() {
		c.close(err)
		return
	}

	if !quiet(err) && !errors.Is(err, ErrSlowConsumer) {
		if notice := disconnectNotice(c.state, err.Error()); notice != nil {
			c.enqueue(outbound{state: c.state, pkt: notice})
		}
	}
	c.close(err)
}

func (c *Conn) readLoop(ctx context.Context) error {
	for {
		payload, err := c.t.Recv()
		if c.closed() {
			return nil
		}
		if err != nil {
			return err
		}

		if c.limiter != nil && !c.limiter.Allow() {
			return ErrRateLimited
		}

		p, entry, err := c.srv.Registry.Decode(c.state, packet.Serverbound, payload)
		if err != nil {
			return err
		}

		if entry.Category == packet.Gameplay {
			if err := c.emit(ctx, PacketReceived{ID: c.id, Packet: p}); err != nil {
				return err
			}
			continue
		}

		if err := c.handle(ctx, p); err != nil {
			return err
		}
	}
}

// emit hands an event to the dispatcher, blocking this connection only.
func (c *Conn) emit(ctx context.Context, ev Event) error {
	select {
	case c.srv.Events <- ev:
		return nil
	case <-c.closing:
		return ErrChannelClosed
	case <-ctx.Done():
		return ErrServerClosed
	}
}

func (c *Conn) handle(ctx context.Context, p packet.Packet) error {
	switch p := p.(type) {
	case *packet.Handshake:
		c.protocol = p.ProtocolVersion
		c.addr = p.ServerAddress
		c.port = p.ServerPort
		c.setState(p.NextPhase())
		c.log.Debug().
			Int32("protocol", p.ProtocolVersion).
			Stringer("state", c.state).
			Msg("handshake")

	case *packet.StatusRequest:
		return c.enqueue(outbound{state: packet.Status, pkt: &packet.StatusResponse{Status: c.srv.statusJSON()}})

	case *packet.StatusPing:
		if err := c.enqueue(outbound{state: packet.Status, pkt: &packet.StatusPong{ClientTime: p.ClientTime}}); err != nil {
			return err
		}
		return errDone

	case *packet.LoginStart:
		return c.login(ctx, p)

	case *packet.KeepAlive:
		c.kaPending.CompareAndSwap(p.KeepAliveID, 0)

	default:
		return fmt.Errorf("no handler for local packet %T in %s", p, c.state)
	}
	return nil
}

func (c *Conn) login(ctx context.Context, p *packet.LoginStart) error {
	if c.protocol != packet.ProtocolVersion {
		reason := "Outdated server! I'm still on 1.8.9"
		if c.protocol < packet.ProtocolVersion {
			reason = "Outdated client! Please use 1.8.9"
		}
		c.log.Info().
			Int32("protocol", c.protocol).
			Str("name", p.Username).
			Msg("rejected login with unsupported protocol")
		if err := c.enqueue(outbound{state: packet.Login, pkt: &packet.LoginDisconnect{Reason: packet.Text(reason)}}); err != nil {
			return err
		}
		return errDone
	}
	if p.Username == "" {
		return ErrInvalidUsername
	}

	id := OfflineUUID(p.Username)
	if err := c.enqueue(outbound{state: packet.Login, pkt: &packet.LoginSuccess{UUID: id.String(), Username: p.Username}}); err != nil {
		return err
	}
	c.setState(packet.Play)
	c.nc.SetReadDeadline(time.Time{})

	c.profile = Profile{
		Name:            p.Username,
		UUID:            id,
		RemoteAddr:      c.nc.RemoteAddr(),
		ProtocolVersion: c.protocol,
		ServerAddress:   c.addr,
		ServerPort:      c.port,
	}

	// Joined holds by the time the game sees NewConnection.
	c.joined.Store(true)
	if err := c.emit(ctx, NewConnection{ID: c.id, Profile: c.profile}); err != nil {
		c.joined.Store(false)
		return err
	}
	c.announced = true
	c.log.Info().Str("name", p.Username).Stringer("uuid", id).Msg("player logged in")
	return nil
}

func (c *Conn) writeLoop() error {
	defer c.nc.Close()

	var keepAlive <-chan time.Time
	if iv := c.srv.Config.KeepAliveInterval; iv > 0 {
		ticker := time.NewTicker(iv)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case item := <-c.out:
			if err := c.write(item); err != nil {
				c.close(err)
				return nil
			}
			if len(c.out) == 0 {
				if err := c.flush(); err != nil {
					c.close(err)
					return nil
				}
			}

		case <-keepAlive:
			if err := c.keepAlive(); err != nil {
				c.close(err)
				return nil
			}

		case <-c.closing:
		drain:
			for {
				select {
				case item := <-c.out:
					if err := c.write(item); err != nil {
						return nil
					}
				default:
					break drain
				}
			}
			c.flush()
			return nil
		}
	}
}

func (c *Conn) write(item outbound) error {
	payload := item.raw
	if item.pkt != nil {
		var err error
		c.wbuf, err = c.srv.Registry.AppendPacket(c.wbuf[:0], item.state, packet.Clientbound, item.pkt)
		if err != nil {
			c.log.Error().Err(err).Msgf("dropping unencodable %T", item.pkt)
			return nil
		}
		payload = c.wbuf
	}

	if d := c.srv.Config.WriteTimeout; d > 0 {
		c.nc.SetWriteDeadline(time.Now().Add(d))
	}
	return c.t.Send(payload)
}

func (c *Conn) flush() error {
	if d := c.srv.Config.WriteTimeout; d > 0 {
		c.nc.SetWriteDeadline(time.Now().Add(d))
	}
	return c.t.Flush()
}

// keepAlive runs on the write loop. One probe is outstanding at a time;
// the read loop clears it when the client echoes the id.
func (c *Conn) keepAlive() error {
	if !c.joined.Load() {
		return nil
	}
	now := c.srv.clock().Now()

	if c.kaPending.Load() != 0 {
		sent := time.UnixMilli(c.kaSentAt.Load())
		if now.Sub(sent) > c.srv.Config.KeepAliveTimeout {
			c.log.Info().Dur("silence", now.Sub(sent)).Msg("keep-alive timed out")
			c.kick("Timed out", ErrKeepAliveTimeout)
		}
		return nil
	}

	c.kaSeq++
	if c.kaSeq <= 0 {
		c.kaSeq = 1
	}
	c.kaSentAt.Store(now.UnixMilli())
	c.kaPending.Store(c.kaSeq)

	if err := c.write(outbound{state: packet.Play, pkt: &packet.KeepAliveRequest{KeepAliveID: c.kaSeq}}); err != nil {
		return err
	}
	return c.flush()
}
