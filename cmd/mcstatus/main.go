package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	mcserver "github.com/gstoney/mcserver"
	"github.com/gstoney/mcserver/packet"
)

type status struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int `json:"max"`
		Online int `json:"online"`
	} `json:"players"`
	Description json.RawMessage `json:"description"`
}

func main() {
	addr := flag.String("addr", "localhost:25565", "server address (host:port)")
	proto := flag.Int("proto", packet.ProtocolVersion, "protocol version")
	timeout := flag.Duration("timeout", 5*time.Second, "overall deadline")
	raw := flag.Bool("raw", false, "print the status JSON as received")

	flag.Parse()

	if err := run(*addr, int32(*proto), *timeout, *raw); err != nil {
		fmt.Fprintln(os.Stderr, "mcstatus:", err)
		os.Exit(1)
	}
}

func run(addr string, proto int32, timeout time.Duration, raw bool) error {
	hostname, portstr, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	port, err := strconv.ParseUint(portstr, 10, 16)
	if err != nil {
		return fmt.Errorf("bad port %q: %w", portstr, err)
	}

	fmt.Fprintf(os.Stderr, "Dialing %s for status retrieval...\n", addr)

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	reg := packet.Default()
	t := mcserver.NewTransport(conn, conn, mcserver.TransportConfig{MaxPacketLen: 32768})

	send := func(state packet.State, p packet.Packet) error {
		b, err := reg.Encode(state, packet.Serverbound, p)
		if err != nil {
			return err
		}
		return t.Send(b)
	}
	recv := func() (packet.Packet, error) {
		b, err := t.Recv()
		if err != nil {
			return nil, err
		}
		p, _, err := reg.Decode(packet.Status, packet.Clientbound, b)
		return p, err
	}

	if err := send(packet.Handshaking, &packet.Handshake{
		ProtocolVersion: proto,
		ServerAddress:   hostname,
		ServerPort:      uint16(port),
		NextState:       packet.NextStatus,
	}); err != nil {
		return err
	}
	if err := send(packet.Status, &packet.StatusRequest{}); err != nil {
		return err
	}
	if err := t.Flush(); err != nil {
		return err
	}

	p, err := recv()
	if err != nil {
		return err
	}
	resp, ok := p.(*packet.StatusResponse)
	if !ok {
		return fmt.Errorf("unexpected %T", p)
	}

	start := time.Now()
	if err := send(packet.Status, &packet.StatusPing{ClientTime: start.UnixMilli()}); err != nil {
		return err
	}
	if err := t.Flush(); err != nil {
		return err
	}
	if p, err = recv(); err != nil {
		return err
	}
	if _, ok := p.(*packet.StatusPong); !ok {
		return fmt.Errorf("unexpected %T", p)
	}
	rtt := time.Since(start)

	if raw {
		fmt.Println(resp.Status)
		return nil
	}

	var st status
	if err := json.Unmarshal([]byte(resp.Status), &st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	fmt.Printf("%s (protocol %d)\n", st.Version.Name, st.Version.Protocol)
	fmt.Printf("players %d/%d\n", st.Players.Online, st.Players.Max)
	fmt.Printf("motd    %s\n", st.Description)
	fmt.Printf("ping    %s\n", rtt.Round(time.Millisecond))
	return nil
}
