package packet

// State is the protocol phase of a connection. The zero value is Handshaking.
type State uint8

const (
	Handshaking State = iota
	Status
	Login
	Play
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Status:
		return "status"
	case Login:
		return "login"
	case Play:
		return "play"
	}
	return "invalid"
}

// Direction tells which side sends a packet.
type Direction uint8

const (
	Serverbound Direction = iota
	Clientbound
)

func (d Direction) String() string {
	if d == Clientbound {
		return "clientbound"
	}
	return "serverbound"
}

// Category decides where a serverbound packet is handled.
type Category uint8

const (
	// Local packets are handled on the connection's own goroutine.
	Local Category = iota
	// Gameplay packets are forwarded to the dispatcher.
	Gameplay
)

func (c Category) String() string {
	if c == Gameplay {
		return "gameplay"
	}
	return "local"
}
