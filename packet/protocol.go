package packet

// protocolEntries is the complete protocol 47 table served by this module.
var protocolEntries = []Entry{
	{State: Handshaking, Direction: Serverbound, Category: Local, New: func() Packet { return &Handshake{} }},

	{State: Status, Direction: Serverbound, Category: Local, New: func() Packet { return &StatusRequest{} }},
	{State: Status, Direction: Serverbound, Category: Local, New: func() Packet { return &StatusPing{} }},
	{State: Status, Direction: Clientbound, New: func() Packet { return &StatusResponse{} }},
	{State: Status, Direction: Clientbound, New: func() Packet { return &StatusPong{} }},

	{State: Login, Direction: Serverbound, Category: Local, New: func() Packet { return &LoginStart{} }},
	{State: Login, Direction: Clientbound, New: func() Packet { return &LoginDisconnect{} }},
	{State: Login, Direction: Clientbound, New: func() Packet { return &LoginSuccess{} }},

	{State: Play, Direction: Serverbound, Category: Local, New: func() Packet { return &KeepAlive{} }},
	{State: Play, Direction: Serverbound, Category: Gameplay, New: func() Packet { return &ChatMessage{} }},
	{State: Play, Direction: Serverbound, Category: Gameplay, New: func() Packet { return &PlayerGround{} }},
	{State: Play, Direction: Serverbound, Category: Gameplay, New: func() Packet { return &PlayerPosition{} }},
	{State: Play, Direction: Serverbound, Category: Gameplay, New: func() Packet { return &PlayerLook{} }},
	{State: Play, Direction: Serverbound, Category: Gameplay, New: func() Packet { return &PlayerPositionLook{} }},
	{State: Play, Direction: Serverbound, Category: Gameplay, New: func() Packet { return &ClientSettings{} }},
	{State: Play, Direction: Serverbound, Category: Gameplay, New: func() Packet { return &PluginMessage{} }},
	{State: Play, Direction: Clientbound, New: func() Packet { return &KeepAliveRequest{} }},
	{State: Play, Direction: Clientbound, New: func() Packet { return &JoinGame{} }},
	{State: Play, Direction: Clientbound, New: func() Packet { return &ChatBroadcast{} }},
	{State: Play, Direction: Clientbound, New: func() Packet { return &SpawnPosition{} }},
	{State: Play, Direction: Clientbound, New: func() Packet { return &PlayerTeleport{} }},
	{State: Play, Direction: Clientbound, New: func() Packet { return &PlayerListItem{} }},
	{State: Play, Direction: Clientbound, New: func() Packet { return &Disconnect{} }},
}

var defaultRegistry = mustRegistry(protocolEntries...)

// Default returns the shared protocol 47 registry.
func Default() *Registry {
	return defaultRegistry
}

func mustRegistry(entries ...Entry) *Registry {
	reg, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return reg
}
