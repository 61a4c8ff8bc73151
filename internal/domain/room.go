package domain

type (
	// RoomCode is the client-chosen, server-opaque room identifier.
	// The server never validates its format.
	RoomCode string

	// ConnID uniquely identifies one live connection. It is stable for
	// the connection's lifetime and never reused while active.
	ConnID string
)
