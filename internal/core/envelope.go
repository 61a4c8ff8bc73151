// Package core defines the wire schema and the transport seam between the
// relay and its adapters. Every message is a flat JSON object tagged by a
// "type" field; the payload shape is fixed per tag. Messages that fail to
// decode for their tag are dropped, never propagated.
package core

import (
	"bytes"
	"encoding/json"

	"github.com/villan7667/sharing-app/internal/domain"
)

// Client-to-server message types.
const (
	TypeJoinRoom      = "join-room"
	TypeShareLocation = "share-location"
	TypeShareFile     = "share-file"
	TypeOffer         = "webrtc-offer"
	TypeAnswer        = "webrtc-answer"
	TypeICECandidate  = "webrtc-ice-candidate"
)

// Server-to-client message types. The three webrtc types above are also
// emitted server-to-client when forwarded.
const (
	TypeUserJoined     = "user-joined"
	TypeUsersInRoom    = "users-in-room"
	TypeUserLeft       = "user-left"
	TypeLocationUpdate = "location-update"
	TypeFileShared     = "file-shared"
)

// Envelope carries only the tag; per-type payloads decode from the same
// bytes once the tag is known.
type Envelope struct {
	Type string `json:"type"`
}

// JoinRoom enters a room, creating it if absent.
type JoinRoom struct {
	RoomCode string `json:"roomCode"`
	UserName string `json:"userName"`
}

// ShareLocation updates the sender's location within a room it has joined.
type ShareLocation struct {
	RoomCode string          `json:"roomCode"`
	Location domain.Location `json:"location"`
}

// ShareFile relays file metadata plus an inline opaque payload to a room.
type ShareFile struct {
	RoomCode string        `json:"roomCode"`
	File     ShareFileMeta `json:"file"`
}

// ShareFileMeta is the client-supplied portion of a file relay. Data is
// the inline payload; Sender is trusted as supplied.
type ShareFileMeta struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Type   string `json:"type"`
	Data   string `json:"data"`
	Sender string `json:"sender"`
}

// Signal is a WebRTC negotiation message. At most one of Offer, Answer,
// Candidate is set, matching the envelope type. The raw bytes are never
// inspected and must survive the relay unmodified.
type Signal struct {
	RoomCode  string          `json:"roomCode"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// UserJoinedEvent notifies existing members of a new arrival.
type UserJoinedEvent struct {
	Type string        `json:"type"`
	ID   domain.ConnID `json:"id"`
	Name string        `json:"name"`
}

// UsersInRoomEvent answers the joiner with a full membership snapshot so a
// new client never starts from a partial view.
type UsersInRoomEvent struct {
	Type  string          `json:"type"`
	Users []domain.Member `json:"users"`
}

// UserLeftEvent notifies remaining members of a departure.
type UserLeftEvent struct {
	Type string        `json:"type"`
	ID   domain.ConnID `json:"id"`
}

// LocationUpdateEvent carries a member's fresh location to the others.
type LocationUpdateEvent struct {
	Type     string          `json:"type"`
	UserID   domain.ConnID   `json:"userId"`
	Location domain.Location `json:"location"`
}

// FileSharedEvent fans a file record out to the whole room, sender included.
type FileSharedEvent struct {
	Type string `json:"type"`
	domain.FileShare
}

// EncodeSignal builds the forwarded form of a negotiation message: the
// room code is stripped and the payload is spliced in verbatim, so the
// bytes one peer sent are the bytes the other peer receives. Running the
// payload back through json.Marshal would compact whitespace and
// HTML-escape it, which is a transformation the relay must not make.
// Only the field matching kind is carried; a frame whose payload is
// missing for its kind is dropped as a schema mismatch.
func EncodeSignal(kind string, msg Signal) (Frame, bool) {
	var field string
	var payload json.RawMessage
	switch kind {
	case TypeOffer:
		field, payload = "offer", msg.Offer
	case TypeAnswer:
		field, payload = "answer", msg.Answer
	case TypeICECandidate:
		field, payload = "candidate", msg.Candidate
	default:
		return nil, false
	}
	if len(payload) == 0 {
		return nil, false
	}

	var b bytes.Buffer
	b.Grow(len(payload) + len(kind) + len(field) + 16)
	b.WriteString(`{"type":"`)
	b.WriteString(kind)
	b.WriteString(`","`)
	b.WriteString(field)
	b.WriteString(`":`)
	b.Write(payload)
	b.WriteByte('}')
	return Frame(b.Bytes()), true
}

// Encode marshals a server event into a Frame.
func Encode(v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
