package app

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/villan7667/sharing-app/internal/core"
	"github.com/villan7667/sharing-app/internal/domain"
)

// Relay dispatches the six message kinds between a sender and the
// appropriate recipient set. It owns the session table (connection id to
// transport endpoint); room membership lives in the Registry. Fan-out is
// always scoped to one room, and a failed delivery to one recipient never
// aborts the rest.
type Relay struct {
	registry *Registry

	mu       sync.RWMutex
	sessions map[domain.ConnID]core.SignalConnection

	fileSeq atomic.Int64
}

func NewRelay(registry *Registry) *Relay {
	return &Relay{
		registry: registry,
		sessions: make(map[domain.ConnID]core.SignalConnection),
	}
}

// Registry exposes the room registry for the inspection API.
func (rl *Relay) Registry() *Registry { return rl.registry }

// Bind attaches a transport endpoint to a connection id. The adapter calls
// this once per connection, before the read loop starts.
func (rl *Relay) Bind(id domain.ConnID, conn core.SignalConnection) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.sessions[id] = conn
	log.Info().Str("module", "app.relay").Str("conn", string(id)).Msg("session bound")
}

// Join runs the full join sequence: register membership, announce the
// arrival to existing members, and answer the joiner with the snapshot of
// who was already there.
func (rl *Relay) Join(id domain.ConnID, msg core.JoinRoom) {
	code := domain.RoomCode(msg.RoomCode)
	others := rl.registry.Join(code, id, msg.UserName)

	rl.fanOut(others, core.UserJoinedEvent{
		Type: core.TypeUserJoined,
		ID:   id,
		Name: msg.UserName,
	})
	rl.sendTo(id, core.UsersInRoomEvent{
		Type:  core.TypeUsersInRoom,
		Users: others,
	})
}

// ShareLocation records the sender's location and broadcasts it to the
// rest of the room. A sender that is not a member of the room is silently
// ignored: its join may simply not have been processed yet.
func (rl *Relay) ShareLocation(id domain.ConnID, msg core.ShareLocation) {
	code := domain.RoomCode(msg.RoomCode)
	if !rl.registry.RecordLocation(code, id, msg.Location) {
		log.Debug().Str("module", "app.relay").Str("conn", string(id)).Str("room", msg.RoomCode).Msg("location from non-member dropped")
		return
	}
	rl.fanOut(rl.registry.Members(code, id), core.LocationUpdateEvent{
		Type:     core.TypeLocationUpdate,
		UserID:   id,
		Location: msg.Location,
	})
}

// ShareFile assigns a fresh server-side id to the record and fans it out
// to the entire room, sender included. The payload is relayed inline and
// never stored.
func (rl *Relay) ShareFile(id domain.ConnID, msg core.ShareFile) {
	code := domain.RoomCode(msg.RoomCode)
	rl.fanOut(rl.registry.Members(code, ""), core.FileSharedEvent{
		Type: core.TypeFileShared,
		FileShare: domain.FileShare{
			ID:     rl.nextFileID(),
			Name:   msg.File.Name,
			Size:   msg.File.Size,
			Type:   msg.File.Type,
			URL:    msg.File.Data,
			Sender: msg.File.Sender,
		},
	})
}

// ForwardSignal relays an offer, answer, or ICE candidate to the other
// members of the room. The negotiation payload is opaque: the frame is
// assembled by splicing the raw bytes, never by re-marshaling them, with
// only the room code stripped.
func (rl *Relay) ForwardSignal(id domain.ConnID, kind string, msg core.Signal) {
	frame, ok := core.EncodeSignal(kind, msg)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("conn", string(id)).Str("kind", kind).Msg("signal without payload dropped")
		return
	}
	for _, m := range rl.registry.Members(domain.RoomCode(msg.RoomCode), id) {
		rl.deliver(m.ID, frame)
	}
}

// OnDisconnect tears down everything the connection owned: its session
// binding and its membership in every room it had joined, emitting exactly
// one leave event per such room.
func (rl *Relay) OnDisconnect(id domain.ConnID) {
	rl.mu.Lock()
	delete(rl.sessions, id)
	rl.mu.Unlock()

	for _, code := range rl.registry.RemoveConnection(id) {
		rl.fanOut(rl.registry.Members(code, id), core.UserLeftEvent{
			Type: core.TypeUserLeft,
			ID:   id,
		})
	}
	log.Info().Str("module", "app.relay").Str("conn", string(id)).Msg("session unbound")
}

func (rl *Relay) session(id domain.ConnID) (core.SignalConnection, bool) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	conn, ok := rl.sessions[id]
	return conn, ok
}

// fanOut encodes the event once and delivers it to each recipient.
// Delivery failures are per-recipient and benign.
func (rl *Relay) fanOut(recipients []domain.Member, event any) {
	frame, err := core.Encode(event)
	if err != nil {
		log.Error().Str("module", "app.relay").Err(err).Msg("encode event")
		return
	}
	for _, m := range recipients {
		rl.deliver(m.ID, frame)
	}
}

func (rl *Relay) sendTo(id domain.ConnID, event any) {
	frame, err := core.Encode(event)
	if err != nil {
		log.Error().Str("module", "app.relay").Err(err).Msg("encode event")
		return
	}
	rl.deliver(id, frame)
}

func (rl *Relay) deliver(id domain.ConnID, frame core.Frame) {
	conn, ok := rl.session(id)
	if !ok {
		// Recipient disconnected mid-broadcast; skip it.
		log.Debug().Str("module", "app.relay").Str("conn", string(id)).Msg("no session for recipient")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Debug().Str("module", "app.relay").Str("conn", string(id)).Err(err).Msg("delivery dropped")
	}
}

// nextFileID derives a monotonically distinguishing id for a file relay.
// The sequence suffix keeps ids distinct within one millisecond.
func (rl *Relay) nextFileID() string {
	ms := time.Now().UnixMilli()
	return strconv.FormatInt(ms, 10) + "-" + strconv.FormatInt(rl.fileSeq.Add(1), 10)
}
