package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/villan7667/sharing-app/internal/domain"
)

// room holds one room's members keyed by connection id. Insertion order is
// kept separately so membership snapshots are stable for clients.
type room struct {
	members map[domain.ConnID]*domain.Member
	order   []domain.ConnID
}

func newRoom() *room {
	return &room{members: make(map[domain.ConnID]*domain.Member)}
}

// snapshot copies the members in insertion order, skipping except.
// Copies are values, so callers may read them outside the registry lock.
func (rm *room) snapshot(except domain.ConnID) []domain.Member {
	out := make([]domain.Member, 0, len(rm.members))
	for _, id := range rm.order {
		if id == except {
			continue
		}
		if m, ok := rm.members[id]; ok {
			out = append(out, *m)
		}
	}
	return out
}

// RoomInfo is a read-only view for the inspection API.
type RoomInfo struct {
	Code        domain.RoomCode `json:"code"`
	MemberCount int             `json:"memberCount"`
}

// Registry owns the room-to-members mapping. Rooms are created lazily on
// first join and deleted the moment their member set empties, so a code is
// present in the map iff it has at least one member. All mutations run
// under one mutex; fan-out callers work from value snapshots.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]*room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomCode]*room)}
}

// Join inserts the connection into the room, creating the room if absent,
// and returns the members that were already there in insertion order.
// Joining again under the same id replaces the member record in place.
func (r *Registry) Join(code domain.RoomCode, id domain.ConnID, name string) []domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		rm = newRoom()
		r.rooms[code] = rm
		log.Info().Str("module", "app.registry").Str("room", string(code)).Msg("room created")
	}
	others := rm.snapshot(id)
	if _, exists := rm.members[id]; !exists {
		rm.order = append(rm.order, id)
	}
	rm.members[id] = domain.NewMember(id, name)
	log.Info().Str("module", "app.registry").Str("room", string(code)).Str("conn", string(id)).Str("name", name).Msg("member joined")
	return others
}

// RecordLocation stores the connection's latest location. It reports false
// and changes nothing when the connection is not currently a member of the
// room; that case is a benign race with join, not an error.
func (r *Registry) RecordLocation(code domain.RoomCode, id domain.ConnID, loc domain.Location) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[code]
	if !ok {
		return false
	}
	m, ok := rm.members[id]
	if !ok {
		return false
	}
	// Fresh allocation: snapshots taken earlier keep the value they saw.
	l := loc
	m.Location = &l
	return true
}

// RemoveConnection scans every room, removes the connection wherever it is
// a member, and deletes rooms left empty. It returns the codes of the rooms
// the connection was actually in, one leave broadcast each.
func (r *Registry) RemoveConnection(id domain.ConnID) []domain.RoomCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []domain.RoomCode
	for code, rm := range r.rooms {
		if _, ok := rm.members[id]; !ok {
			continue
		}
		delete(rm.members, id)
		for i, oid := range rm.order {
			if oid == id {
				rm.order = append(rm.order[:i], rm.order[i+1:]...)
				break
			}
		}
		left = append(left, code)
		if len(rm.members) == 0 {
			delete(r.rooms, code)
			log.Info().Str("module", "app.registry").Str("room", string(code)).Msg("room deleted")
		}
	}
	if len(left) > 0 {
		log.Info().Str("module", "app.registry").Str("conn", string(id)).Int("rooms", len(left)).Msg("connection removed")
	}
	return left
}

// Members returns the room's members in insertion order, skipping except.
// An unknown room yields an empty slice.
func (r *Registry) Members(code domain.RoomCode, except domain.ConnID) []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[code]
	if !ok {
		return nil
	}
	return rm.snapshot(except)
}

// MemberCount reports the member count, zero for an absent room.
func (r *Registry) MemberCount(code domain.RoomCode) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[code]
	if !ok {
		return 0
	}
	return len(rm.members)
}

// Info returns the room's inspection view, false when the room is absent.
func (r *Registry) Info(code domain.RoomCode) (RoomInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[code]
	if !ok {
		return RoomInfo{}, false
	}
	return RoomInfo{Code: code, MemberCount: len(rm.members)}, true
}

// List returns every active room's inspection view.
func (r *Registry) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RoomInfo, 0, len(r.rooms))
	for code, rm := range r.rooms {
		out = append(out, RoomInfo{Code: code, MemberCount: len(rm.members)})
	}
	return out
}
