// Package domain contains entity without logic, just meta-data
package domain

// Location is a latest-wins coordinate pair reported by a client.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Member represents a connection's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	ID       ConnID    `json:"id"`
	Name     string    `json:"name"`
	Location *Location `json:"location,omitempty"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
// A member starts with no known location.
func NewMember(id ConnID, name string) *Member {
	return &Member{ID: id, Name: name}
}
