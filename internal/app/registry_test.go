package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/villan7667/sharing-app/internal/domain"
)

func TestJoinCreatesRoomAndReturnsOthers(t *testing.T) {
	r := NewRegistry()

	others := r.Join("ABCD", "conn-a", "alice")
	if len(others) != 0 {
		t.Fatalf("first joiner should see an empty room, got %d members", len(others))
	}

	others = r.Join("ABCD", "conn-b", "bob")
	if len(others) != 1 {
		t.Fatalf("second joiner should see 1 member, got %d", len(others))
	}
	if others[0].ID != "conn-a" || others[0].Name != "alice" {
		t.Errorf("unexpected snapshot member: %+v", others[0])
	}

	if got := r.MemberCount("ABCD"); got != 2 {
		t.Errorf("MemberCount = %d, want 2", got)
	}
}

func TestMembersInsertionOrder(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		r.Join("room", domain.ConnID(fmt.Sprintf("conn-%d", i)), fmt.Sprintf("user-%d", i))
	}

	members := r.Members("room", "")
	if len(members) != 5 {
		t.Fatalf("expected 5 members, got %d", len(members))
	}
	for i, m := range members {
		if want := domain.ConnID(fmt.Sprintf("conn-%d", i)); m.ID != want {
			t.Errorf("member %d: got %s, want %s", i, m.ID, want)
		}
	}

	except := r.Members("room", "conn-2")
	if len(except) != 4 {
		t.Fatalf("expected 4 members excluding conn-2, got %d", len(except))
	}
	for _, m := range except {
		if m.ID == "conn-2" {
			t.Error("excluded member present in snapshot")
		}
	}
}

func TestRejoinReplacesRecordInPlace(t *testing.T) {
	r := NewRegistry()
	r.Join("room", "conn-a", "alice")
	r.Join("room", "conn-b", "bob")
	r.Join("room", "conn-a", "alicia")

	members := r.Members("room", "")
	if len(members) != 2 {
		t.Fatalf("rejoin must not duplicate membership, got %d members", len(members))
	}
	if members[0].ID != "conn-a" || members[0].Name != "alicia" {
		t.Errorf("rejoin should replace the record and keep its slot, got %+v", members[0])
	}
}

func TestRecordLocationNonMemberIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.Join("room", "conn-a", "alice")

	if r.RecordLocation("room", "conn-ghost", domain.Location{Lat: 1, Lng: 2}) {
		t.Error("RecordLocation should report false for a non-member")
	}
	if r.RecordLocation("other-room", "conn-a", domain.Location{Lat: 1, Lng: 2}) {
		t.Error("RecordLocation should report false for an unknown room")
	}
	if _, ok := r.Info("other-room"); ok {
		t.Error("RecordLocation must not create rooms")
	}
	if got := r.MemberCount("room"); got != 1 {
		t.Errorf("RecordLocation must not create members, count = %d", got)
	}
}

func TestRecordLocationLatestWins(t *testing.T) {
	r := NewRegistry()
	r.Join("room", "conn-a", "alice")

	if !r.RecordLocation("room", "conn-a", domain.Location{Lat: 1, Lng: 1}) {
		t.Fatal("RecordLocation failed for a member")
	}
	before := r.Members("room", "")
	if !r.RecordLocation("room", "conn-a", domain.Location{Lat: 2, Lng: 2}) {
		t.Fatal("RecordLocation failed for a member")
	}

	after := r.Members("room", "")
	if after[0].Location == nil || after[0].Location.Lat != 2 {
		t.Errorf("latest location should win, got %+v", after[0].Location)
	}
	// The earlier snapshot must keep the value it observed.
	if before[0].Location == nil || before[0].Location.Lat != 1 {
		t.Errorf("earlier snapshot mutated, got %+v", before[0].Location)
	}
}

func TestRemoveConnectionReportsOnlyJoinedRooms(t *testing.T) {
	r := NewRegistry()
	r.Join("one", "conn-a", "alice")
	r.Join("two", "conn-a", "alice")
	r.Join("three", "conn-b", "bob")

	left := r.RemoveConnection("conn-a")
	if len(left) != 2 {
		t.Fatalf("expected 2 rooms left, got %d: %v", len(left), left)
	}
	seen := map[domain.RoomCode]bool{}
	for _, code := range left {
		seen[code] = true
	}
	if !seen["one"] || !seen["two"] || seen["three"] {
		t.Errorf("unexpected rooms in removal result: %v", left)
	}
}

func TestEmptyRoomsAreDeleted(t *testing.T) {
	r := NewRegistry()
	r.Join("ABCD", "conn-a", "alice")
	r.Join("ABCD", "conn-b", "bob")

	r.RemoveConnection("conn-b")
	if _, ok := r.Info("ABCD"); !ok {
		t.Fatal("room with one remaining member should still exist")
	}
	if got := r.MemberCount("ABCD"); got != 1 {
		t.Fatalf("MemberCount = %d, want 1", got)
	}

	r.RemoveConnection("conn-a")
	if _, ok := r.Info("ABCD"); ok {
		t.Error("room must be deleted the instant it empties")
	}
	if len(r.List()) != 0 {
		t.Errorf("registry should hold no rooms, got %v", r.List())
	}
}

func TestRemoveUnknownConnection(t *testing.T) {
	r := NewRegistry()
	r.Join("room", "conn-a", "alice")

	if left := r.RemoveConnection("conn-ghost"); len(left) != 0 {
		t.Errorf("removing an unknown connection should touch nothing, got %v", left)
	}
	if got := r.MemberCount("room"); got != 1 {
		t.Errorf("MemberCount = %d, want 1", got)
	}
}

func TestConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()
	const n = 64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.ConnID(fmt.Sprintf("conn-%d", i))
			r.Join("busy", id, "user")
			r.RecordLocation("busy", id, domain.Location{Lat: float64(i)})
			if i%2 == 0 {
				r.RemoveConnection(id)
			}
		}(i)
	}
	wg.Wait()

	if got := r.MemberCount("busy"); got != n/2 {
		t.Errorf("MemberCount = %d, want %d", got, n/2)
	}
}
