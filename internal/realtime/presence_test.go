package realtime

import (
	"sort"
	"testing"
)

func TestPresence_JoinAndResolve(t *testing.T) {
	t.Parallel()

	p := NewPresence()
	p.Join("conn-1", UserRoom("user-1"))
	p.Join("conn-2", UserRoom("user-1"))

	members := p.Resolve(UserRoom("user-1"))
	sort.Strings(members)
	if len(members) != 2 || members[0] != "conn-1" || members[1] != "conn-2" {
		t.Errorf("unexpected members: %v", members)
	}
}

func TestPresence_Leave(t *testing.T) {
	t.Parallel()

	p := NewPresence()
	p.Join("conn-1", TripRoom("trip-1"))
	p.Leave("conn-1", TripRoom("trip-1"))

	if members := p.Resolve(TripRoom("trip-1")); len(members) != 0 {
		t.Errorf("expected empty room after leave, got %v", members)
	}
}

func TestPresence_ResolveUnknownRoom_Empty(t *testing.T) {
	t.Parallel()

	p := NewPresence()
	if members := p.Resolve(TripRoom("nope")); len(members) != 0 {
		t.Errorf("expected no members for unknown room, got %v", members)
	}
}

func TestPresence_DropPurgesAllMemberships(t *testing.T) {
	t.Parallel()

	p := NewPresence()
	p.Join("conn-1", UserRoom("user-1"))
	p.Join("conn-1", TripRoom("trip-1"))
	p.Join("conn-1", TripUserRoom("trip-1", "user-1"))
	p.Join("conn-2", TripRoom("trip-1"))

	p.Drop("conn-1")

	if rooms := p.Rooms("conn-1"); len(rooms) != 0 {
		t.Errorf("expected no rooms after drop, got %v", rooms)
	}
	if members := p.Resolve(UserRoom("user-1")); len(members) != 0 {
		t.Errorf("expected personal room purged, got %v", members)
	}
	// Other connections keep their memberships.
	if members := p.Resolve(TripRoom("trip-1")); len(members) != 1 || members[0] != "conn-2" {
		t.Errorf("expected conn-2 to remain in trip room, got %v", members)
	}
}

func TestPresence_RoomKeys(t *testing.T) {
	t.Parallel()

	if got := UserRoom("u1"); got != "user_u1" {
		t.Errorf("unexpected user room key: %s", got)
	}
	if got := TripRoom("t1"); got != "trip_t1" {
		t.Errorf("unexpected trip room key: %s", got)
	}
	if got := TripUserRoom("t1", "u1"); got != "trip_t1_user_u1" {
		t.Errorf("unexpected trip-user room key: %s", got)
	}
}
