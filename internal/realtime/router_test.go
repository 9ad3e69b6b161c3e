package realtime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"carpool/internal/domain"
)

// recordingSub collects envelopes pushed to one connection.
type recordingSub struct {
	mu        sync.Mutex
	envelopes []Envelope
	sendError error
}

func (s *recordingSub) Send(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendError != nil {
		return s.sendError
	}
	s.envelopes = append(s.envelopes, env)
	return nil
}

func (s *recordingSub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.envelopes)
}

func (s *recordingSub) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.envelopes))
	for i, e := range s.envelopes {
		out[i] = e.Type
	}
	return out
}

func setupRouter() (*Presence, *EventRouter) {
	p := NewPresence()
	return p, NewEventRouter(p)
}

// connect registers a connection sitting in the given rooms.
func connect(p *Presence, r *EventRouter, connID string, rooms ...string) *recordingSub {
	sub := &recordingSub{}
	r.Register(connID, sub)
	for _, room := range rooms {
		p.Join(connID, room)
	}
	return sub
}

func riderJoined(tripID, driverID, riderID string) *domain.Event {
	return &domain.Event{
		Type:      domain.EventRiderJoined,
		TripID:    tripID,
		DriverID:  driverID,
		RiderID:   riderID,
		Payload:   map[string]any{"rider_id": riderID},
		Timestamp: time.Now(),
	}
}

func TestRouter_RiderJoined_ReachesDriverAndTripRoom(t *testing.T) {
	t.Parallel()

	p, r := setupRouter()
	driver := connect(p, r, "conn-driver", UserRoom("driver-1"))
	follower := connect(p, r, "conn-follower", TripRoom("trip-1"))
	stranger := connect(p, r, "conn-stranger", UserRoom("user-9"))

	r.Publish(riderJoined("trip-1", "driver-1", "rider-1"))

	if driver.count() != 1 {
		t.Errorf("expected driver to receive 1 envelope, got %d", driver.count())
	}
	if follower.count() != 1 {
		t.Errorf("expected trip follower to receive 1 envelope, got %d", follower.count())
	}
	if stranger.count() != 0 {
		t.Errorf("expected stranger to receive nothing, got %d", stranger.count())
	}
}

func TestRouter_AtMostOncePerConnection(t *testing.T) {
	t.Parallel()

	p, r := setupRouter()
	// The driver watches the trip room too, so both target rooms resolve to
	// the same connection.
	driver := connect(p, r, "conn-driver", UserRoom("driver-1"), TripRoom("trip-1"))

	r.Publish(riderJoined("trip-1", "driver-1", "rider-1"))

	if driver.count() != 1 {
		t.Errorf("expected exactly 1 envelope despite two room memberships, got %d", driver.count())
	}
}

func TestRouter_RiderAccepted_TargetsRiderOnly(t *testing.T) {
	t.Parallel()

	p, r := setupRouter()
	rider := connect(p, r, "conn-rider", UserRoom("rider-1"))
	otherRider := connect(p, r, "conn-other", UserRoom("rider-2"))

	r.Publish(&domain.Event{
		Type:      domain.EventRiderAccepted,
		TripID:    "trip-1",
		DriverID:  "driver-1",
		RiderID:   "rider-1",
		Timestamp: time.Now(),
	})

	if rider.count() != 1 {
		t.Errorf("expected accepted rider to be notified, got %d", rider.count())
	}
	if otherRider.count() != 0 {
		t.Errorf("expected other rider to receive nothing, got %d", otherRider.count())
	}
}

func TestRouter_TripCompleted_ReachesTripRoomAndEveryRider(t *testing.T) {
	t.Parallel()

	p, r := setupRouter()
	// rider-1 follows the trip room, rider-2 is only reachable via their
	// personal room.
	rider1 := connect(p, r, "conn-r1", TripRoom("trip-1"), UserRoom("rider-1"))
	rider2 := connect(p, r, "conn-r2", UserRoom("rider-2"))

	r.Publish(&domain.Event{
		Type:      domain.EventTripCompleted,
		TripID:    "trip-1",
		DriverID:  "driver-1",
		RiderIDs:  []string{"rider-1", "rider-2"},
		Timestamp: time.Now(),
	})

	if rider1.count() != 1 {
		t.Errorf("expected rider-1 to receive exactly 1 envelope, got %d", rider1.count())
	}
	if rider2.count() != 1 {
		t.Errorf("expected rider-2 to be reached via personal room, got %d", rider2.count())
	}
}

func TestRouter_NewMessage_ReachesRecipient(t *testing.T) {
	t.Parallel()

	p, r := setupRouter()
	recipient := connect(p, r, "conn-recipient", UserRoom("rider-1"))
	sender := connect(p, r, "conn-sender", UserRoom("driver-1"))

	r.Publish(domain.NewMessageEvent(&domain.Message{
		ID:          "msg-1",
		TripID:      "trip-1",
		SenderID:    "driver-1",
		RecipientID: "rider-1",
		MessageText: "on my way",
		MessageType: domain.MessageTypeText,
	}))

	if recipient.count() != 1 {
		t.Errorf("expected recipient to receive the message, got %d", recipient.count())
	}
	if sender.count() != 0 {
		t.Errorf("expected sender to receive nothing, got %d", sender.count())
	}
}

func TestRouter_LocationUpdate_BroadcastsToTripRoom(t *testing.T) {
	t.Parallel()

	p, r := setupRouter()
	follower1 := connect(p, r, "conn-1", TripRoom("trip-1"))
	follower2 := connect(p, r, "conn-2", TripRoom("trip-1"))
	outsider := connect(p, r, "conn-3", TripRoom("trip-2"))

	r.Publish(domain.NewLocationUpdateEvent("trip-1", "driver-1", domain.Coordinate{Lng: 76.9, Lat: 43.2}))

	if follower1.count() != 1 || follower2.count() != 1 {
		t.Errorf("expected both followers notified, got %d and %d", follower1.count(), follower2.count())
	}
	if outsider.count() != 0 {
		t.Errorf("expected other trip's follower to receive nothing, got %d", outsider.count())
	}
}

func TestRouter_SendFailure_DoesNotAffectOthers(t *testing.T) {
	t.Parallel()

	p, r := setupRouter()
	broken := &recordingSub{sendError: errors.New("write: broken pipe")}
	r.Register("conn-broken", broken)
	p.Join("conn-broken", TripRoom("trip-1"))
	healthy := connect(p, r, "conn-healthy", TripRoom("trip-1"))

	r.Publish(riderJoined("trip-1", "driver-1", "rider-1"))

	if healthy.count() != 1 {
		t.Errorf("expected healthy connection to still receive the event, got %d", healthy.count())
	}
}

func TestRouter_Unregister_StopsDeliveryAndPurgesRooms(t *testing.T) {
	t.Parallel()

	p, r := setupRouter()
	gone := connect(p, r, "conn-gone", UserRoom("driver-1"), TripRoom("trip-1"))

	r.Unregister("conn-gone")
	r.Publish(riderJoined("trip-1", "driver-1", "rider-1"))

	if gone.count() != 0 {
		t.Errorf("expected no delivery after unregister, got %d", gone.count())
	}
	if rooms := p.Rooms("conn-gone"); len(rooms) != 0 {
		t.Errorf("expected memberships purged on unregister, got %v", rooms)
	}
}

func TestRouter_PerTripOrderPreserved(t *testing.T) {
	t.Parallel()

	p, r := setupRouter()
	follower := connect(p, r, "conn-1", TripRoom("trip-1"), UserRoom("rider-1"))

	r.Publish(riderJoined("trip-1", "driver-1", "rider-1"))
	r.Publish(&domain.Event{
		Type:      domain.EventRiderAccepted,
		TripID:    "trip-1",
		RiderID:   "rider-1",
		Timestamp: time.Now(),
	})
	r.Publish(&domain.Event{
		Type:      domain.EventTripCompleted,
		TripID:    "trip-1",
		RiderIDs:  []string{"rider-1"},
		Timestamp: time.Now(),
	})

	got := follower.types()
	want := []string{
		string(domain.EventRiderJoined),
		string(domain.EventRiderAccepted),
		string(domain.EventTripCompleted),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d envelopes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("envelope %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRouter_NilEvent_Ignored(t *testing.T) {
	t.Parallel()

	_, r := setupRouter()
	r.Publish(nil) // must not panic
}
