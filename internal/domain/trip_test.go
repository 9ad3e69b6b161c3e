package domain

import (
	"errors"
	"testing"
)

var (
	testPickup  = Point{Address: "Abay 10", Coordinates: Coordinate{Lng: 76.9286, Lat: 43.2567}}
	testDropoff = Point{Address: "Satpayev 90", Coordinates: Coordinate{Lng: 76.8512, Lat: 43.2220}}
)

func newTestTrip(t *testing.T, seats int) *Trip {
	t.Helper()
	trip, err := NewTrip("driver-1", testPickup, testDropoff, seats, "sedan", 100)
	if err != nil {
		t.Fatalf("unexpected error creating trip: %v", err)
	}
	return trip
}

func TestNewTrip_DriverTakesFirstSeat(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)

	if trip.Status != TripStatusActive {
		t.Errorf("expected status %s, got %s", TripStatusActive, trip.Status)
	}
	if trip.OccupiedSeats != 1 {
		t.Errorf("expected 1 occupied seat for the driver, got %d", trip.OccupiedSeats)
	}
	if len(trip.TripCode) != 8 {
		t.Errorf("expected 8-character trip code, got %q", trip.TripCode)
	}
}

func TestNewTrip_RejectsInvalidSeats(t *testing.T) {
	t.Parallel()

	if _, err := NewTrip("driver-1", testPickup, testDropoff, 0, "sedan", 100); !errors.Is(err, ErrInvalidSeats) {
		t.Errorf("expected ErrInvalidSeats, got %v", err)
	}
}

func TestJoin_AddsMatchedMembership(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)

	event, err := trip.Join("rider-1", testPickup, testDropoff, 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.OccupiedSeats != 2 {
		t.Errorf("expected 2 occupied seats, got %d", trip.OccupiedSeats)
	}
	if len(trip.Riders) != 1 {
		t.Fatalf("expected 1 rider, got %d", len(trip.Riders))
	}
	if trip.Riders[0].Status != RiderStatusMatched {
		t.Errorf("expected rider status %s, got %s", RiderStatusMatched, trip.Riders[0].Status)
	}
	if event == nil {
		t.Fatal("expected a rider-joined event")
	}
	if event.Type != EventRiderJoined {
		t.Errorf("expected %s event, got %s", EventRiderJoined, event.Type)
	}
	if event.DriverID != "driver-1" {
		t.Errorf("expected event to carry the driver id, got %q", event.DriverID)
	}
}

func TestJoin_SeatsFull(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 2) // driver + 1 free seat

	if _, err := trip.Join("rider-1", testPickup, testDropoff, 40); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if _, err := trip.Join("rider-2", testPickup, testDropoff, 40); !errors.Is(err, ErrSeatsFull) {
		t.Errorf("expected ErrSeatsFull, got %v", err)
	}
	if trip.OccupiedSeats != 2 {
		t.Errorf("failed join must not change seats, got %d", trip.OccupiedSeats)
	}
}

func TestJoin_DuplicateRider(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)

	if _, err := trip.Join("rider-1", testPickup, testDropoff, 40); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if _, err := trip.Join("rider-1", testPickup, testDropoff, 40); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("expected ErrAlreadyJoined, got %v", err)
	}
}

func TestJoin_InactiveTrip(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Status = TripStatusCompleted

	if _, err := trip.Join("rider-1", testPickup, testDropoff, 40); !errors.Is(err, ErrTripNotActive) {
		t.Errorf("expected ErrTripNotActive, got %v", err)
	}
}

func TestRespond_AcceptConfirmsRider(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Join("rider-1", testPickup, testDropoff, 40)

	event, err := trip.Respond("driver-1", "rider-1", ActionAccept)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Riders[0].Status != RiderStatusConfirmed {
		t.Errorf("expected rider status %s, got %s", RiderStatusConfirmed, trip.Riders[0].Status)
	}
	if trip.OccupiedSeats != 2 {
		t.Errorf("accept must not change seats, got %d", trip.OccupiedSeats)
	}
	if event.Type != EventRiderAccepted {
		t.Errorf("expected %s event, got %s", EventRiderAccepted, event.Type)
	}
}

func TestRespond_RejectRemovesRiderAndFreesSeat(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Join("rider-1", testPickup, testDropoff, 40)

	event, err := trip.Respond("driver-1", "rider-1", ActionReject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(trip.Riders) != 0 {
		t.Errorf("expected rejected rider to be removed, got %d riders", len(trip.Riders))
	}
	if trip.OccupiedSeats != 1 {
		t.Errorf("expected seat freed after reject, got %d occupied", trip.OccupiedSeats)
	}
	if event.Type != EventRiderRejected {
		t.Errorf("expected %s event, got %s", EventRiderRejected, event.Type)
	}
}

func TestRespond_AfterReject_RiderNotFound(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Join("rider-1", testPickup, testDropoff, 40)
	trip.Respond("driver-1", "rider-1", ActionReject)

	if _, err := trip.Respond("driver-1", "rider-1", ActionAccept); !errors.Is(err, ErrRiderNotFound) {
		t.Errorf("expected ErrRiderNotFound after reject, got %v", err)
	}
}

func TestRespond_OnlyDriver(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Join("rider-1", testPickup, testDropoff, 40)

	if _, err := trip.Respond("rider-1", "rider-1", ActionAccept); !errors.Is(err, ErrNotTripDriver) {
		t.Errorf("expected ErrNotTripDriver, got %v", err)
	}
}

func TestRespond_InvalidAction(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Join("rider-1", testPickup, testDropoff, 40)

	if _, err := trip.Respond("driver-1", "rider-1", RiderAction("maybe")); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("expected ErrInvalidAction, got %v", err)
	}
}

func TestRemoveRider_ByRiderThemself(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Join("rider-1", testPickup, testDropoff, 40)

	event, err := trip.RemoveRider("rider-1", "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.OccupiedSeats != 1 {
		t.Errorf("expected seat freed after cancel, got %d occupied", trip.OccupiedSeats)
	}
	if event.Type != EventRiderCancelled {
		t.Errorf("expected %s event, got %s", EventRiderCancelled, event.Type)
	}
}

func TestRemoveRider_ByDriver(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Join("rider-1", testPickup, testDropoff, 40)

	if _, err := trip.RemoveRider("driver-1", "rider-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trip.Riders) != 0 {
		t.Errorf("expected rider removed, got %d riders", len(trip.Riders))
	}
}

func TestRemoveRider_ByStranger_Forbidden(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Join("rider-1", testPickup, testDropoff, 40)

	if _, err := trip.RemoveRider("rider-2", "rider-1"); !errors.Is(err, ErrCancelForbidden) {
		t.Errorf("expected ErrCancelForbidden, got %v", err)
	}
	if trip.OccupiedSeats != 2 {
		t.Errorf("forbidden cancel must not change seats, got %d", trip.OccupiedSeats)
	}
}

func TestComplete_ConfirmedBecomeCompleted_MatchedLeftAlone(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Join("rider-1", testPickup, testDropoff, 40)
	trip.Join("rider-2", testPickup, testDropoff, 40)
	trip.Respond("driver-1", "rider-1", ActionAccept)

	event, err := trip.Complete("driver-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != TripStatusCompleted {
		t.Errorf("expected trip status %s, got %s", TripStatusCompleted, trip.Status)
	}
	if trip.EndTime.IsZero() {
		t.Error("expected end time to be set")
	}
	if trip.Riders[0].Status != RiderStatusCompleted {
		t.Errorf("confirmed rider should complete, got %s", trip.Riders[0].Status)
	}
	if trip.Riders[1].Status != RiderStatusMatched {
		t.Errorf("matched rider should stay matched, got %s", trip.Riders[1].Status)
	}
	if event.Type != EventTripCompleted {
		t.Errorf("expected %s event, got %s", EventTripCompleted, event.Type)
	}
	if len(event.RiderIDs) != 2 {
		t.Errorf("expected event to list both riders, got %v", event.RiderIDs)
	}
}

func TestComplete_OnlyDriver(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)

	if _, err := trip.Complete("rider-1", nil); !errors.Is(err, ErrNotTripDriver) {
		t.Errorf("expected ErrNotTripDriver, got %v", err)
	}
}

func TestComplete_Twice_Fails(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)

	if _, err := trip.Complete("driver-1", nil); err != nil {
		t.Fatalf("first complete failed: %v", err)
	}
	if _, err := trip.Complete("driver-1", nil); !errors.Is(err, ErrTripNotActive) {
		t.Errorf("expected ErrTripNotActive on second complete, got %v", err)
	}
}

func TestComplete_ReplacesRoute(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	route := []RoutePoint{
		{Coordinates: testPickup.Coordinates},
		{Coordinates: testDropoff.Coordinates},
	}

	if _, err := trip.Complete("driver-1", route); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trip.Route) != 2 {
		t.Errorf("expected final route to be stored, got %d points", len(trip.Route))
	}
}

func TestHasParticipant(t *testing.T) {
	t.Parallel()

	trip := newTestTrip(t, 4)
	trip.Join("rider-1", testPickup, testDropoff, 40)

	if !trip.HasParticipant("driver-1") {
		t.Error("driver should be a participant")
	}
	if !trip.HasParticipant("rider-1") {
		t.Error("joined rider should be a participant")
	}
	if trip.HasParticipant("rider-2") {
		t.Error("stranger should not be a participant")
	}
}
