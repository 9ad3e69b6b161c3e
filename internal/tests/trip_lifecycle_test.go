package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// TRIP LIFECYCLE
// ──────────────────────────────────────────────

var (
	lifecyclePickup  = domain.Point{Address: "Abay 10", Coordinates: domain.Coordinate{Lng: 76.9286, Lat: 43.2567}}
	lifecycleDropoff = domain.Point{Address: "Satpayev 90", Coordinates: domain.Coordinate{Lng: 76.8512, Lat: 43.2220}}
)

type lifecycleFixture struct {
	tripRepo  *MockTripRepository
	userRepo  *MockUserRepository
	geoStore  *MockGeoStore
	lockStore *MockLockStore
	events    *CapturePublisher
	service   *service.TripService
}

func newLifecycleFixture() *lifecycleFixture {
	f := &lifecycleFixture{
		tripRepo:  NewMockTripRepository(),
		userRepo:  NewMockUserRepository(),
		geoStore:  NewMockGeoStore(),
		lockStore: NewMockLockStore(),
		events:    NewCapturePublisher(),
	}
	f.userRepo.AddUser(&domain.User{
		ID:        "driver-1",
		FirstName: "Aidar",
		UserType:  domain.UserTypeDriver,
		Vehicle:   "Toyota Camry",
	})
	f.service = service.NewTripService(f.tripRepo, f.userRepo, f.geoStore, f.lockStore, f.events)
	return f
}

func (f *lifecycleFixture) startTrip(t *testing.T, seats int) *domain.Trip {
	t.Helper()
	trip, err := f.service.StartTrip(context.Background(), service.StartTripRequest{
		DriverID:       "driver-1",
		Pickup:         lifecyclePickup,
		Dropoff:        lifecycleDropoff,
		AvailableSeats: seats,
	})
	if err != nil {
		t.Fatalf("failed to start trip: %v", err)
	}
	return trip
}

func TestStartTrip_CreatesActiveTripAndIndexesPickup(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)

	if trip.Status != domain.TripStatusActive {
		t.Errorf("expected status %s, got %s", domain.TripStatusActive, trip.Status)
	}
	if trip.OccupiedSeats != 1 {
		t.Errorf("expected driver to occupy 1 seat, got %d", trip.OccupiedSeats)
	}
	if !f.geoStore.HasTrip(trip.ID) {
		t.Error("expected trip pickup to be indexed")
	}
	if f.tripRepo.CountTrips() != 1 {
		t.Errorf("expected 1 stored trip, got %d", f.tripRepo.CountTrips())
	}
}

func TestStartTrip_DefaultsVehicleAndFare(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)

	// Vehicle falls back to the driver's registered vehicle, fare to the
	// standard base.
	if trip.Vehicle != "Toyota Camry" {
		t.Errorf("expected vehicle from driver profile, got %q", trip.Vehicle)
	}
	if trip.BaseFare != 100 {
		t.Errorf("expected default base fare 100, got %v", trip.BaseFare)
	}
}

func TestStartTrip_UnknownDriver(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	_, err := f.service.StartTrip(context.Background(), service.StartTripRequest{
		DriverID:       "ghost",
		Pickup:         lifecyclePickup,
		Dropoff:        lifecycleDropoff,
		AvailableSeats: 4,
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJoinTrip_PersistsMembershipAndPublishes(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)

	joined, err := f.service.JoinTrip(context.Background(), service.JoinTripRequest{
		TripID:  trip.ID,
		RiderID: "rider-1",
		Fare:    40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if joined.OccupiedSeats != 2 {
		t.Errorf("expected 2 occupied seats, got %d", joined.OccupiedSeats)
	}
	// Nil pickup/dropoff fall back to the trip's own route.
	if joined.Riders[0].PickupPoint.Address != lifecyclePickup.Address {
		t.Errorf("expected rider pickup to default to trip pickup, got %q", joined.Riders[0].PickupPoint.Address)
	}

	stored := f.tripRepo.GetTrip(trip.ID)
	if len(stored.Riders) != 1 {
		t.Fatalf("expected membership persisted, got %d riders", len(stored.Riders))
	}

	events := f.events.EventsOfType(domain.EventRiderJoined)
	if len(events) != 1 {
		t.Fatalf("expected 1 rider-joined event, got %d", len(events))
	}
	if events[0].TripID != trip.ID || events[0].RiderID != "rider-1" {
		t.Errorf("event carries wrong ids: %+v", events[0])
	}
}

func TestJoinTrip_SeatsFull(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 2) // driver + 1 free seat

	ctx := context.Background()
	if _, err := f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-1"}); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	_, err := f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-2"})
	if !errors.Is(err, domain.ErrSeatsFull) {
		t.Errorf("expected ErrSeatsFull, got %v", err)
	}

	// The failed join must not leak an event or a seat.
	if len(f.events.EventsOfType(domain.EventRiderJoined)) != 1 {
		t.Error("failed join must not publish an event")
	}
	if stored := f.tripRepo.GetTrip(trip.ID); stored.OccupiedSeats != 2 {
		t.Errorf("expected 2 occupied seats, got %d", stored.OccupiedSeats)
	}
}

func TestJoinTrip_UpdateFailure_NoEvent(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)
	f.tripRepo.UpdateError = ErrMockDBConstraint

	_, err := f.service.JoinTrip(context.Background(), service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-1"})
	if !errors.Is(err, ErrMockDBConstraint) {
		t.Fatalf("expected injected update error, got %v", err)
	}
	if len(f.events.Events()) != 0 {
		t.Error("no event may be published when the commit fails")
	}
}

func TestRespondToRider_AcceptAndReject(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)
	ctx := context.Background()

	f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-1"})
	f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-2"})

	accepted, err := f.service.RespondToRider(ctx, trip.ID, "driver-1", "rider-1", domain.ActionAccept)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Riders[0].Status != domain.RiderStatusConfirmed {
		t.Errorf("expected confirmed rider, got %s", accepted.Riders[0].Status)
	}

	rejected, err := f.service.RespondToRider(ctx, trip.ID, "driver-1", "rider-2", domain.ActionReject)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if len(rejected.Riders) != 1 {
		t.Errorf("expected rejected rider removed, got %d riders", len(rejected.Riders))
	}
	if rejected.OccupiedSeats != 2 {
		t.Errorf("expected seat freed by reject, got %d occupied", rejected.OccupiedSeats)
	}

	if len(f.events.EventsOfType(domain.EventRiderAccepted)) != 1 {
		t.Error("expected one ride-accepted event")
	}
	if len(f.events.EventsOfType(domain.EventRiderRejected)) != 1 {
		t.Error("expected one ride-rejected event")
	}
}

func TestRespondToRider_NotDriver(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)
	ctx := context.Background()
	f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-1"})

	_, err := f.service.RespondToRider(ctx, trip.ID, "rider-1", "rider-1", domain.ActionAccept)
	if !errors.Is(err, domain.ErrNotTripDriver) {
		t.Errorf("expected ErrNotTripDriver, got %v", err)
	}
}

func TestCancelRiderRequest_DefaultsToRequester(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)
	ctx := context.Background()
	f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-1"})

	// Empty rider id means the requester cancels their own request.
	cancelled, err := f.service.CancelRiderRequest(ctx, trip.ID, "rider-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cancelled.Riders) != 0 {
		t.Errorf("expected membership removed, got %d riders", len(cancelled.Riders))
	}
	if cancelled.OccupiedSeats != 1 {
		t.Errorf("expected seat freed, got %d occupied", cancelled.OccupiedSeats)
	}
	if len(f.events.EventsOfType(domain.EventRiderCancelled)) != 1 {
		t.Error("expected one rider-cancelled event")
	}
}

func TestCancelRiderRequest_StrangerForbidden(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)
	ctx := context.Background()
	f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-1"})

	_, err := f.service.CancelRiderRequest(ctx, trip.ID, "rider-2", "rider-1")
	if !errors.Is(err, domain.ErrCancelForbidden) {
		t.Errorf("expected ErrCancelForbidden, got %v", err)
	}
}

func TestCompleteTrip_DeindexesAndPublishes(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)
	ctx := context.Background()
	f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-1"})
	f.service.RespondToRider(ctx, trip.ID, "driver-1", "rider-1", domain.ActionAccept)

	completed, err := f.service.CompleteTrip(ctx, trip.ID, "driver-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if completed.Status != domain.TripStatusCompleted {
		t.Errorf("expected status %s, got %s", domain.TripStatusCompleted, completed.Status)
	}
	if f.geoStore.HasTrip(trip.ID) {
		t.Error("expected completed trip removed from geo index")
	}
	if len(f.events.EventsOfType(domain.EventTripCompleted)) != 1 {
		t.Error("expected one trip-completed event")
	}

	// Completed trips reject further joins.
	_, err = f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-2"})
	if !errors.Is(err, domain.ErrTripNotActive) {
		t.Errorf("expected ErrTripNotActive after completion, got %v", err)
	}
}

func TestCompleteTrip_NotDriver(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)

	_, err := f.service.CompleteTrip(context.Background(), trip.ID, "rider-1", nil)
	if !errors.Is(err, domain.ErrNotTripDriver) {
		t.Errorf("expected ErrNotTripDriver, got %v", err)
	}
	if f.geoStore.HasTrip(trip.ID) == false {
		t.Error("failed completion must not deindex the trip")
	}
}

func TestEventsPublishedInCommitOrder(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)
	ctx := context.Background()

	f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-1"})
	f.service.RespondToRider(ctx, trip.ID, "driver-1", "rider-1", domain.ActionAccept)
	f.service.CompleteTrip(ctx, trip.ID, "driver-1", nil)

	events := f.events.Events()
	want := []domain.EventType{
		domain.EventRiderJoined,
		domain.EventRiderAccepted,
		domain.EventTripCompleted,
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, w := range want {
		if events[i].Type != w {
			t.Errorf("event %d: expected %s, got %s", i, w, events[i].Type)
		}
	}
}

// ──────────────────────────────────────────────
// CONCURRENCY
// ──────────────────────────────────────────────

func TestConcurrentJoins_ExactlyOneWinsLastSeat(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 2) // driver + 1 free seat

	const contenders = 5
	var (
		wg        sync.WaitGroup
		successes int32
		seatsFull int32
	)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		riderID := "rider-" + string(rune('a'+i))
		go func() {
			defer wg.Done()
			_, err := f.service.JoinTrip(context.Background(), service.JoinTripRequest{
				TripID:  trip.ID,
				RiderID: riderID,
			})
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case errors.Is(err, domain.ErrSeatsFull):
				atomic.AddInt32(&seatsFull, 1)
			case errors.Is(err, service.ErrConcurrentUpdate):
				// Lost the lock race entirely; also a valid rejection.
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 successful join, got %d", successes)
	}

	stored := f.tripRepo.GetTrip(trip.ID)
	if stored.OccupiedSeats != 2 {
		t.Errorf("expected 2 occupied seats after the race, got %d", stored.OccupiedSeats)
	}
	if len(stored.Riders) != 1 {
		t.Errorf("expected exactly 1 membership, got %d", len(stored.Riders))
	}
	if got := len(f.events.EventsOfType(domain.EventRiderJoined)); got != 1 {
		t.Errorf("expected exactly 1 rider-joined event, got %d", got)
	}
}

func TestMutate_LockNeverAcquired_ConcurrentUpdate(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 4)
	f.lockStore.ForceAcquireFailure = true

	start := time.Now()
	_, err := f.service.JoinTrip(context.Background(), service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-1"})
	if !errors.Is(err, service.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
	// The retry loop must have backed off rather than spun.
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("expected bounded retries with delay, finished in %v", elapsed)
	}
}

func TestMutate_LockReleasedAfterFailure(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture()
	trip := f.startTrip(t, 2)
	ctx := context.Background()

	f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-1"})

	// Fails with seats full, but must still release the lock.
	f.service.JoinTrip(ctx, service.JoinTripRequest{TripID: trip.ID, RiderID: "rider-2"})
	if f.lockStore.IsLocked(trip.ID) {
		t.Error("expected trip lock released after failed mutation")
	}
}
