package service

import (
	"context"
	"errors"
	"log"
	"time"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

const (
	tripLockTTL        = 10 * time.Second
	tripLockRetryDelay = 100 * time.Millisecond
	tripLockRetries    = 10
)

// EventPublisher consumes domain events produced by trip state transitions.
// Delivery is best-effort: a failed or absent subscriber never affects the
// outcome of the request that produced the event.
type EventPublisher interface {
	Publish(event *domain.Event)
}

// TripService owns the trip lifecycle: start, join, respond, cancel,
// complete. All mutations on one trip are serialized through a per-trip
// lock; different trips proceed in parallel.
type TripService struct {
	tripRepo  repository.TripRepository
	userRepo  repository.UserRepository
	geoStore  redis.GeoStoreInterface
	lockStore redis.LockStoreInterface
	events    EventPublisher
}

// NewTripService creates a new TripService.
func NewTripService(
	tripRepo repository.TripRepository,
	userRepo repository.UserRepository,
	geoStore redis.GeoStoreInterface,
	lockStore redis.LockStoreInterface,
	events EventPublisher,
) *TripService {
	return &TripService{
		tripRepo:  tripRepo,
		userRepo:  userRepo,
		geoStore:  geoStore,
		lockStore: lockStore,
		events:    events,
	}
}

// StartTripRequest contains the parameters for creating a trip offer.
type StartTripRequest struct {
	DriverID       string
	Pickup         domain.Point
	Dropoff        domain.Point
	AvailableSeats int
	Vehicle        string
	BaseFare       float64
}

// StartTrip creates a new active trip with the driver occupying one seat.
func (s *TripService) StartTrip(ctx context.Context, req StartTripRequest) (*domain.Trip, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidUserID
	}

	driver, err := s.userRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	vehicle := req.Vehicle
	if vehicle == "" {
		vehicle = driver.Vehicle
	}
	if vehicle == "" {
		vehicle = "car"
	}
	baseFare := req.BaseFare
	if baseFare <= 0 {
		baseFare = 100
	}

	trip, err := domain.NewTrip(req.DriverID, req.Pickup, req.Dropoff, req.AvailableSeats, vehicle, baseFare)
	if err != nil {
		return nil, err
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	// Index the pickup for radius queries. The trip is already committed;
	// an index failure only hides it from searches until retried.
	if err := s.geoStore.AddTrip(ctx, trip.ID, trip.PickupLocation.Coordinates.Lng, trip.PickupLocation.Coordinates.Lat); err != nil {
		log.Printf("failed to index trip %s pickup: %v", trip.ID, err)
	}

	return trip, nil
}

// JoinTripRequest contains the parameters for a rider's join request.
type JoinTripRequest struct {
	TripID  string
	RiderID string
	Pickup  *domain.Point // nil falls back to the trip's pickup
	Dropoff *domain.Point // nil falls back to the trip's dropoff
	Fare    float64
}

// JoinTrip appends a matched membership and takes a seat.
func (s *TripService) JoinTrip(ctx context.Context, req JoinTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.RiderID == "" {
		return nil, ErrInvalidUserID
	}

	return s.mutateTrip(ctx, req.TripID, func(trip *domain.Trip) (*domain.Event, error) {
		pickup := trip.PickupLocation
		if req.Pickup != nil {
			pickup = *req.Pickup
		}
		dropoff := trip.DropoffLocation
		if req.Dropoff != nil {
			dropoff = *req.Dropoff
		}
		return trip.Join(req.RiderID, pickup, dropoff, req.Fare)
	})
}

// RespondToRider applies the driver's accept or reject decision.
func (s *TripService) RespondToRider(ctx context.Context, tripID, driverID, riderID string, action domain.RiderAction) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" || riderID == "" {
		return nil, ErrInvalidUserID
	}

	return s.mutateTrip(ctx, tripID, func(trip *domain.Trip) (*domain.Event, error) {
		return trip.Respond(driverID, riderID, action)
	})
}

// CancelRiderRequest removes a rider's join request. The requester must be
// the rider themself or the trip driver.
func (s *TripService) CancelRiderRequest(ctx context.Context, tripID, requesterID, riderID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if requesterID == "" {
		return nil, ErrInvalidUserID
	}
	if riderID == "" {
		riderID = requesterID
	}

	return s.mutateTrip(ctx, tripID, func(trip *domain.Trip) (*domain.Event, error) {
		return trip.RemoveRider(requesterID, riderID)
	})
}

// CompleteTrip ends the trip and optionally replaces its route trajectory.
func (s *TripService) CompleteTrip(ctx context.Context, tripID, driverID string, finalRoute []domain.RoutePoint) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidUserID
	}

	trip, err := s.mutateTrip(ctx, tripID, func(trip *domain.Trip) (*domain.Event, error) {
		return trip.Complete(driverID, finalRoute)
	})
	if err != nil {
		return nil, err
	}

	// Completed trips no longer match searches.
	if err := s.geoStore.RemoveTrip(ctx, tripID); err != nil {
		log.Printf("failed to deindex trip %s: %v", tripID, err)
	}

	return trip, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, tripID)
}

// GetDriverTrips retrieves trips created by the driver, newest first.
func (s *TripService) GetDriverTrips(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	if driverID == "" {
		return nil, ErrInvalidUserID
	}
	return s.tripRepo.GetByDriverID(ctx, driverID, 20)
}

// GetRiderTrips retrieves trips the rider has joined, newest first.
func (s *TripService) GetRiderTrips(ctx context.Context, riderID string) ([]*domain.Trip, error) {
	if riderID == "" {
		return nil, ErrInvalidUserID
	}
	return s.tripRepo.GetByRiderID(ctx, riderID, 20)
}

// mutateTrip runs a read-modify-write cycle on one trip under its lock.
// Once apply succeeds, the new state is committed before returning; the
// resulting event is published after the commit, in commit order.
func (s *TripService) mutateTrip(ctx context.Context, tripID string, apply func(*domain.Trip) (*domain.Event, error)) (*domain.Trip, error) {
	if err := s.acquireTripLock(ctx, tripID); err != nil {
		return nil, err
	}
	defer func() {
		_ = s.lockStore.ReleaseTripLock(ctx, tripID)
	}()

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	event, err := apply(trip)
	if err != nil {
		if errors.Is(err, domain.ErrSeatInvariant) {
			log.Printf("seat invariant violated on trip %s: occupied=%d available=%d",
				trip.ID, trip.OccupiedSeats, trip.AvailableSeats)
		}
		return nil, err
	}

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	if s.events != nil && event != nil {
		s.events.Publish(event)
	}

	return trip, nil
}

// acquireTripLock takes the per-trip lock, retrying briefly before giving up
// with ErrConcurrentUpdate.
func (s *TripService) acquireTripLock(ctx context.Context, tripID string) error {
	for attempt := 0; attempt < tripLockRetries; attempt++ {
		ok, err := s.lockStore.AcquireTripLock(ctx, tripID, tripLockTTL)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(tripLockRetryDelay):
		}
	}
	return ErrConcurrentUpdate
}
