package domain

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// RiderStatus represents a rider's negotiation state within a trip.
type RiderStatus string

const (
	RiderStatusMatched   RiderStatus = "matched"
	RiderStatusConfirmed RiderStatus = "confirmed"
	RiderStatusOngoing   RiderStatus = "ongoing"
	RiderStatusCompleted RiderStatus = "completed"
	RiderStatusCancelled RiderStatus = "cancelled"
)

// RiderAction is a driver's response to a join request.
type RiderAction string

const (
	ActionAccept RiderAction = "accept"
	ActionReject RiderAction = "reject"
)

// RiderMembership is a rider's attachment to a trip. Memberships are owned
// by their trip and never addressed independently.
type RiderMembership struct {
	RiderID      string      `json:"rider_id"`
	PickupPoint  Point       `json:"pickup_point"`
	DropoffPoint Point       `json:"dropoff_point"`
	Fare         float64     `json:"fare"`
	Status       RiderStatus `json:"status"`
	JoinedAt     time.Time   `json:"joined_at"`
}

// RoutePoint is a timestamped GPS sample along the trip trajectory.
type RoutePoint struct {
	Coordinates Coordinate `json:"coordinates"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Trip is a driver-initiated ride offer with finite seat capacity.
type Trip struct {
	ID              string
	TripCode        string
	DriverID        string
	PickupLocation  Point
	DropoffLocation Point
	Status          TripStatus
	AvailableSeats  int
	OccupiedSeats   int
	Riders          []RiderMembership
	Vehicle         string
	BaseFare        float64
	Route           []RoutePoint
	StartTime       time.Time
	EndTime         time.Time
}

const tripCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTripCode generates an 8-character shareable trip code.
func NewTripCode() string {
	code := make([]byte, 8)
	for i := range code {
		code[i] = tripCodeChars[rand.Intn(len(tripCodeChars))]
	}
	return string(code)
}

// NewTrip creates an active trip with the driver occupying one seat.
func NewTrip(driverID string, pickup, dropoff Point, availableSeats int, vehicle string, baseFare float64) (*Trip, error) {
	if availableSeats < 1 {
		return nil, ErrInvalidSeats
	}
	if !pickup.Valid() || !dropoff.Valid() {
		return nil, ErrInvalidCoordinate
	}

	return &Trip{
		ID:              uuid.New().String(),
		TripCode:        NewTripCode(),
		DriverID:        driverID,
		PickupLocation:  pickup,
		DropoffLocation: dropoff,
		Status:          TripStatusActive,
		AvailableSeats:  availableSeats,
		OccupiedSeats:   1, // driver takes 1 seat
		Riders:          []RiderMembership{},
		Vehicle:         vehicle,
		BaseFare:        baseFare,
		StartTime:       time.Now(),
	}, nil
}

// riderIndex returns the position of riderID in the membership list, or -1.
func (t *Trip) riderIndex(riderID string) int {
	for i, r := range t.Riders {
		if r.RiderID == riderID {
			return i
		}
	}
	return -1
}

// HasParticipant reports whether userID is the driver or one of the riders.
func (t *Trip) HasParticipant(userID string) bool {
	return userID == t.DriverID || t.riderIndex(userID) >= 0
}

// RiderIDs returns the ids of all current members.
func (t *Trip) RiderIDs() []string {
	ids := make([]string, len(t.Riders))
	for i, r := range t.Riders {
		ids[i] = r.RiderID
	}
	return ids
}

// Join appends a matched membership and takes a seat. The trip must be
// active, have a free seat, and not already contain the rider.
func (t *Trip) Join(riderID string, pickup, dropoff Point, fare float64) (*Event, error) {
	if t.Status != TripStatusActive {
		return nil, ErrTripNotActive
	}
	if t.OccupiedSeats >= t.AvailableSeats {
		return nil, ErrSeatsFull
	}
	if t.riderIndex(riderID) >= 0 {
		return nil, ErrAlreadyJoined
	}
	if !pickup.Valid() || !dropoff.Valid() {
		return nil, ErrInvalidCoordinate
	}

	t.Riders = append(t.Riders, RiderMembership{
		RiderID:      riderID,
		PickupPoint:  pickup,
		DropoffPoint: dropoff,
		Fare:         fare,
		Status:       RiderStatusMatched,
		JoinedAt:     time.Now(),
	})
	t.OccupiedSeats++

	if err := t.checkSeats(); err != nil {
		return nil, err
	}
	return newRiderJoinedEvent(t, riderID, fare), nil
}

// Respond applies the driver's accept or reject decision to a join request.
// Accepting confirms the membership; rejecting removes it and frees the seat.
func (t *Trip) Respond(driverID, riderID string, action RiderAction) (*Event, error) {
	if driverID != t.DriverID {
		return nil, ErrNotTripDriver
	}
	if action != ActionAccept && action != ActionReject {
		return nil, ErrInvalidAction
	}

	i := t.riderIndex(riderID)
	if i < 0 {
		return nil, ErrRiderNotFound
	}

	if action == ActionAccept {
		t.Riders[i].Status = RiderStatusConfirmed
		return newRiderRespondedEvent(t, riderID, ActionAccept), nil
	}

	t.Riders = append(t.Riders[:i], t.Riders[i+1:]...)
	t.OccupiedSeats--
	if err := t.checkSeats(); err != nil {
		return nil, err
	}
	return newRiderRespondedEvent(t, riderID, ActionReject), nil
}

// RemoveRider cancels a join request. The requester must be the rider
// themself or the trip driver.
func (t *Trip) RemoveRider(requesterID, riderID string) (*Event, error) {
	if requesterID != riderID && requesterID != t.DriverID {
		return nil, ErrCancelForbidden
	}

	i := t.riderIndex(riderID)
	if i < 0 {
		return nil, ErrRiderNotFound
	}

	t.Riders = append(t.Riders[:i], t.Riders[i+1:]...)
	t.OccupiedSeats--
	if err := t.checkSeats(); err != nil {
		return nil, err
	}
	return newRiderCancelledEvent(t, riderID), nil
}

// Complete ends the trip. Confirmed memberships transition to completed;
// memberships still in matched state are left untouched.
func (t *Trip) Complete(driverID string, finalRoute []RoutePoint) (*Event, error) {
	if driverID != t.DriverID {
		return nil, ErrNotTripDriver
	}
	if t.Status != TripStatusActive {
		return nil, ErrTripNotActive
	}

	t.Status = TripStatusCompleted
	t.EndTime = time.Now()
	if finalRoute != nil {
		t.Route = finalRoute
	}
	for i := range t.Riders {
		if t.Riders[i].Status == RiderStatusConfirmed {
			t.Riders[i].Status = RiderStatusCompleted
		}
	}
	return newTripCompletedEvent(t), nil
}

// checkSeats re-validates the seat invariant after a mutation.
func (t *Trip) checkSeats() error {
	if t.OccupiedSeats < 0 || t.OccupiedSeats > t.AvailableSeats {
		return ErrSeatInvariant
	}
	return nil
}
