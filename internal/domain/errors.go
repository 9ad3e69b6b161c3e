package domain

import "errors"

var (
	// ErrInvalidCoordinate is returned when a coordinate pair is not exactly
	// two finite numbers.
	ErrInvalidCoordinate = errors.New("invalid coordinate: expected [longitude, latitude]")

	// ErrInvalidSeats is returned when a trip is created with fewer than one seat.
	ErrInvalidSeats = errors.New("available seats must be at least 1")

	// ErrTripNotActive is returned when mutating a completed or cancelled trip.
	ErrTripNotActive = errors.New("trip is not active")

	// ErrSeatsFull is returned when joining a trip with no remaining seats.
	ErrSeatsFull = errors.New("no available seats in this trip")

	// ErrAlreadyJoined is returned when a rider is already in the trip.
	ErrAlreadyJoined = errors.New("rider has already joined this trip")

	// ErrRiderNotFound is returned when the rider is not in the trip.
	ErrRiderNotFound = errors.New("rider not found in this trip")

	// ErrNotTripDriver is returned when a driver-only action is attempted by
	// someone else.
	ErrNotTripDriver = errors.New("only the trip driver can perform this action")

	// ErrCancelForbidden is returned when someone other than the rider or the
	// driver tries to cancel a join request.
	ErrCancelForbidden = errors.New("only the rider or the driver can cancel this request")

	// ErrInvalidAction is returned for a respond action other than accept/reject.
	ErrInvalidAction = errors.New("action must be accept or reject")

	// ErrSeatInvariant indicates internal seat-count corruption. It is always
	// a defect, never a user-facing condition.
	ErrSeatInvariant = errors.New("seat invariant violated")
)
