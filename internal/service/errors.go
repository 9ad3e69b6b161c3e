package service

import "errors"

var (
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering with an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidUserID is returned when a user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidTripID is returned when a trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidRating is returned when a rating is outside 1-5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrEmptyMessage is returned when a chat message has no text.
	ErrEmptyMessage = errors.New("message text is required")

	// ErrMessageTooLong is returned when a chat message exceeds the length cap.
	ErrMessageTooLong = errors.New("message text exceeds maximum length")

	// ErrNotTripParticipant is returned when a non-member touches a trip's chat.
	ErrNotTripParticipant = errors.New("user is not part of this trip")

	// ErrConcurrentUpdate is returned when the per-trip lock could not be
	// acquired within the retry budget. Callers should retry the request.
	ErrConcurrentUpdate = errors.New("trip is being modified, try again")

	// ErrMissingFields is returned when a required request field is absent.
	ErrMissingFields = errors.New("missing required fields")
)
