package repository

import (
	"context"

	"carpool/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByIDs retrieves the trips for the given IDs. Missing IDs are
	// skipped, not errors.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// GetByDriverID retrieves trips created by the driver, newest first.
	GetByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Trip, error)

	// GetByRiderID retrieves trips the rider has joined, newest first.
	GetByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.Trip, error)
}
