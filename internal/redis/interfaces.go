package redis

import (
	"context"
	"time"
)

// GeoStoreInterface defines the geospatial index capability that matching
// depends on.
type GeoStoreInterface interface {
	AddTrip(ctx context.Context, tripID string, lng, lat float64) error
	FindNearbyTrips(ctx context.Context, lng, lat, radiusKm float64) ([]TripLocation, error)
	RemoveTrip(ctx context.Context, tripID string) error
}

// LockStoreInterface defines the per-trip distributed lock capability.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ GeoStoreInterface  = (*GeoStore)(nil)
	_ LockStoreInterface = (*LockStore)(nil)
)
