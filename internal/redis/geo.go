package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const tripPickupKey = "trips:pickups"

// TripLocation is a trip pickup position returned by a radius query.
type TripLocation struct {
	TripID     string
	Lng        float64
	Lat        float64
	DistanceKm float64
}

// GeoStore maintains the geospatial index of active trip pickup points.
// Trips are added when started and removed when they leave the active state.
type GeoStore struct {
	client *redis.Client
}

// NewGeoStore creates a new GeoStore.
func NewGeoStore(client *redis.Client) *GeoStore {
	return &GeoStore{client: client}
}

// AddTrip indexes a trip's pickup point using GEOADD.
func (s *GeoStore) AddTrip(ctx context.Context, tripID string, lng, lat float64) error {
	return s.client.GeoAdd(ctx, tripPickupKey, &redis.GeoLocation{
		Name:      tripID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyTrips returns trip IDs with a pickup point within the given
// radius (in kilometers), closest first.
func (s *GeoStore) FindNearbyTrips(ctx context.Context, lng, lat, radiusKm float64) ([]TripLocation, error) {
	results, err := s.client.GeoRadius(ctx, tripPickupKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]TripLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, TripLocation{
			TripID:     r.Name,
			Lng:        r.Longitude,
			Lat:        r.Latitude,
			DistanceKm: r.Dist,
		})
	}

	return locations, nil
}

// RemoveTrip removes a trip's pickup point from the geo index.
func (s *GeoStore) RemoveTrip(ctx context.Context, tripID string) error {
	return s.client.ZRem(ctx, tripPickupKey, tripID).Err()
}
