// Package geo provides the pure distance and trip-match scoring functions.
// Nothing here blocks or touches external state.
package geo

import (
	"math"

	"carpool/internal/domain"
)

const earthRadiusKm = 6371

// Matching policy constants. Pickup proximity matters more than destination
// overlap for pooling feasibility, hence the 70/30 blend.
const (
	pickupToleranceKm  = 10.0
	dropoffToleranceKm = 15.0
	pickupWeight       = 0.7
	dropoffWeight      = 0.3
)

// Distance returns the great-circle distance in kilometers between two
// coordinates, using the haversine formula.
func Distance(a, b domain.Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * (math.Pi / 180)
	dLng := (b.Lng - a.Lng) * (math.Pi / 180)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*(math.Pi/180))*math.Cos(b.Lat*(math.Pi/180))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// MatchScore blends pickup and dropoff proximity into a 0-100 score.
func MatchScore(riderPickup, riderDropoff, driverPickup, driverDropoff domain.Coordinate) int {
	pickupDist := Distance(riderPickup, driverPickup)
	dropoffDist := Distance(riderDropoff, driverDropoff)
	return ScoreDistances(pickupDist, dropoffDist)
}

// ScoreDistances computes the match score from already-known distances.
func ScoreDistances(pickupDistKm, dropoffDistKm float64) int {
	pickupScore := math.Max(0, 100-(pickupDistKm/pickupToleranceKm)*100)
	dropoffScore := math.Max(0, 100-(dropoffDistKm/dropoffToleranceKm)*100)
	return int(math.Round(pickupScore*pickupWeight + dropoffScore*dropoffWeight))
}
