package service

import (
	"context"
	"math"
	"sort"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

const (
	defaultSearchRadiusKm = 5.0
	defaultMatchLimit     = 10

	// Candidates scoring below this are never shown.
	minMatchScore = 30

	// Estimated share of the base fare a rider saves by pooling.
	savingsRate = 0.4
)

// MatchingService ranks active trips against a rider's search.
type MatchingService struct {
	geoStore redis.GeoStoreInterface
	tripRepo repository.TripRepository
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(geoStore redis.GeoStoreInterface, tripRepo repository.TripRepository) *MatchingService {
	return &MatchingService{
		geoStore: geoStore,
		tripRepo: tripRepo,
	}
}

// MatchRequest contains the parameters for a trip search.
type MatchRequest struct {
	RiderID       string
	Pickup        domain.Coordinate
	Dropoff       domain.Coordinate
	MaxDistanceKm float64 // 0 uses default
	Limit         int     // 0 uses default
}

// ScoredTrip is one ranked search result.
type ScoredTrip struct {
	Trip            *domain.Trip
	MatchScore      int
	PickupDistance  float64 // km, rounded to 2 decimals
	DropoffDistance float64 // km, rounded to 2 decimals
	Savings         int     // estimated fare savings
}

// FindMatches returns active trips near the rider's pickup, ranked by match
// score. An empty result is not an error. Reads here are not serialized with
// concurrent joins: a trip that just filled may still appear, and the join
// call re-validates seats.
func (s *MatchingService) FindMatches(ctx context.Context, req MatchRequest) ([]ScoredTrip, error) {
	if !req.Pickup.Valid() || !req.Dropoff.Valid() {
		return nil, domain.ErrInvalidCoordinate
	}

	radiusKm := req.MaxDistanceKm
	if radiusKm <= 0 {
		radiusKm = defaultSearchRadiusKm
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultMatchLimit
	}

	// The geo index answers the radius query; everything past this point is
	// pure filtering and scoring.
	nearby, err := s.geoStore.FindNearbyTrips(ctx, req.Pickup.Lng, req.Pickup.Lat, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return []ScoredTrip{}, nil
	}

	tripIDs := make([]string, len(nearby))
	for i, loc := range nearby {
		tripIDs[i] = loc.TripID
	}

	// Fetched in creation order, which is the final tie-break.
	candidates, err := s.tripRepo.GetByIDs(ctx, tripIDs)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredTrip, 0, len(candidates))
	for _, trip := range candidates {
		if trip.Status != domain.TripStatusActive {
			continue
		}
		if trip.OccupiedSeats >= trip.AvailableSeats {
			continue
		}
		if trip.DriverID == req.RiderID {
			continue
		}

		pickupDist := geo.Distance(req.Pickup, trip.PickupLocation.Coordinates)
		dropoffDist := geo.Distance(req.Dropoff, trip.DropoffLocation.Coordinates)

		score := geo.ScoreDistances(pickupDist, dropoffDist)
		if score < minMatchScore {
			continue
		}

		scored = append(scored, ScoredTrip{
			Trip:            trip,
			MatchScore:      score,
			PickupDistance:  roundKm(pickupDist),
			DropoffDistance: roundKm(dropoffDist),
			Savings:         int(math.Round(trip.BaseFare * savingsRate)),
		})
	}

	// Stable keeps creation order for full ties.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].MatchScore != scored[j].MatchScore {
			return scored[i].MatchScore > scored[j].MatchScore
		}
		return scored[i].PickupDistance < scored[j].PickupDistance
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
