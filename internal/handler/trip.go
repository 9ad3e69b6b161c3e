package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// TripHandler handles HTTP requests for trips and matching.
type TripHandler struct {
	tripService     *service.TripService
	matchingService *service.MatchingService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService, matchingService *service.MatchingService) *TripHandler {
	return &TripHandler{
		tripService:     tripService,
		matchingService: matchingService,
	}
}

// pointInput is the single boundary type for locations. Clients may send a
// bare [lng, lat] array or {"address": ..., "coordinates": [lng, lat]};
// both are parsed and validated here, before any domain logic runs.
type pointInput struct {
	point domain.Point
	set   bool
}

func (p *pointInput) UnmarshalJSON(b []byte) error {
	var coords domain.Coordinate
	if err := json.Unmarshal(b, &coords); err == nil {
		p.point = domain.Point{Coordinates: coords}
		p.set = true
		return nil
	}

	var obj struct {
		Address     string            `json:"address"`
		Coordinates domain.Coordinate `json:"coordinates"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return domain.ErrInvalidCoordinate
	}
	p.point = domain.Point{Address: obj.Address, Coordinates: obj.Coordinates}
	p.set = true
	return nil
}

// tripResponse is the HTTP projection of a trip.
type tripResponse struct {
	ID              string                   `json:"id"`
	TripCode        string                   `json:"trip_code"`
	DriverID        string                   `json:"driver_id"`
	PickupLocation  domain.Point             `json:"pickup_location"`
	DropoffLocation domain.Point             `json:"dropoff_location"`
	Status          string                   `json:"status"`
	AvailableSeats  int                      `json:"available_seats"`
	OccupiedSeats   int                      `json:"occupied_seats"`
	Riders          []domain.RiderMembership `json:"riders"`
	Vehicle         string                   `json:"vehicle"`
	BaseFare        float64                  `json:"base_fare"`
	Route           []domain.RoutePoint      `json:"route,omitempty"`
	StartTime       time.Time                `json:"start_time"`
	EndTime         *time.Time               `json:"end_time,omitempty"`
}

func newTripResponse(t *domain.Trip) tripResponse {
	resp := tripResponse{
		ID:              t.ID,
		TripCode:        t.TripCode,
		DriverID:        t.DriverID,
		PickupLocation:  t.PickupLocation,
		DropoffLocation: t.DropoffLocation,
		Status:          string(t.Status),
		AvailableSeats:  t.AvailableSeats,
		OccupiedSeats:   t.OccupiedSeats,
		Riders:          t.Riders,
		Vehicle:         t.Vehicle,
		BaseFare:        t.BaseFare,
		Route:           t.Route,
		StartTime:       t.StartTime,
	}
	if !t.EndTime.IsZero() {
		end := t.EndTime
		resp.EndTime = &end
	}
	return resp
}

func newTripResponses(trips []*domain.Trip) []tripResponse {
	out := make([]tripResponse, len(trips))
	for i, t := range trips {
		out[i] = newTripResponse(t)
	}
	return out
}

// StartTrip handles POST /v1/trips/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	var req struct {
		PickupLocation  pointInput `json:"pickup_location"`
		DropoffLocation pointInput `json:"dropoff_location"`
		AvailableSeats  int        `json:"available_seats"`
		VehicleInfo     string     `json:"vehicle_info"`
		EstimatedFare   float64    `json:"estimated_fare"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidCoordinate)
		return
	}
	if !req.PickupLocation.set || !req.DropoffLocation.set {
		respondError(c, service.ErrMissingFields)
		return
	}

	trip, err := h.tripService.StartTrip(c.Request.Context(), service.StartTripRequest{
		DriverID:       middleware.UserID(c),
		Pickup:         req.PickupLocation.point,
		Dropoff:        req.DropoffLocation.point,
		AvailableSeats: req.AvailableSeats,
		Vehicle:        req.VehicleInfo,
		BaseFare:       req.EstimatedFare,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"message": "Trip created successfully",
		"trip":    newTripResponse(trip),
	})
}

// matchResponse is one ranked search result.
type matchResponse struct {
	Trip            tripResponse `json:"trip"`
	MatchScore      int          `json:"match_score"`
	PickupDistance  float64      `json:"pickup_distance"`
	DropoffDistance float64      `json:"dropoff_distance"`
	Savings         int          `json:"savings"`
}

// FindMatches handles POST /v1/trips/find-matches
func (h *TripHandler) FindMatches(c *gin.Context) {
	var req struct {
		PickupLocation  pointInput `json:"pickup_location"`
		DropoffLocation pointInput `json:"dropoff_location"`
		MaxDistance     float64    `json:"max_distance"`
		Limit           int        `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidCoordinate)
		return
	}
	if !req.PickupLocation.set || !req.DropoffLocation.set {
		respondError(c, service.ErrMissingFields)
		return
	}

	matches, err := h.matchingService.FindMatches(c.Request.Context(), service.MatchRequest{
		RiderID:       middleware.UserID(c),
		Pickup:        req.PickupLocation.point.Coordinates,
		Dropoff:       req.DropoffLocation.point.Coordinates,
		MaxDistanceKm: req.MaxDistance,
		Limit:         req.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]matchResponse, len(matches))
	for i, m := range matches {
		out[i] = matchResponse{
			Trip:            newTripResponse(m.Trip),
			MatchScore:      m.MatchScore,
			PickupDistance:  m.PickupDistance,
			DropoffDistance: m.DropoffDistance,
			Savings:         m.Savings,
		}
	}

	respondOK(c, http.StatusOK, gin.H{"matches": out})
}

// JoinTrip handles POST /v1/trips/join
func (h *TripHandler) JoinTrip(c *gin.Context) {
	var req struct {
		TripID       string      `json:"trip_id"`
		PickupPoint  *pointInput `json:"pickup_point"`
		DropoffPoint *pointInput `json:"dropoff_point"`
		Fare         float64     `json:"fare"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidCoordinate)
		return
	}

	joinReq := service.JoinTripRequest{
		TripID:  req.TripID,
		RiderID: middleware.UserID(c),
		Fare:    req.Fare,
	}
	if req.PickupPoint != nil && req.PickupPoint.set {
		joinReq.Pickup = &req.PickupPoint.point
	}
	if req.DropoffPoint != nil && req.DropoffPoint.set {
		joinReq.Dropoff = &req.DropoffPoint.point
	}

	trip, err := h.tripService.JoinTrip(c.Request.Context(), joinReq)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"message": "Successfully joined trip, waiting for driver's acceptance",
		"trip":    newTripResponse(trip),
	})
}

// RespondToRider handles POST /v1/trips/respond
func (h *TripHandler) RespondToRider(c *gin.Context) {
	var req struct {
		TripID  string `json:"trip_id"`
		RiderID string `json:"rider_id"`
		Action  string `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrMissingFields)
		return
	}

	trip, err := h.tripService.RespondToRider(
		c.Request.Context(),
		req.TripID,
		middleware.UserID(c),
		req.RiderID,
		domain.RiderAction(req.Action),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Rider accepted"
	if domain.RiderAction(req.Action) == domain.ActionReject {
		message = "Rider rejected"
	}

	respondOK(c, http.StatusOK, gin.H{
		"message": message,
		"trip":    newTripResponse(trip),
	})
}

// CancelRiderRequest handles DELETE /v1/trips/:id/cancel-rider
func (h *TripHandler) CancelRiderRequest(c *gin.Context) {
	var req struct {
		RiderID string `json:"rider_id"`
	}
	// Body is optional: without a rider_id the caller cancels their own request.
	_ = c.ShouldBindJSON(&req)

	trip, err := h.tripService.CancelRiderRequest(
		c.Request.Context(),
		c.Param("id"),
		middleware.UserID(c),
		req.RiderID,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"message": "Request cancelled successfully",
		"trip":    newTripResponse(trip),
	})
}

// CompleteTrip handles POST /v1/trips/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	var req struct {
		TripID     string              `json:"trip_id"`
		FinalRoute []domain.RoutePoint `json:"final_route"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrMissingFields)
		return
	}

	trip, err := h.tripService.CompleteTrip(c.Request.Context(), req.TripID, middleware.UserID(c), req.FinalRoute)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"message": "Trip completed successfully",
		"trip":    newTripResponse(trip),
	})
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"trip": newTripResponse(trip)})
}

// GetDriverTrips handles GET /v1/trips/driver/my-trips
func (h *TripHandler) GetDriverTrips(c *gin.Context) {
	trips, err := h.tripService.GetDriverTrips(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"trips": newTripResponses(trips)})
}

// GetRiderTrips handles GET /v1/trips/rider/my-trips
func (h *TripHandler) GetRiderTrips(c *gin.Context) {
	trips, err := h.tripService.GetRiderTrips(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"trips": newTripResponses(trips)})
}
