package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
// The rider membership list and route trajectory are stored as JSONB; they
// are owned by the trip and only ever read or written through it.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

const tripColumns = `
	id, trip_code, driver_id,
	pickup_address, pickup_lng, pickup_lat,
	dropoff_address, dropoff_lng, dropoff_lat,
	status, available_seats, occupied_seats,
	riders, vehicle, base_fare, route, start_time, end_time
`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	riders, route, err := marshalTripJSON(trip)
	if err != nil {
		return err
	}

	var endTime sql.NullTime
	if !trip.EndTime.IsZero() {
		endTime = sql.NullTime{Time: trip.EndTime, Valid: true}
	}

	_, err = r.q.ExecContext(ctx, query,
		trip.ID,
		trip.TripCode,
		trip.DriverID,
		trip.PickupLocation.Address,
		trip.PickupLocation.Coordinates.Lng,
		trip.PickupLocation.Coordinates.Lat,
		trip.DropoffLocation.Address,
		trip.DropoffLocation.Coordinates.Lng,
		trip.DropoffLocation.Coordinates.Lat,
		trip.Status,
		trip.AvailableSeats,
		trip.OccupiedSeats,
		riders,
		trip.Vehicle,
		trip.BaseFare,
		route,
		trip.StartTime,
		endTime,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// GetByIDs retrieves the trips for the given IDs, preserving creation order.
func (r *TripRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Trip, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = ANY($1) ORDER BY start_time ASC`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrips(rows)
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET status = $2, available_seats = $3, occupied_seats = $4,
		    riders = $5, route = $6, end_time = $7
		WHERE id = $1
	`

	riders, route, err := marshalTripJSON(trip)
	if err != nil {
		return err
	}

	var endTime sql.NullTime
	if !trip.EndTime.IsZero() {
		endTime = sql.NullTime{Time: trip.EndTime, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.Status,
		trip.AvailableSeats,
		trip.OccupiedSeats,
		riders,
		route,
		endTime,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByDriverID retrieves trips created by the driver, newest first.
func (r *TripRepository) GetByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1 ORDER BY start_time DESC LIMIT $2`

	rows, err := r.q.QueryContext(ctx, query, driverID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrips(rows)
}

// GetByRiderID retrieves trips the rider has joined, newest first.
func (r *TripRepository) GetByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE riders @> $1::jsonb
		ORDER BY start_time DESC LIMIT $2
	`

	filter, err := json.Marshal([]map[string]string{{"rider_id": riderID}})
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, query, string(filter), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrips(rows)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(s scanner) (*domain.Trip, error) {
	var trip domain.Trip
	var riders, route []byte
	var endTime sql.NullTime

	err := s.Scan(
		&trip.ID,
		&trip.TripCode,
		&trip.DriverID,
		&trip.PickupLocation.Address,
		&trip.PickupLocation.Coordinates.Lng,
		&trip.PickupLocation.Coordinates.Lat,
		&trip.DropoffLocation.Address,
		&trip.DropoffLocation.Coordinates.Lng,
		&trip.DropoffLocation.Coordinates.Lat,
		&trip.Status,
		&trip.AvailableSeats,
		&trip.OccupiedSeats,
		&riders,
		&trip.Vehicle,
		&trip.BaseFare,
		&route,
		&trip.StartTime,
		&endTime,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(riders, &trip.Riders); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(route, &trip.Route); err != nil {
		return nil, err
	}
	if endTime.Valid {
		trip.EndTime = endTime.Time
	}

	return &trip, nil
}

func scanTrips(rows *sql.Rows) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func marshalTripJSON(trip *domain.Trip) (riders, route []byte, err error) {
	if trip.Riders == nil {
		trip.Riders = []domain.RiderMembership{}
	}
	if trip.Route == nil {
		trip.Route = []domain.RoutePoint{}
	}

	riders, err = json.Marshal(trip.Riders)
	if err != nil {
		return nil, nil, err
	}
	route, err = json.Marshal(trip.Route)
	if err != nil {
		return nil, nil, err
	}
	return riders, route, nil
}
