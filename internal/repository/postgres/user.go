package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `
	id, first_name, last_name, email, password_hash, phone, user_type,
	location_lng, location_lat, rating, total_reviews,
	phone_verified, id_verified, vehicle, vehicle_number, vehicle_color, created_at
`

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.UserType,
		user.CurrentLocation.Lng,
		user.CurrentLocation.Lat,
		user.Rating,
		user.TotalReviews,
		user.PhoneVerified,
		user.IDVerified,
		user.Vehicle,
		user.VehicleNumber,
		user.VehicleColor,
		user.CreatedAt,
	)

	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.q.QueryRowContext(ctx, query, email))
}

// Update updates an existing user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, user_type = $5,
		    location_lng = $6, location_lat = $7, rating = $8, total_reviews = $9,
		    phone_verified = $10, id_verified = $11,
		    vehicle = $12, vehicle_number = $13, vehicle_color = $14
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.UserType,
		user.CurrentLocation.Lng,
		user.CurrentLocation.Lat,
		user.Rating,
		user.TotalReviews,
		user.PhoneVerified,
		user.IDVerified,
		user.Vehicle,
		user.VehicleNumber,
		user.VehicleColor,
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

func (r *UserRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User

	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.UserType,
		&user.CurrentLocation.Lng,
		&user.CurrentLocation.Lat,
		&user.Rating,
		&user.TotalReviews,
		&user.PhoneVerified,
		&user.IDVerified,
		&user.Vehicle,
		&user.VehicleNumber,
		&user.VehicleColor,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}
