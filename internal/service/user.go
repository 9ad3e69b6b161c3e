package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"carpool/internal/auth"
	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/repository/postgres"
)

// UserService handles registration, login, profiles, and ratings.
type UserService struct {
	db       *sql.DB // nil in tests; rating updates then skip the tx path
	userRepo repository.UserRepository
	tokens   auth.Provider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, userRepo repository.UserRepository, tokens auth.Provider) *UserService {
	return &UserService{
		db:       db,
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// RegisterRequest contains the parameters for creating an account.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	UserType  string
	Vehicle   string
}

// AuthResult is a user plus a freshly issued credential.
type AuthResult struct {
	User  *domain.User
	Token string
}

// Register creates a user with a bcrypt-hashed password and issues a token.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" || req.Phone == "" {
		return nil, ErrMissingFields
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userType := domain.UserType(req.UserType)
	switch userType {
	case domain.UserTypeDriver, domain.UserTypeRider, domain.UserTypeBoth:
	default:
		userType = domain.UserTypeBoth
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		UserType:     userType,
		Vehicle:      req.Vehicle,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfileRequest contains the mutable profile fields. Nil fields are
// left unchanged.
type UpdateProfileRequest struct {
	FirstName     *string
	LastName      *string
	Phone         *string
	UserType      *string
	Vehicle       *string
	VehicleNumber *string
	VehicleColor  *string
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.UserType != nil {
		switch domain.UserType(*req.UserType) {
		case domain.UserTypeDriver, domain.UserTypeRider, domain.UserTypeBoth:
			user.UserType = domain.UserType(*req.UserType)
		default:
			return nil, ErrMissingFields
		}
	}
	if req.Vehicle != nil {
		user.Vehicle = *req.Vehicle
	}
	if req.VehicleNumber != nil {
		user.VehicleNumber = *req.VehicleNumber
	}
	if req.VehicleColor != nil {
		user.VehicleColor = *req.VehicleColor
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateLocation stores the user's current position.
func (s *UserService) UpdateLocation(ctx context.Context, userID string, location domain.Coordinate) (*domain.User, error) {
	if !location.Valid() {
		return nil, domain.ErrInvalidCoordinate
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.CurrentLocation = location
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RateUser folds a 1-5 review into the target user's running average.
// The read-modify-write runs in a transaction so concurrent ratings both count.
func (s *UserService) RateUser(ctx context.Context, targetID string, rating int) (*domain.User, error) {
	if targetID == "" {
		return nil, ErrInvalidUserID
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	if s.db == nil {
		user, err := s.userRepo.GetByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		user.AddRating(rating)
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txUserRepo := postgres.NewUserRepositoryWithTx(tx)

	var user *domain.User
	user, err = txUserRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.AddRating(rating)

	if err = txUserRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return user, nil
}
