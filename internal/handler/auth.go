package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// AuthHandler handles registration, login, and the caller's own profile.
type AuthHandler struct {
	userService *service.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// userResponse is the full self view of an account. Other users only ever see
// domain.Profile.
type userResponse struct {
	ID              string            `json:"id"`
	FirstName       string            `json:"first_name"`
	LastName        string            `json:"last_name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	UserType        string            `json:"user_type"`
	CurrentLocation domain.Coordinate `json:"current_location"`
	Rating          float64           `json:"rating"`
	TotalReviews    int               `json:"total_reviews"`
	PhoneVerified   bool              `json:"phone_verified"`
	IDVerified      bool              `json:"id_verified"`
	Vehicle         string            `json:"vehicle,omitempty"`
	VehicleNumber   string            `json:"vehicle_number,omitempty"`
	VehicleColor    string            `json:"vehicle_color,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Phone:           u.Phone,
		UserType:        string(u.UserType),
		CurrentLocation: u.CurrentLocation,
		Rating:          u.Rating,
		TotalReviews:    u.TotalReviews,
		PhoneVerified:   u.PhoneVerified,
		IDVerified:      u.IDVerified,
		Vehicle:         u.Vehicle,
		VehicleNumber:   u.VehicleNumber,
		VehicleColor:    u.VehicleColor,
		CreatedAt:       u.CreatedAt,
	}
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Phone     string `json:"phone"`
		UserType  string `json:"user_type"`
		Vehicle   string `json:"vehicle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrMissingFields)
		return
	}

	result, err := h.userService.Register(c.Request.Context(), service.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		UserType:  req.UserType,
		Vehicle:   req.Vehicle,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"token":   result.Token,
		"user":    newUserResponse(result.User),
	})
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrMissingFields)
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"token": result.Token,
		"user":  newUserResponse(result.User),
	})
}

// GetProfile handles GET /v1/auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// UpdateProfile handles PUT /v1/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		FirstName     *string `json:"first_name"`
		LastName      *string `json:"last_name"`
		Phone         *string `json:"phone"`
		UserType      *string `json:"user_type"`
		Vehicle       *string `json:"vehicle"`
		VehicleNumber *string `json:"vehicle_number"`
		VehicleColor  *string `json:"vehicle_color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrMissingFields)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.UserID(c), service.UpdateProfileRequest{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		UserType:      req.UserType,
		Vehicle:       req.Vehicle,
		VehicleNumber: req.VehicleNumber,
		VehicleColor:  req.VehicleColor,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    newUserResponse(user),
	})
}

// UpdateLocation handles PUT /v1/auth/location
func (h *AuthHandler) UpdateLocation(c *gin.Context) {
	var req struct {
		Location domain.Coordinate `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidCoordinate)
		return
	}

	user, err := h.userService.UpdateLocation(c.Request.Context(), middleware.UserID(c), req.Location)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"message":  "Location updated",
		"location": user.CurrentLocation,
	})
}
