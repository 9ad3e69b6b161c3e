package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/service"
)

// UserHandler exposes other users' public profiles and ratings.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetPublicProfile handles GET /v1/users/:id
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"user": user.PublicProfile()})
}

// RateUser handles POST /v1/users/:id/rating
func (h *UserHandler) RateUser(c *gin.Context) {
	var req struct {
		Rating int `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidRating)
		return
	}

	user, err := h.userService.RateUser(c.Request.Context(), c.Param("id"), req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"message":       "Rating submitted",
		"rating":        user.Rating,
		"total_reviews": user.TotalReviews,
	})
}
