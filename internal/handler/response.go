package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/auth"
	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// respondError sends a `{"success":false,"message":...}` envelope with the
// status class the error maps to.
func respondError(c *gin.Context, err error) {
	c.JSON(mapErrorToHTTPStatus(err), gin.H{
		"success": false,
		"message": err.Error(),
	})
}

// respondOK sends the payload with "success": true merged in.
func respondOK(c *gin.Context, code int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(code, body)
}

// mapErrorToHTTPStatus maps domain/service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Validation errors - Bad Request
	case errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrInvalidSeats),
		errors.Is(err, domain.ErrInvalidAction),
		errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrMessageTooLong):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, domain.ErrNotTripDriver),
		errors.Is(err, domain.ErrCancelForbidden),
		errors.Is(err, service.ErrNotTripParticipant):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, domain.ErrRiderNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, domain.ErrSeatsFull),
		errors.Is(err, domain.ErrAlreadyJoined),
		errors.Is(err, domain.ErrTripNotActive),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrConcurrentUpdate):
		return http.StatusConflict

	// Seat invariant corruption is always a defect, never repaired silently.
	case errors.Is(err, domain.ErrSeatInvariant):
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
