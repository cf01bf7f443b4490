package api

import (
	"errors"
	"net/http"

	"github.com/storelink-nz/device-service/internal/models"
)

// ErrorStatus maps a service error to its HTTP status. Every entry in
// the taxonomy stays distinguishable to clients.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrDeviceLocked),
		errors.Is(err, models.ErrDeviceInactive):
		return http.StatusForbidden
	case errors.Is(err, models.ErrCodeNotFound),
		errors.Is(err, models.ErrDeviceNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrCodeExpired),
		errors.Is(err, models.ErrCodeExhausted),
		errors.Is(err, models.ErrCodeInactive),
		errors.Is(err, models.ErrDeletionBlocked),
		errors.Is(err, models.ErrAssignmentConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrPinFormatInvalid),
		errors.Is(err, models.ErrPinRequiredForRole):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error writes a service error with its mapped status
func Error(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), ErrorStatus(err))
}

func BadRequest(w http.ResponseWriter, message string) {
	http.Error(w, message, http.StatusBadRequest)
}
