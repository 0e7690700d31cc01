package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/turnoflow/scheduling/internal/booking"
	redisclient "github.com/turnoflow/scheduling/internal/redis"
	"github.com/turnoflow/scheduling/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeDomainError maps the booking error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		invalidCfg *schedule.InvalidConfigError
		validation *booking.ValidationError
		capacity   *booking.CapacityExceededError
		transient  *booking.TransientError
	)

	switch {
	case errors.As(err, &invalidCfg):
		writeError(w, http.StatusUnprocessableEntity, "invalid_config", err.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.As(err, &capacity):
		writeError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, booking.ErrSlotBlocked):
		writeError(w, http.StatusConflict, "slot_blocked", err.Error())
	case errors.Is(err, booking.ErrDayFull):
		writeError(w, http.StatusConflict, "day_full", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "conflict", "another booking for this day is in flight, please retry")
	case errors.Is(err, booking.ErrConfigNotFound),
		errors.Is(err, booking.ErrTreatmentNotFound),
		errors.Is(err, booking.ErrPatientNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &transient):
		writeError(w, http.StatusServiceUnavailable, "transient_error", "temporary failure, safe to retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
