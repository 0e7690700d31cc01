package booking

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commitsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scheduling_booking_commits_total",
		Help: "Booking commit attempts, by outcome.",
	},
	[]string{"outcome"},
)

func commitOutcome(err error) string {
	var (
		validation *ValidationError
		capacity   *CapacityExceededError
		transient  *TransientError
	)
	switch {
	case err == nil:
		return "committed"
	case errors.As(err, &validation):
		return "validation_error"
	case errors.As(err, &capacity):
		return "capacity_exceeded"
	case errors.Is(err, ErrDayFull):
		return "day_full"
	case errors.Is(err, ErrSlotBlocked):
		return "slot_blocked"
	case errors.As(err, &transient):
		return "transient_error"
	default:
		return "error"
	}
}
