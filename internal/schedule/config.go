package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type FeeType string

const (
	FeeFixed   FeeType = "fixed"
	FeePercent FeeType = "percent"
)

// BlockedPeriod excludes an inclusive date range from scheduling.
type BlockedPeriod struct {
	Start  Date   `json:"start"`
	End    Date   `json:"end"`
	Reason string `json:"reason,omitempty"`
}

func (p BlockedPeriod) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Config holds a clinic's scheduling rules. Work day indices follow
// 0=Monday .. 6=Sunday.
type Config struct {
	ClinicID               uuid.UUID       `json:"clinic_id"`
	WorkDays               []int           `json:"work_days"`
	OpenTime               TimeOfDay       `json:"open_time"`
	CloseTime              TimeOfDay       `json:"close_time"`
	LunchStart             *TimeOfDay      `json:"lunch_start,omitempty"`
	LunchEnd               *TimeOfDay      `json:"lunch_end,omitempty"`
	SlotMinutes            int             `json:"slot_minutes"`
	BufferMinutes          int             `json:"buffer_minutes"`
	BlockedDates           []Date          `json:"blocked_dates"`
	BlockedPeriods         []BlockedPeriod `json:"blocked_periods"`
	MaxAppointmentsPerDay  int             `json:"max_appointments_per_day"`
	MaxAppointmentsPerSlot int             `json:"max_appointments_per_slot"`
	AllowDoubleBooking     bool            `json:"allow_double_booking"`
	OverbookingExtraFee    float64         `json:"overbooking_extra_fee"`
	OverbookingFeeType     FeeType         `json:"overbooking_fee_type"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// InvalidConfigError reports a config that violates an invariant. Configs are
// rejected at write time, never silently defaulted.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid schedule config: %s: %s", e.Field, e.Reason)
}

func (c *Config) Validate() error {
	if len(c.WorkDays) == 0 {
		return &InvalidConfigError{Field: "work_days", Reason: "at least one work day is required"}
	}
	for _, d := range c.WorkDays {
		if d < 0 || d > 6 {
			return &InvalidConfigError{Field: "work_days", Reason: fmt.Sprintf("day index %d out of range 0-6", d)}
		}
	}
	if !c.OpenTime.Before(c.CloseTime) {
		return &InvalidConfigError{Field: "open_time", Reason: "open_time must be before close_time"}
	}
	if (c.LunchStart == nil) != (c.LunchEnd == nil) {
		return &InvalidConfigError{Field: "lunch_start", Reason: "lunch_start and lunch_end must be set together"}
	}
	if c.LunchStart != nil {
		if !c.LunchStart.Before(*c.LunchEnd) {
			return &InvalidConfigError{Field: "lunch_start", Reason: "lunch_start must be before lunch_end"}
		}
		if c.LunchStart.Before(c.OpenTime) || c.LunchEnd.After(c.CloseTime) {
			return &InvalidConfigError{Field: "lunch_start", Reason: "lunch interval must be within working hours"}
		}
	}
	if c.SlotMinutes <= 0 {
		return &InvalidConfigError{Field: "slot_minutes", Reason: "slot_minutes must be positive"}
	}
	if c.BufferMinutes < 0 {
		return &InvalidConfigError{Field: "buffer_minutes", Reason: "buffer_minutes must not be negative"}
	}
	if c.MaxAppointmentsPerDay < 1 {
		return &InvalidConfigError{Field: "max_appointments_per_day", Reason: "must be at least 1"}
	}
	if c.MaxAppointmentsPerSlot < 1 {
		return &InvalidConfigError{Field: "max_appointments_per_slot", Reason: "must be at least 1"}
	}
	if c.OverbookingFeeType != FeeFixed && c.OverbookingFeeType != FeePercent {
		return &InvalidConfigError{Field: "overbooking_fee_type", Reason: "must be fixed or percent"}
	}
	if c.OverbookingExtraFee < 0 {
		return &InvalidConfigError{Field: "overbooking_extra_fee", Reason: "must not be negative"}
	}
	for _, p := range c.BlockedPeriods {
		if p.End.Before(p.Start) {
			return &InvalidConfigError{Field: "blocked_periods", Reason: fmt.Sprintf("period %s..%s ends before it starts", p.Start, p.End)}
		}
	}
	return nil
}

// SlotCapacity is the effective per-slot capacity: double booking disabled
// caps it at 1 regardless of the stored value.
func (c *Config) SlotCapacity() int {
	if !c.AllowDoubleBooking {
		return 1
	}
	return c.MaxAppointmentsPerSlot
}

func (c *Config) IsWorkDay(d Date) bool {
	weekday := d.Weekday()
	for _, wd := range c.WorkDays {
		if wd == weekday {
			return true
		}
	}
	return false
}

func (c *Config) IsBlocked(d Date) bool {
	for _, bd := range c.BlockedDates {
		if bd == d {
			return true
		}
	}
	for _, p := range c.BlockedPeriods {
		if p.Contains(d) {
			return true
		}
	}
	return false
}

// Surcharge computes the overbooking fee for a booking priced at basePrice.
func (c *Config) Surcharge(basePrice float64) float64 {
	if c.OverbookingFeeType == FeePercent {
		return math.Round(basePrice*c.OverbookingExtraFee) / 100
	}
	return c.OverbookingExtraFee
}
