package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		WorkDays:               []int{0, 1, 2, 3, 4},
		OpenTime:               mustTime(t, "08:00"),
		CloseTime:              mustTime(t, "18:00"),
		SlotMinutes:            30,
		MaxAppointmentsPerDay:  20,
		MaxAppointmentsPerSlot: 1,
		OverbookingFeeType:     FeeFixed,
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(t *testing.T, c *Config)
		field  string
	}{
		{"no work days", func(t *testing.T, c *Config) { c.WorkDays = nil }, "work_days"},
		{"day index out of range", func(t *testing.T, c *Config) { c.WorkDays = []int{0, 7} }, "work_days"},
		{"open after close", func(t *testing.T, c *Config) { c.OpenTime = mustTime(t, "19:00") }, "open_time"},
		{"open equals close", func(t *testing.T, c *Config) { c.OpenTime = c.CloseTime }, "open_time"},
		{"lunch start without end", func(t *testing.T, c *Config) {
			ls := mustTime(t, "12:00")
			c.LunchStart = &ls
		}, "lunch_start"},
		{"lunch inverted", func(t *testing.T, c *Config) {
			ls, le := mustTime(t, "13:00"), mustTime(t, "12:00")
			c.LunchStart, c.LunchEnd = &ls, &le
		}, "lunch_start"},
		{"lunch outside working hours", func(t *testing.T, c *Config) {
			ls, le := mustTime(t, "07:00"), mustTime(t, "08:30")
			c.LunchStart, c.LunchEnd = &ls, &le
		}, "lunch_start"},
		{"zero slot minutes", func(t *testing.T, c *Config) { c.SlotMinutes = 0 }, "slot_minutes"},
		{"negative buffer", func(t *testing.T, c *Config) { c.BufferMinutes = -5 }, "buffer_minutes"},
		{"zero per day", func(t *testing.T, c *Config) { c.MaxAppointmentsPerDay = 0 }, "max_appointments_per_day"},
		{"zero per slot", func(t *testing.T, c *Config) { c.MaxAppointmentsPerSlot = 0 }, "max_appointments_per_slot"},
		{"unknown fee type", func(t *testing.T, c *Config) { c.OverbookingFeeType = "flat" }, "overbooking_fee_type"},
		{"negative fee", func(t *testing.T, c *Config) { c.OverbookingExtraFee = -1 }, "overbooking_extra_fee"},
		{"inverted blocked period", func(t *testing.T, c *Config) {
			c.BlockedPeriods = []BlockedPeriod{{Start: mustDate(t, "2026-10-10"), End: mustDate(t, "2026-10-01")}}
		}, "blocked_periods"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(t, cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var invalid *InvalidConfigError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.field, invalid.Field)
		})
	}
}

func TestConfigValidateAccepts(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())

	ls, le := mustTime(t, "12:00"), mustTime(t, "13:00")
	cfg.LunchStart, cfg.LunchEnd = &ls, &le
	cfg.AllowDoubleBooking = true
	cfg.MaxAppointmentsPerSlot = 3
	cfg.OverbookingFeeType = FeePercent
	cfg.OverbookingExtraFee = 20
	cfg.BlockedPeriods = []BlockedPeriod{
		{Start: mustDate(t, "2026-10-01"), End: mustDate(t, "2026-10-10"), Reason: "Vacation"},
	}
	require.NoError(t, cfg.Validate())
}

func TestSlotCapacity(t *testing.T) {
	cfg := validConfig(t)
	cfg.MaxAppointmentsPerSlot = 3

	assert.Equal(t, 1, cfg.SlotCapacity(), "capacity caps at 1 without double booking")

	cfg.AllowDoubleBooking = true
	assert.Equal(t, 3, cfg.SlotCapacity())
}

func TestIsWorkDay(t *testing.T) {
	cfg := validConfig(t)
	cfg.WorkDays = []int{0, 4} // Monday and Friday

	assert.True(t, cfg.IsWorkDay(mustDate(t, "2026-09-07")))  // Monday
	assert.True(t, cfg.IsWorkDay(mustDate(t, "2026-09-11")))  // Friday
	assert.False(t, cfg.IsWorkDay(mustDate(t, "2026-09-09"))) // Wednesday
	assert.False(t, cfg.IsWorkDay(mustDate(t, "2026-09-13"))) // Sunday
}

func TestIsBlocked(t *testing.T) {
	cfg := validConfig(t)
	cfg.BlockedDates = []Date{mustDate(t, "2026-12-25")}
	cfg.BlockedPeriods = []BlockedPeriod{
		{Start: mustDate(t, "2026-10-05"), End: mustDate(t, "2026-10-09")},
	}

	assert.True(t, cfg.IsBlocked(mustDate(t, "2026-12-25")))
	assert.False(t, cfg.IsBlocked(mustDate(t, "2026-12-24")))

	// Period bounds are inclusive on both ends.
	assert.True(t, cfg.IsBlocked(mustDate(t, "2026-10-05")))
	assert.True(t, cfg.IsBlocked(mustDate(t, "2026-10-07")))
	assert.True(t, cfg.IsBlocked(mustDate(t, "2026-10-09")))
	assert.False(t, cfg.IsBlocked(mustDate(t, "2026-10-10")))
}

func TestSurcharge(t *testing.T) {
	cfg := validConfig(t)

	cfg.OverbookingFeeType = FeeFixed
	cfg.OverbookingExtraFee = 15
	assert.Equal(t, 15.0, cfg.Surcharge(200))

	cfg.OverbookingFeeType = FeePercent
	cfg.OverbookingExtraFee = 20
	assert.Equal(t, 40.0, cfg.Surcharge(200))

	// Rounded to cents.
	cfg.OverbookingExtraFee = 12.5
	assert.Equal(t, 12.43, cfg.Surcharge(99.4))
}
