package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestTimeOfDayRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00", "08:05", "12:30", "23:59"} {
		tod, err := ParseTimeOfDay(s)
		require.NoError(t, err)
		assert.Equal(t, s, tod.String())
	}

	_, err := ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("9am")
	assert.Error(t, err)
}

func TestTimeOfDayJSON(t *testing.T) {
	tod := mustTime(t, "14:45")
	raw, err := json.Marshal(tod)
	require.NoError(t, err)
	assert.Equal(t, `"14:45"`, string(raw))

	var back TimeOfDay
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, tod, back)
}

func TestTimeOfDayArithmetic(t *testing.T) {
	tod := mustTime(t, "11:30")
	assert.Equal(t, "12:00", tod.Add(30).String())
	assert.Equal(t, "11:00", tod.Add(-30).String())
	assert.True(t, tod.Before(tod.Add(1)))
	assert.True(t, tod.After(tod.Add(-1)))
}

func TestDateWeekdayMondayZero(t *testing.T) {
	assert.Equal(t, 0, mustDate(t, "2026-09-07").Weekday()) // Monday
	assert.Equal(t, 5, mustDate(t, "2026-09-12").Weekday()) // Saturday
	assert.Equal(t, 6, mustDate(t, "2026-09-13").Weekday()) // Sunday
}

func TestDateComparisonsAndAddDays(t *testing.T) {
	d := mustDate(t, "2026-02-28")
	assert.Equal(t, "2026-03-01", d.AddDays(1).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.False(t, d.IsZero())
	assert.True(t, Date{}.IsZero())
}

func TestDateJSON(t *testing.T) {
	d := mustDate(t, "2026-09-07")
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-09-07"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d, back)
}
