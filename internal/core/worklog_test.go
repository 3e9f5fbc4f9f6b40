package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, s string) *ClockTime {
	t.Helper()
	c, err := ParseClockTime(s)
	require.NoError(t, err)
	return &c
}

func TestWorkLogValidate(t *testing.T) {
	day := NewDate(2025, 10, 1)
	cases := []struct {
		name string
		log  WorkLog
		ok   bool
	}{
		{"office with times", WorkLog{Date: day, Type: DayOffice, Start: clock(t, "09:00"), End: clock(t, "18:00")}, true},
		{"home without times", WorkLog{Date: day, Type: DayHome}, true},
		{"off day", WorkLog{Date: day, Type: DayOff, Note: "sick"}, true},
		{"off day with times", WorkLog{Date: day, Type: DayOff, Start: clock(t, "09:00"), End: clock(t, "10:00")}, false},
		{"start only", WorkLog{Date: day, Type: DayOffice, Start: clock(t, "09:00")}, false},
		{"unknown type", WorkLog{Date: day, Type: "remote"}, false},
		{"zero date", WorkLog{Type: DayOffice}, false},
		{"long note", WorkLog{Date: day, Type: DayHome, Note: string(make([]byte, 201))}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.log.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestParseClockTime(t *testing.T) {
	c, err := ParseClockTime("07:45")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(7*60+45), c)
	assert.Equal(t, "07:45", c.String())

	for _, bad := range []string{"24:00", "7", "aa:bb", ""} {
		_, err := ParseClockTime(bad)
		assert.ErrorIs(t, err, ErrInvalidTime, bad)
	}
}

func TestClockTimeJSON(t *testing.T) {
	var l WorkLog
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-10-01","type":"office","start":"08:30","end":"17:00"}`), &l))
	assert.Equal(t, "08:30", l.Start.String())

	out, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-10-01","type":"office","start":"08:30","end":"17:00"}`, string(out))

	err = json.Unmarshal([]byte(`{"start":"25:00"}`), &l)
	assert.True(t, errors.Is(err, ErrInvalidTime))
}

func TestParseDayType(t *testing.T) {
	dt, err := ParseDayType(" Office ")
	require.NoError(t, err)
	assert.Equal(t, DayOffice, dt)

	_, err = ParseDayType("holiday")
	assert.ErrorIs(t, err, ErrInvalidDayType)
}

func TestWorkedDurationAndOvertime(t *testing.T) {
	p := DefaultWorkPolicy()
	day := NewDate(2025, 10, 1)
	cases := []struct {
		name     string
		log      WorkLog
		worked   time.Duration
		overtime string
	}{
		{"standard office day", WorkLog{Date: day, Type: DayOffice, Start: clock(t, "09:00"), End: clock(t, "18:00")}, 8 * time.Hour, "0"},
		{"long office day", WorkLog{Date: day, Type: DayOffice, Start: clock(t, "09:00"), End: clock(t, "19:30")}, 9*time.Hour + 30*time.Minute, "1.5"},
		{"home overtime", WorkLog{Date: day, Type: DayHome, Start: clock(t, "08:00"), End: clock(t, "17:20")}, 8*time.Hour + 20*time.Minute, "0.33"},
		{"short shift keeps break", WorkLog{Date: day, Type: DayHome, Start: clock(t, "09:00"), End: clock(t, "09:45")}, 45 * time.Minute, "0"},
		{"night shift", WorkLog{Date: day, Type: DayOffice, Start: clock(t, "22:00"), End: clock(t, "06:00")}, 7 * time.Hour, "0"},
		{"extra day is all overtime", WorkLog{Date: day, Type: DayExtra, Start: clock(t, "10:00"), End: clock(t, "14:00")}, 3 * time.Hour, "3"},
		{"no times", WorkLog{Date: day, Type: DayOffice}, 0, "0"},
		{"off", WorkLog{Date: day, Type: DayOff}, 0, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.worked, tc.log.WorkedDuration(p))
			got := tc.log.OvertimeHours(p)
			assert.Equal(t, tc.overtime, got.String())
		})
	}
}

func TestEarnsMeal(t *testing.T) {
	assert.True(t, WorkLog{Type: DayOffice}.EarnsMeal())
	assert.True(t, WorkLog{Type: DayExtra}.EarnsMeal())
	assert.False(t, WorkLog{Type: DayHome}.EarnsMeal())
	assert.False(t, WorkLog{Type: DayOff}.EarnsMeal())
}

func TestWorkPolicyHolidays(t *testing.T) {
	p := DefaultWorkPolicy()
	p.Holidays = []Date{NewDate(2025, 12, 25)}
	assert.False(t, p.IsWorkday(NewDate(2025, 12, 25)))
	assert.True(t, p.IsWorkday(NewDate(2025, 12, 24)))
	assert.False(t, p.IsWorkday(NewDate(2025, 12, 27))) // Saturday
}
