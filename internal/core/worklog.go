package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DayOffice DayType = "office"
	DayHome   DayType = "home"
	DayOff    DayType = "off"
	DayExtra  DayType = "extra"
)

type (
	// DayType classifies a single day of work.
	DayType string

	// ClockTime is a time of day in minutes after midnight.
	ClockTime int

	// WorkLog is the record of one day's work.
	WorkLog struct {
		Date  Date       `json:"date"`
		Type  DayType    `json:"type"`
		Start *ClockTime `json:"start,omitempty"`
		End   *ClockTime `json:"end,omitempty"`
		Note  string     `json:"note,omitempty"`
	}

	// WorkPolicy carries the user's working-time preferences.
	WorkPolicy struct {
		StandardDay time.Duration
		Break       time.Duration
		Holidays    []Date
	}
)

// DefaultWorkPolicy is an eight hour day with a one hour break.
func DefaultWorkPolicy() WorkPolicy {
	return WorkPolicy{
		StandardDay: 8 * time.Hour,
		Break:       time.Hour,
	}
}

// IsHoliday reports whether d is one of the configured holidays.
func (p WorkPolicy) IsHoliday(d Date) bool {
	for _, h := range p.Holidays {
		if h.Equal(d.Time) {
			return true
		}
	}
	return false
}

// IsWorkday reports whether d is a Monday-Friday that is not a holiday.
func (p WorkPolicy) IsWorkday(d Date) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !p.IsHoliday(d)
}

// ParseDayType parses a day classification, case-insensitively.
func ParseDayType(s string) (DayType, error) {
	dt := DayType(strings.ToLower(strings.TrimSpace(s)))
	if !dt.Valid() {
		return "", ErrInvalidDayType
	}
	return dt, nil
}

func (t DayType) Valid() bool {
	switch t {
	case DayOffice, DayHome, DayOff, DayExtra:
		return true
	}
	return false
}

// ParseClockTime parses "HH:MM" (24h).
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidTime
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidTime
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (l WorkLog) Validate() error {
	if err := l.Date.Validate(); err != nil {
		return err
	}
	if !l.Type.Valid() {
		return ErrInvalidDayType
	}
	if (l.Start == nil) != (l.End == nil) {
		return invalid("start and end must be given together")
	}
	if l.Type == DayOff && l.HasTimes() {
		return invalid("an off day cannot carry working times")
	}
	if l.HasTimes() {
		for _, c := range []ClockTime{*l.Start, *l.End} {
			if c < 0 || c >= 24*60 {
				return ErrInvalidTime
			}
		}
	}
	return validateText("note", l.Note, 200, false)
}

// HasTimes reports whether both start and end are recorded.
func (l WorkLog) HasTimes() bool {
	return l.Start != nil && l.End != nil
}

// WorkedDuration is the span between start and end less the break. An end
// before the start means the shift ran past midnight.
func (l WorkLog) WorkedDuration(p WorkPolicy) time.Duration {
	if !l.HasTimes() {
		return 0
	}
	minutes := int(*l.End) - int(*l.Start)
	if minutes < 0 {
		minutes += 24 * 60
	}
	span := time.Duration(minutes) * time.Minute
	if span > p.Break {
		span -= p.Break
	}
	return span
}

// OvertimeHours returns the overtime earned on this day, in hours rounded to
// two decimals. Extra days count entirely as overtime.
func (l WorkLog) OvertimeHours(p WorkPolicy) decimal.Decimal {
	var over time.Duration
	switch l.Type {
	case DayOffice, DayHome:
		if worked := l.WorkedDuration(p); worked > p.StandardDay {
			over = worked - p.StandardDay
		}
	case DayExtra:
		over = l.WorkedDuration(p)
	}
	return decimal.NewFromInt(int64(over / time.Minute)).Div(decimal.NewFromInt(60)).Round(2)
}

// EarnsMeal reports whether the day qualifies for a meal allowance.
func (l WorkLog) EarnsMeal() bool {
	return l.Type == DayOffice || l.Type == DayExtra
}
