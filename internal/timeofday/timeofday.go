// Package timeofday converts the time-of-day representations used by room and
// booking sources into canonical minutes since local midnight.
package timeofday

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeFormat is returned when a value matches none of the supported shapes.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// MinutesPerDay is the exclusive upper bound of a canonical time.
const MinutesPerDay = 24 * 60

// Kind tags which representation a Value carries.
type Kind int

const (
	KindHourFraction Kind = iota // 9.5 means 09:30
	KindHHMM                     // "09:30" or "09:30:00"
	KindDateTime                 // full datetime, local hour and minute are used
)

func (k Kind) String() string {
	switch k {
	case KindHourFraction:
		return "hourFraction"
	case KindHHMM:
		return "hhmm"
	case KindDateTime:
		return "datetime"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a time of day in one of the supported external representations.
// Only the field matching Kind is read.
type Value struct {
	Kind  Kind
	Hours float64   // KindHourFraction
	Text  string    // KindHHMM, or KindDateTime when set
	Time  time.Time // KindDateTime when Text is empty
}

// HourFraction wraps a fractional-hour number.
func HourFraction(h float64) Value { return Value{Kind: KindHourFraction, Hours: h} }

// HHMM wraps an "HH:MM" or "HH:MM:SS" string.
func HHMM(s string) Value { return Value{Kind: KindHHMM, Text: s} }

// DateTime wraps a time.Time. Its own location decides the hour and minute.
func DateTime(t time.Time) Value { return Value{Kind: KindDateTime, Time: t} }

// DateTimeText wraps an ISO-style datetime string.
func DateTimeText(s string) Value { return Value{Kind: KindDateTime, Text: s} }

// String renders the value in its own representation.
func (v Value) String() string {
	switch v.Kind {
	case KindHourFraction:
		return strconv.FormatFloat(v.Hours, 'f', -1, 64)
	case KindDateTime:
		if v.Text != "" {
			return v.Text
		}
		return v.Time.Format(time.RFC3339)
	default:
		return v.Text
	}
}

// ToCanonical converts v to minutes since midnight, reading datetimes in
// their own location (or time.Local for text without an offset).
//
// Fractional hours are rounded to the nearest minute, so inputs that are not
// multiples of 1/60 lose precision. Seconds in "HH:MM:SS" are dropped.
func ToCanonical(v Value) (int, error) {
	return ToCanonicalIn(v, time.Local)
}

// ToCanonicalIn is ToCanonical with an explicit location for datetime text.
// Text carrying a UTC offset is converted into loc before extracting the hour.
func ToCanonicalIn(v Value, loc *time.Location) (int, error) {
	if loc == nil {
		loc = time.Local
	}
	switch v.Kind {
	case KindHourFraction:
		return fromHours(v.Hours)
	case KindHHMM:
		return parseClock(v.Text)
	case KindDateTime:
		if v.Text == "" {
			return v.Time.Hour()*60 + v.Time.Minute(), nil
		}
		t, err := ParseDateTime(v.Text, loc)
		if err != nil {
			return 0, err
		}
		return t.Hour()*60 + t.Minute(), nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %d", ErrInvalidTimeFormat, int(v.Kind))
	}
}

// FromCanonical renders minutes in the requested representation. Datetimes
// are placed on day's calendar date in day's location.
func FromCanonical(minutes int, kind Kind, day time.Time) (Value, error) {
	if minutes < 0 || minutes >= MinutesPerDay {
		return Value{}, fmt.Errorf("%w: %d minutes out of range", ErrInvalidTimeFormat, minutes)
	}
	switch kind {
	case KindHourFraction:
		return HourFraction(float64(minutes) / 60), nil
	case KindHHMM:
		return HHMM(Format(minutes)), nil
	case KindDateTime:
		return DateTime(time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidTimeFormat, int(kind))
	}
}

// Parse sniffs an untyped string: a bare number is an hour fraction, a clock
// string is HH:MM, anything else is tried as a datetime.
func Parse(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}, fmt.Errorf("%w: empty value", ErrInvalidTimeFormat)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return HourFraction(f), nil
	}
	if looksLikeClock(s) {
		return HHMM(s), nil
	}
	return DateTimeText(s), nil
}

// ParseCanonical is Parse followed by ToCanonical.
func ParseCanonical(raw string) (int, error) {
	v, err := Parse(raw)
	if err != nil {
		return 0, err
	}
	return ToCanonical(v)
}

// ToCanonicalEnd is ToCanonical for the exclusive end of a range, where
// "24:00" and 24 hours mean end of day.
func ToCanonicalEnd(v Value) (int, error) {
	switch {
	case v.Kind == KindHourFraction && v.Hours == 24:
		return MinutesPerDay, nil
	case v.Kind == KindHHMM && strings.TrimSpace(v.Text) == "24:00":
		return MinutesPerDay, nil
	}
	return ToCanonical(v)
}

// ParseCanonicalEnd is Parse followed by ToCanonicalEnd.
func ParseCanonicalEnd(raw string) (int, error) {
	v, err := Parse(raw)
	if err != nil {
		return 0, err
	}
	return ToCanonicalEnd(v)
}

// Format renders minutes since midnight as "HH:MM".
func Format(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes >= MinutesPerDay {
		minutes = MinutesPerDay - 1
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Label renders a half-open range as "HH:MM-HH:MM". An end of 1440 renders as 24:00.
func Label(start, end int) string {
	return Format(start) + "-" + FormatEnd(end)
}

// FormatEnd is Format for the exclusive end of a range: 1440 renders as "24:00".
func FormatEnd(minutes int) string {
	if minutes == MinutesPerDay {
		return "24:00"
	}
	return Format(minutes)
}

// DurationLabel renders a duration in minutes for humans: "30 minutes",
// "1 hour", "1.5 hours", "2 hours 15 minutes".
func DurationLabel(minutes int) string {
	if minutes <= 0 {
		return "0 minutes"
	}
	hours, mins := minutes/60, minutes%60
	switch {
	case hours == 0:
		return plural(mins, "minute")
	case mins == 0:
		return plural(hours, "hour")
	case mins == 30:
		return fmt.Sprintf("%d.5 hours", hours)
	default:
		return plural(hours, "hour") + " " + plural(mins, "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func fromHours(h float64) (int, error) {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, fmt.Errorf("%w: %v is not a number of hours", ErrInvalidTimeFormat, h)
	}
	m := int(math.Round(h * 60))
	if m < 0 || m >= MinutesPerDay {
		return 0, fmt.Errorf("%w: %v hours out of range", ErrInvalidTimeFormat, h)
	}
	return m, nil
}

// parseClock accepts H:MM, HH:MM and HH:MM:SS.
func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if !looksLikeClock(s) {
		return 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTimeFormat, s)
	}
	parts := strings.Split(s, ":")
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTimeFormat, s)
	}
	if len(parts) == 3 {
		if sec, _ := strconv.Atoi(parts[2]); sec > 59 {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTimeFormat, s)
		}
	}
	return hour*60 + minute, nil
}

func looksLikeClock(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return false
	}
	if len(parts[0]) < 1 || len(parts[0]) > 2 || !isDigits(parts[0]) {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 2 || !isDigits(p) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseDateTime parses s in one of the accepted datetime layouts. Values
// carrying an offset are converted to loc; the others are read in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a datetime", ErrInvalidTimeFormat, s)
}
