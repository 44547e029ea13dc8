// Package slotgrid builds the bookable slot sequence for a room's day and
// marks each slot against existing bookings.
package slotgrid

import (
	"fmt"
	"strings"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

const (
	// DefaultGranularity is the slot width in minutes.
	DefaultGranularity = 30
	// LegacyMaxGridEnd is the 20:00 cap older booking screens applied to every room.
	LegacyMaxGridEnd = 1200
)

// ErrInvalidWindow is returned when a grid cannot be generated for a window.
var ErrInvalidWindow = booking.ErrInvalidWindow

// Slot is one half-open interval [StartMinutes, EndMinutes) of a room's day.
type Slot struct {
	Index              int
	StartMinutes       int
	EndMinutes         int
	Busy               bool   // occupied by a live booking
	OccupyingBookingID string // set when Busy
	PastCutoff         bool   // already started relative to now
}

// Selectable returns true if the slot can be part of a selection.
func (s Slot) Selectable() bool {
	return !s.Busy && !s.PastCutoff
}

// Label renders the slot as "HH:MM-HH:MM".
func (s Slot) Label() string {
	return timeofday.Label(s.StartMinutes, s.EndMinutes)
}

// Options controls grid generation.
type Options struct {
	// Granularity is the slot width in minutes. Zero means DefaultGranularity.
	Granularity int
	// MaxGridEnd suppresses slots ending after it. Nil means no cap.
	MaxGridEnd *int
}

// WithMaxGridEnd returns a copy of o capped at m minutes.
func (o Options) WithMaxGridEnd(m int) Options {
	o.MaxGridEnd = &m
	return o
}

// Legacy returns options reproducing the old 30-minute grid capped at 20:00.
func Legacy() Options {
	return Options{Granularity: DefaultGranularity}.WithMaxGridEnd(LegacyMaxGridEnd)
}

func (o Options) granularity() int {
	if o.Granularity == 0 {
		return DefaultGranularity
	}
	return o.Granularity
}

// Generate produces the ordered, gapless slots for [open, close).
// A trailing partial slot is dropped, so the last slot never ends after close.
func Generate(open, close int, opts Options) ([]Slot, error) {
	g := opts.granularity()
	if g <= 0 {
		return nil, fmt.Errorf("%w: granularity %d", ErrInvalidWindow, g)
	}
	if open < 0 || close > timeofday.MinutesPerDay || open >= close {
		return nil, fmt.Errorf("%w: %d-%d", ErrInvalidWindow, open, close)
	}

	slots := make([]Slot, 0, (close-open)/g)
	for start := open; start+g <= close; start += g {
		end := start + g
		if opts.MaxGridEnd != nil && end > *opts.MaxGridEnd {
			break
		}
		slots = append(slots, Slot{
			Index:        len(slots),
			StartMinutes: start,
			EndMinutes:   end,
		})
	}
	return slots, nil
}

// ForRoom generates the grid for a room's open window.
func ForRoom(room *booking.Room, opts Options) ([]Slot, error) {
	return Generate(room.OpenMinutes, room.CloseMinutes, opts)
}

// Pattern renders slots as one character each: '-' free, '.' past,
// 'X' busy. Useful for logs and compact output.
func Pattern(slots []Slot) string {
	var b strings.Builder
	b.Grow(len(slots))
	for _, s := range slots {
		switch {
		case s.Busy:
			b.WriteByte('X')
		case s.PastCutoff:
			b.WriteByte('.')
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
