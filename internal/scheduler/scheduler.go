// Package scheduler finds the earliest free stretch of a room that fits a meeting.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/dateutil"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

// DefaultHorizon is how many days Next searches when none is given.
const DefaultHorizon = 14

// ErrNoFit is returned when no free run within the horizon is long enough.
var ErrNoFit = errors.New("no free time fits")

// Scheduler searches a room's slot grid day by day.
type Scheduler struct {
	repo     booking.Repository
	grid     slotgrid.Options
	workdays map[time.Weekday]bool
}

// New creates a Scheduler that only considers the given workdays
// ("monday", "Tuesday", ...). No workdays means every day.
func New(repo booking.Repository, grid slotgrid.Options, workdays []string) (*Scheduler, error) {
	wd := make(map[time.Weekday]bool)
	for _, d := range workdays {
		w, ok := parseWeekday(d)
		if !ok {
			return nil, fmt.Errorf("invalid workday: %s", d)
		}
		wd[w] = true
	}
	return &Scheduler{repo: repo, grid: grid, workdays: wd}, nil
}

// IsWorkday reports whether t falls on a configured workday.
func (s *Scheduler) IsWorkday(t time.Time) bool {
	return len(s.workdays) == 0 || s.workdays[t.Weekday()]
}

// Suggestion is a slot-aligned range that is free to book.
type Suggestion struct {
	Room         *booking.Room
	Day          time.Time
	StartMinutes int
	EndMinutes   int
	// Run is the whole free stretch the suggestion starts.
	Run slotgrid.Run
}

// Label returns the suggestion as "09:00-10:00".
func (s Suggestion) Label() string {
	return timeofday.Label(s.StartMinutes, s.EndMinutes)
}

// Next returns the earliest range of at least duration minutes that is free
// in room, starting from now and looking at most horizon days ahead. Slots
// that already started are skipped. The range is rounded up to whole slots.
func (s *Scheduler) Next(ctx context.Context, room *booking.Room, now time.Time, duration, horizon int) (Suggestion, error) {
	if duration <= 0 {
		return Suggestion{}, fmt.Errorf("duration must be positive, got %d", duration)
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if !room.Active {
		return Suggestion{}, booking.ErrRoomInactive
	}

	grid, err := slotgrid.ForRoom(room, s.grid)
	if err != nil {
		return Suggestion{}, err
	}

	first := dateutil.TruncateToDay(now)
	last := first.AddDate(0, 0, horizon-1)
	bookings, err := s.repo.ListBookings(ctx, room.ID, first, last)
	if err != nil {
		return Suggestion{}, fmt.Errorf("fetching bookings: %w", err)
	}

	cutoff := slotgrid.CutoffAt(now)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !s.IsWorkday(day) {
			continue
		}
		slots := slotgrid.Annotate(grid, bookings, day, slotgrid.AnnotateOptions{Now: cutoff})
		if sug, ok := fit(slots, duration); ok {
			sug.Room = room
			sug.Day = day
			return sug, nil
		}
	}
	return Suggestion{}, fmt.Errorf("%s in the next %d days: %w", timeofday.DurationLabel(duration), horizon, ErrNoFit)
}

// fit picks the first free run long enough for duration and trims it to the
// fewest slots that cover it.
func fit(slots []slotgrid.Slot, duration int) (Suggestion, bool) {
	for _, run := range slotgrid.NewIndex(slots).FreeRuns() {
		if run.Duration() < duration {
			continue
		}
		for i := run.First; i <= run.Last; i++ {
			if slots[i].EndMinutes-run.StartMinutes >= duration {
				return Suggestion{
					StartMinutes: run.StartMinutes,
					EndMinutes:   slots[i].EndMinutes,
					Run:          run,
				}, true
			}
		}
	}
	return Suggestion{}, false
}

func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == s {
			return d, true
		}
	}
	return 0, false
}
