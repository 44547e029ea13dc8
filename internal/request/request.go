// Package request turns a committed slot selection into a booking request,
// re-checking it against a fresh bookings snapshot.
package request

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/dateutil"
	"github.com/javiermolinar/meetin/internal/selection"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

// Build errors.
var (
	ErrEmptyTitle            = booking.ErrEmptyTitle
	ErrEmptySelection        = errors.New("no slots selected")
	ErrNotContiguous         = errors.New("selected slots are not a contiguous run of the grid")
	ErrNoRoom                = errors.New("no room given")
	ErrSlotNoLongerAvailable = errors.New("slot is no longer available")
)

// ConflictError reports the booking that took a selected slot since the
// grid was drawn. It matches ErrSlotNoLongerAvailable with errors.Is.
type ConflictError struct {
	BookingID    string
	StartMinutes int
	EndMinutes   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: taken by booking %s (%s)",
		ErrSlotNoLongerAvailable, e.BookingID, timeofday.Label(e.StartMinutes, e.EndMinutes))
}

func (e *ConflictError) Unwrap() error {
	return ErrSlotNoLongerAvailable
}

// Input is everything Build needs. Fresh must be fetched after the
// selection was released, not reused from when the grid was drawn.
type Input struct {
	Selected    []slotgrid.Slot
	Grid        []slotgrid.Slot // optional, checks Selected belongs to it
	Fresh       []*booking.Booking
	Room        *booking.Room
	Day         time.Time
	Title       string
	Description string
	UserID      string
}

// Build validates in and returns the booking request for the selected range.
func Build(in Input) (booking.Request, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return booking.Request{}, ErrEmptyTitle
	}
	if len(in.Selected) == 0 {
		return booking.Request{}, ErrEmptySelection
	}
	if in.Room == nil {
		return booking.Request{}, ErrNoRoom
	}
	if !in.Room.Active {
		return booking.Request{}, fmt.Errorf("%w: %s", booking.ErrRoomInactive, in.Room.Name)
	}
	if err := checkContiguous(in.Selected, in.Grid); err != nil {
		return booking.Request{}, err
	}
	if err := checkFresh(in.Selected, in.Fresh, in.Room.ID, in.Day); err != nil {
		return booking.Request{}, err
	}

	req := booking.Request{
		RoomID:       in.Room.ID,
		Date:         dateutil.TruncateToDay(in.Day),
		StartMinutes: in.Selected[0].StartMinutes,
		EndMinutes:   in.Selected[len(in.Selected)-1].EndMinutes,
		Title:        title,
		Description:  in.Description,
		UserID:       in.UserID,
	}
	if err := req.Validate(); err != nil {
		return booking.Request{}, err
	}
	return req, nil
}

// BuildFromMachine consumes a committed selection and builds from it.
// The machine is back to Idle afterwards whether or not Build succeeds.
func BuildFromMachine(m *selection.Machine, in Input) (booking.Request, error) {
	grid := m.Grid()
	slots, err := m.Consume()
	if err != nil {
		return booking.Request{}, err
	}
	in.Selected = slots
	if in.Grid == nil {
		in.Grid = grid
	}
	return Build(in)
}

func checkContiguous(selected, grid []slotgrid.Slot) error {
	for k, s := range selected {
		if s.EndMinutes <= s.StartMinutes {
			return fmt.Errorf("%w: empty slot %d", ErrNotContiguous, s.Index)
		}
		if k > 0 {
			prev := selected[k-1]
			if s.Index != prev.Index+1 || s.StartMinutes != prev.EndMinutes {
				return fmt.Errorf("%w: slot %d does not follow slot %d", ErrNotContiguous, s.Index, prev.Index)
			}
		}
		if grid == nil {
			continue
		}
		if s.Index < 0 || s.Index >= len(grid) ||
			grid[s.Index].StartMinutes != s.StartMinutes || grid[s.Index].EndMinutes != s.EndMinutes {
			return fmt.Errorf("%w: slot %d (%s) is not part of the grid", ErrNotContiguous, s.Index, s.Label())
		}
	}
	return nil
}

// checkFresh re-runs occupancy for the selected slots against bookings of
// this room only.
func checkFresh(selected []slotgrid.Slot, fresh []*booking.Booking, roomID string, day time.Time) error {
	var mine []*booking.Booking
	byID := make(map[string]*booking.Booking)
	for _, b := range fresh {
		if b == nil || b.RoomID != roomID {
			continue
		}
		mine = append(mine, b)
		byID[b.ID] = b
	}

	for _, s := range slotgrid.Annotate(selected, mine, day, slotgrid.AnnotateOptions{}) {
		if !s.Busy {
			continue
		}
		conflict := &ConflictError{BookingID: s.OccupyingBookingID}
		if b := byID[s.OccupyingBookingID]; b != nil {
			conflict.StartMinutes, conflict.EndMinutes = b.StartMinutes, b.EndMinutes
		}
		return conflict
	}
	return nil
}
