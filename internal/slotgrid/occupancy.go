package slotgrid

import (
	"slices"
	"time"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/dateutil"
)

// Cutoff describes "now" for disabling slots that have already started.
type Cutoff struct {
	Today      time.Time
	NowMinutes int
	// SameDay decides whether the grid's day is Today. Nil means dateutil.SameDay.
	SameDay func(a, b time.Time) bool
}

// CutoffAt builds a Cutoff from a wall-clock instant.
func CutoffAt(now time.Time) *Cutoff {
	return &Cutoff{
		Today:      now,
		NowMinutes: now.Hour()*60 + now.Minute(),
		SameDay:    dateutil.SameDay,
	}
}

// AnnotateOptions controls Annotate.
type AnnotateOptions struct {
	// Now enables past-slot marking. Nil leaves PastCutoff unset.
	Now *Cutoff
}

// Annotate returns a copy of slots with Busy, OccupyingBookingID and
// PastCutoff recomputed against the live bookings on day. Flags already set
// on the input are discarded.
//
// A slot is busy iff slot.start < b.end && b.start < slot.end for some live
// booking b on day. When several bookings cover a slot, the one starting
// earliest is recorded.
func Annotate(slots []Slot, bookings []*booking.Booking, day time.Time, opts AnnotateOptions) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		out[i] = Slot{Index: i, StartMinutes: s.StartMinutes, EndMinutes: s.EndMinutes}
	}
	if len(out) == 0 {
		return out
	}

	for _, b := range liveOn(bookings, day) {
		lo, hi := affected(out, b.StartMinutes, b.EndMinutes)
		for i := lo; i < hi; i++ {
			s := &out[i]
			if s.Busy || !(s.StartMinutes < b.EndMinutes && b.StartMinutes < s.EndMinutes) {
				continue
			}
			s.Busy = true
			s.OccupyingBookingID = b.ID
		}
	}

	if c := opts.Now; c != nil {
		markPast(out, day, c)
	}
	return out
}

// liveOn returns the live bookings on day ordered by start.
func liveOn(bookings []*booking.Booking, day time.Time) []*booking.Booking {
	var live []*booking.Booking
	for _, b := range bookings {
		if b == nil || !b.IsLive() || !dateutil.SameDay(b.Date, day) {
			continue
		}
		live = append(live, b)
	}
	slices.SortStableFunc(live, func(a, b *booking.Booking) int {
		return a.StartMinutes - b.StartMinutes
	})
	return live
}

// affected returns the slot index range [lo, hi) that may intersect
// [start, end). Uniform grids resolve it arithmetically.
func affected(slots []Slot, start, end int) (int, int) {
	origin := slots[0].StartMinutes
	g := slots[0].EndMinutes - slots[0].StartMinutes
	if g <= 0 || !uniform(slots) {
		return 0, len(slots)
	}
	lo := floorDiv(start-origin, g)
	hi := ceilDiv(end-origin, g)
	return max(0, lo), min(len(slots), hi)
}

func uniform(slots []Slot) bool {
	origin := slots[0].StartMinutes
	g := slots[0].EndMinutes - slots[0].StartMinutes
	for i, s := range slots {
		if s.StartMinutes != origin+i*g || s.EndMinutes != s.StartMinutes+g {
			return false
		}
	}
	return true
}

func markPast(slots []Slot, day time.Time, c *Cutoff) {
	sameDay := c.SameDay
	if sameDay == nil {
		sameDay = dateutil.SameDay
	}
	switch {
	case sameDay(day, c.Today):
		for i := range slots {
			if slots[i].StartMinutes < c.NowMinutes {
				slots[i].PastCutoff = true
			}
		}
	case dateutil.CompareDays(day, c.Today) < 0:
		for i := range slots {
			slots[i].PastCutoff = true
		}
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}
