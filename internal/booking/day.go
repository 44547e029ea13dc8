package booking

import (
	"slices"
	"time"

	"github.com/javiermolinar/meetin/internal/dateutil"
)

// Day holds the bookings of one room for a single calendar day.
type Day struct {
	RoomID   string
	Date     time.Time
	bookings []*Booking // sorted by StartMinutes
}

// NewDay builds a Day from any booking list, keeping only those for roomID
// on date. Cancelled bookings are kept for display but never occupy time.
func NewDay(roomID string, date time.Time, all []*Booking) *Day {
	d := &Day{RoomID: roomID, Date: dateutil.TruncateToDay(date)}
	for _, b := range all {
		if b == nil || b.RoomID != roomID || !dateutil.SameDay(b.Date, date) {
			continue
		}
		d.bookings = append(d.bookings, b)
	}
	slices.SortFunc(d.bookings, func(a, b *Booking) int {
		return a.StartMinutes - b.StartMinutes
	})
	return d
}

// Bookings returns a copy of the day's bookings.
func (d *Day) Bookings() []*Booking {
	result := make([]*Booking, len(d.bookings))
	copy(result, d.bookings)
	return result
}

// LiveBookings returns only bookings that occupy time.
func (d *Day) LiveBookings() []*Booking {
	var result []*Booking
	for _, b := range d.bookings {
		if b.IsLive() {
			result = append(result, b)
		}
	}
	return result
}

// FindOverlapping returns the first live booking intersecting [start, end).
// Returns nil if no overlap is found.
func (d *Day) FindOverlapping(start, end int) *Booking {
	for _, b := range d.bookings {
		if b.IsLive() && b.Overlaps(start, end) {
			return b
		}
	}
	return nil
}

// HasOverlap returns true if any live booking intersects [start, end).
func (d *Day) HasOverlap(start, end int) bool {
	return d.FindOverlapping(start, end) != nil
}

// Len returns the number of bookings in the day.
func (d *Day) Len() int {
	return len(d.bookings)
}

// DayStats summarizes how much of a room's open window is booked.
type DayStats struct {
	OpenMinutes       int
	BookedMinutes     int
	LiveBookings      int
	CancelledBookings int
}

// FreeMinutes returns the unbooked part of the open window.
func (s DayStats) FreeMinutes() int {
	return max(0, s.OpenMinutes-s.BookedMinutes)
}

// BookedPercent returns the share of the open window that is booked.
func (s DayStats) BookedPercent() int {
	if s.OpenMinutes == 0 {
		return 0
	}
	return (s.BookedMinutes * 100) / s.OpenMinutes
}

// Stats calculates occupancy of the room's open window for the day.
// Only the part of each booking inside the window counts.
func (d *Day) Stats(room *Room) DayStats {
	stats := DayStats{OpenMinutes: room.CloseMinutes - room.OpenMinutes}
	for _, b := range d.bookings {
		if !b.IsLive() {
			if b.IsCancelled() {
				stats.CancelledBookings++
			}
			continue
		}
		stats.LiveBookings++
		start := max(b.StartMinutes, room.OpenMinutes)
		end := min(b.EndMinutes, room.CloseMinutes)
		if end > start {
			stats.BookedMinutes += end - start
		}
	}
	return stats
}
