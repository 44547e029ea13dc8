package booking

import (
	"time"

	"github.com/javiermolinar/meetin/internal/dateutil"
)

// Week holds one room's bookings for 7 days starting from Monday.
type Week struct {
	RoomID    string
	StartDate time.Time // Monday of the week
	Days      [7]*Day   // Monday (0) through Sunday (6)
}

// NewWeek creates a Week for the room containing date and distributes
// bookings to their days. Bookings outside the week are ignored.
func NewWeek(roomID string, date time.Time, bookings []*Booking) *Week {
	days := dateutil.WeekDays(date)
	w := &Week{RoomID: roomID, StartDate: days[0]}
	for i, d := range days {
		w.Days[i] = NewDay(roomID, d, bookings)
	}
	return w
}

// Day returns the Day for the given weekday (0=Monday, 6=Sunday).
// Returns nil if weekday is out of range.
func (w *Week) Day(weekday int) *Day {
	if weekday < 0 || weekday > 6 {
		return nil
	}
	return w.Days[weekday]
}

// DayByDate returns the Day for the given date, nil if not in this week.
func (w *Week) DayByDate(date time.Time) *Day {
	for _, day := range w.Days {
		if dateutil.SameDay(day.Date, date) {
			return day
		}
	}
	return nil
}

// EndDate returns the Sunday of the week.
func (w *Week) EndDate() time.Time {
	return w.StartDate.AddDate(0, 0, 6)
}

// WeekStats holds aggregated occupancy for the week.
type WeekStats struct {
	OpenMinutes   int
	BookedMinutes int
	LiveBookings  int
	DayStats      [7]DayStats
}

// BookedPercent returns the share of the week's open time that is booked.
func (s WeekStats) BookedPercent() int {
	if s.OpenMinutes == 0 {
		return 0
	}
	return (s.BookedMinutes * 100) / s.OpenMinutes
}

// BusiestDay returns the weekday (0=Monday) with the most booked minutes.
// Returns -1 if nothing is booked.
func (s WeekStats) BusiestDay() (weekday int, bookedMinutes int) {
	weekday = -1
	for i, ds := range s.DayStats {
		if ds.BookedMinutes > bookedMinutes {
			bookedMinutes = ds.BookedMinutes
			weekday = i
		}
	}
	return weekday, bookedMinutes
}

// Stats calculates occupancy of the room for every day of the week.
func (w *Week) Stats(room *Room) WeekStats {
	var stats WeekStats
	for i, day := range w.Days {
		ds := day.Stats(room)
		stats.DayStats[i] = ds
		stats.OpenMinutes += ds.OpenMinutes
		stats.BookedMinutes += ds.BookedMinutes
		stats.LiveBookings += ds.LiveBookings
	}
	return stats
}

// WeekdayShortName returns the short name of the weekday (0=Monday).
func WeekdayShortName(weekday int) string {
	names := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if weekday < 0 || weekday > 6 {
		return ""
	}
	return names[weekday]
}
