package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

// PrintOpts configures booking row printing.
type PrintOpts struct {
	Verbose      bool              // Show full titles
	ShowRoom     bool              // Show the room column
	RoomNames    map[string]string // room ID to name
	MaxDescWidth int               // Maximum title width (0 = auto)
}

// CalcMaxDescWidth calculates the maximum title width based on options.
func (o PrintOpts) CalcMaxDescWidth(defaultWidth int) int {
	if o.MaxDescWidth > 0 {
		return o.MaxDescWidth
	}
	if !o.Verbose {
		return defaultWidth
	}
	// Base: "  ● 1a2b3c4d  HH:MM-HH:MM  " = ~28 chars, duration suffix ~8
	overhead := 36
	if o.ShowRoom {
		overhead += 14
	}
	if available := termWidth() - overhead; available > defaultWidth {
		return available
	}
	return defaultWidth
}

// PrintBookingRow prints a single booking with consistent formatting.
func PrintBookingRow(w io.Writer, b *booking.Booking, opts PrintOpts, maxDescWidth int) {
	title := truncate(b.Title, maxDescWidth)
	hours := timeofday.Label(b.StartMinutes, b.EndMinutes)

	var room string
	if opts.ShowRoom {
		name := opts.RoomNames[b.RoomID]
		if name == "" {
			name = shortID(b.RoomID)
		}
		room = fmt.Sprintf("[%s] ", truncate(name, 12))
	}

	line := fmt.Sprintf("  %s %s  %s  %s%-*s  %s",
		statusSymbol(b.Status), shortID(b.ID), hours, room, maxDescWidth, title,
		FormatDuration(b.Duration()))
	if !b.IsLive() {
		line = formatPast(line)
	}
	fmt.Fprintln(w, line)
}

// PrintSlotRow prints one slot of a day grid. title is the occupying booking's title, if any.
func PrintSlotRow(w io.Writer, s slotgrid.Slot, title string) {
	label := s.Label()
	switch {
	case s.Busy:
		fmt.Fprintf(w, "  %s  %s  %s\n", formatBusy("X"), label, formatBusy(title))
	case s.PastCutoff:
		fmt.Fprintf(w, "  %s  %s\n", formatPast("."), formatPast(label))
	default:
		fmt.Fprintf(w, "  %s  %s\n", formatFree("-"), formatFree(label))
	}
}

// PrintDayStats prints the occupancy summary of a day.
func PrintDayStats(w io.Writer, stats booking.DayStats) {
	fmt.Fprintf(w, "Booked: %s of %s (%s) | Bookings: %d\n",
		FormatDuration(stats.BookedMinutes),
		FormatDuration(stats.OpenMinutes),
		formatStats(fmt.Sprintf("%d%%", stats.BookedPercent())),
		stats.LiveBookings)
	if stats.CancelledBookings > 0 {
		fmt.Fprintln(w, formatPast(fmt.Sprintf("Cancelled: %d", stats.CancelledBookings)))
	}
}

// PrintWeekStats prints the occupancy summary of a week.
func PrintWeekStats(w io.Writer, stats booking.WeekStats) {
	fmt.Fprintf(w, "  Booked: %s of %s (%s)  |  Bookings: %d\n",
		FormatDuration(stats.BookedMinutes),
		FormatDuration(stats.OpenMinutes),
		formatStats(fmt.Sprintf("%d%%", stats.BookedPercent())),
		stats.LiveBookings)

	if day, minutes := stats.BusiestDay(); day >= 0 {
		fmt.Fprintf(w, "  Busiest day: %s (%s booked)\n",
			booking.WeekdayShortName(day), formatStats(FormatDuration(minutes)))
	}
}

// OccupancyBar creates an ASCII bar showing the booked share of open time.
func OccupancyBar(booked, open, width int) string {
	if open <= 0 {
		return "[" + strings.Repeat("░", width) + "] (0% booked)"
	}

	booked = min(booked, open)
	pct := (booked * 100) / open
	filled := (booked * width) / open

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", formatBusy(bar), formatStats(fmt.Sprintf("(%d%% booked)", pct)))
}

// FormatDuration formats minutes as a compact duration.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

// FormatRuns lists free runs as "09:00-10:30 (1.5 hours), ...".
func FormatRuns(runs []slotgrid.Run) string {
	if len(runs) == 0 {
		return "none"
	}
	parts := make([]string, len(runs))
	for i, r := range runs {
		parts[i] = fmt.Sprintf("%s (%s)",
			timeofday.Label(r.StartMinutes, r.EndMinutes), timeofday.DurationLabel(r.Duration()))
	}
	return strings.Join(parts, ", ")
}

func statusSymbol(s booking.Status) string {
	switch s {
	case booking.StatusConfirmed:
		return "●"
	case booking.StatusPending:
		return "○"
	case booking.StatusCancelled:
		return "✗"
	case booking.StatusCompleted:
		return "✓"
	default:
		return "?"
	}
}

// shortID trims UUIDs to their first block for display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
