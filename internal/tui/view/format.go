// Package view provides rendering helpers for the TUI.
package view

import (
	"fmt"
	"time"
)

// FormatDuration formats minutes as "Xh Ym".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h := minutes / 60
	m := minutes % 60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// DayLabel renders a day relative to today: "Today, Mon Jan 7",
// "Tomorrow, Tue Jan 8" or "Wed Jan 9 2030".
func DayLabel(day, today time.Time) string {
	switch daysBetween(today, day) {
	case 0:
		return "Today, " + day.Format("Mon Jan 2")
	case 1:
		return "Tomorrow, " + day.Format("Mon Jan 2")
	case -1:
		return "Yesterday, " + day.Format("Mon Jan 2")
	default:
		return day.Format("Mon Jan 2 2006")
	}
}

func daysBetween(a, b time.Time) int {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	ua := time.Date(ya, ma, da, 0, 0, 0, 0, time.UTC)
	ub := time.Date(yb, mb, db, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
