package view

import (
	"fmt"
	"time"
)

// HeaderState holds what the title bar shows.
type HeaderState struct {
	RoomName  string
	RoomIndex int // zero-based
	RoomCount int
	Hours     string // open window, e.g. "08:00-18:00"
	Day       time.Time
	Today     time.Time
	Live      bool // subscribed to remote changes
}

// HeaderLabel renders "Orion (1/3)  08:00-18:00  Today, Mon Jan 7".
func HeaderLabel(s HeaderState) string {
	if s.RoomCount == 0 {
		return "No rooms. Add one with 'meetin room add'."
	}
	label := fmt.Sprintf("%s (%d/%d)  %s  %s",
		s.RoomName, s.RoomIndex+1, s.RoomCount, s.Hours, DayLabel(s.Day, s.Today))
	if s.Live {
		label += "  ●live"
	}
	return label
}
