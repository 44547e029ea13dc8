// Package booking defines the core domain types for meetin.
package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/meetin/internal/dateutil"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

// Validation errors.
var (
	ErrEmptyName      = errors.New("room name cannot be empty")
	ErrEmptyTitle     = errors.New("title cannot be empty")
	ErrInvalidWindow  = errors.New("room open time must be before close time")
	ErrEndBeforeStart = errors.New("end time must be after start time")
	ErrOutsideHours   = errors.New("booking is outside the room's open hours")
)

// Domain errors.
var (
	ErrOverlap      = errors.New("booking overlaps with an existing booking")
	ErrNotFound     = errors.New("not found")
	ErrRoomInactive = errors.New("room is not accepting bookings")
	ErrRoomExists   = errors.New("a room with that name already exists")
)

// Status represents the state of a booking.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// Room is a bookable meeting room with a daily open window.
type Room struct {
	ID           string
	Name         string
	Capacity     int
	Amenities    []string
	Description  string
	Active       bool
	OpenMinutes  int // minutes since midnight
	CloseMinutes int // minutes since midnight, exclusive
}

// NewRoom creates an active Room, normalizing open and close from any
// supported time representation ("09:00", "9.5", ISO datetime).
func NewRoom(name, open, close string) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	openMins, err := timeofday.ParseCanonical(open)
	if err != nil {
		return nil, fmt.Errorf("open time: %w", err)
	}
	closeMins, err := timeofday.ParseCanonicalEnd(close)
	if err != nil {
		return nil, fmt.Errorf("close time: %w", err)
	}
	r := &Room{
		Name:         name,
		Active:       true,
		OpenMinutes:  openMins,
		CloseMinutes: closeMins,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the room's open window.
func (r *Room) Validate() error {
	if r.OpenMinutes < 0 || r.CloseMinutes > timeofday.MinutesPerDay || r.OpenMinutes >= r.CloseMinutes {
		return fmt.Errorf("%w: %s-%s", ErrInvalidWindow,
			timeofday.Format(r.OpenMinutes), timeofday.Format(r.CloseMinutes))
	}
	return nil
}

// Hours renders the open window, e.g. "08:00-17:00".
func (r *Room) Hours() string {
	return timeofday.Label(r.OpenMinutes, r.CloseMinutes)
}

// Booking is an existing reservation of a room for part of a day.
type Booking struct {
	ID           string
	RoomID       string
	Date         time.Time // calendar day, time component ignored
	StartMinutes int
	EndMinutes   int
	Title        string
	Description  string
	UserID       string
	Status       Status
	CreatedAt    time.Time
}

// IsLive returns true if the booking still occupies its slots.
func (b *Booking) IsLive() bool {
	return b.Status == StatusConfirmed || b.Status == StatusPending
}

// IsCancelled returns true if the booking has been cancelled.
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// Duration returns the booking length in minutes.
func (b *Booking) Duration() int {
	return b.EndMinutes - b.StartMinutes
}

// Overlaps reports whether the booking intersects [start, end) on its own day.
// Two ranges overlap if start1 < end2 AND start2 < end1.
func (b *Booking) Overlaps(start, end int) bool {
	return b.StartMinutes < end && start < b.EndMinutes
}

// ConflictsWith returns true if both bookings are live, share a room and day,
// and overlap in time.
func (b *Booking) ConflictsWith(other *Booking) bool {
	if other == nil || !b.IsLive() || !other.IsLive() {
		return false
	}
	if b.RoomID != other.RoomID || !dateutil.SameDay(b.Date, other.Date) {
		return false
	}
	return b.Overlaps(other.StartMinutes, other.EndMinutes)
}

// IsPast returns true if the booking's end has passed relative to now.
func (b *Booking) IsPast(now time.Time) bool {
	switch dateutil.CompareDays(b.Date, now) {
	case -1:
		return true
	case 1:
		return false
	default:
		return now.Hour()*60+now.Minute() >= b.EndMinutes
	}
}

// Request is a normalized booking request ready for submission.
type Request struct {
	RoomID       string
	Date         time.Time
	StartMinutes int
	EndMinutes   int
	Title        string
	Description  string
	UserID       string
}

// Validate checks the request's own consistency. It does not check occupancy.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if r.StartMinutes < 0 || r.EndMinutes > timeofday.MinutesPerDay {
		return fmt.Errorf("%w: %d-%d out of range", timeofday.ErrInvalidTimeFormat, r.StartMinutes, r.EndMinutes)
	}
	if r.EndMinutes <= r.StartMinutes {
		return ErrEndBeforeStart
	}
	return nil
}

// Within returns an error if the request falls outside the room's open window.
func (r Request) Within(room *Room) error {
	if r.StartMinutes < room.OpenMinutes || r.EndMinutes > room.CloseMinutes {
		return fmt.Errorf("%w: %s not within %s", ErrOutsideHours,
			timeofday.Label(r.StartMinutes, r.EndMinutes), room.Hours())
	}
	return nil
}

// Duration returns the requested length in minutes.
func (r Request) Duration() int {
	return r.EndMinutes - r.StartMinutes
}

// Summary renders the request on one line, e.g.
// "2025-12-02 09:00-10:30 (1.5 hours) Team standup".
func (r Request) Summary() string {
	return fmt.Sprintf("%s %s (%s) %s",
		r.Date.Format("2006-01-02"),
		timeofday.Label(r.StartMinutes, r.EndMinutes),
		timeofday.DurationLabel(r.Duration()),
		r.Title,
	)
}
