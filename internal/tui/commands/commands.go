// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/meetin/internal/api"
	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/request"
)

// EventSource streams booking changes of a room.
type EventSource interface {
	Watch(ctx context.Context, roomID string) (<-chan api.Event, error)
}

// RoomsLoadedMsg is sent when the room list is loaded.
type RoomsLoadedMsg struct {
	Rooms []*booking.Room
}

// DayLoadedMsg is sent when a room's bookings for a day are loaded.
type DayLoadedMsg struct {
	RoomID   string
	Day      time.Time
	Bookings []*booking.Booking
}

// BookingCreatedMsg is sent after a booking was stored.
type BookingCreatedMsg struct {
	Booking *booking.Booking
}

// BookingCancelledMsg is sent after a booking was cancelled.
type BookingCancelledMsg struct {
	ID string
}

// WatchStartedMsg is sent when a room subscription is open.
type WatchStartedMsg struct {
	RoomID string
	Events <-chan api.Event
	Cancel context.CancelFunc
}

// RoomEventMsg carries one change notification.
type RoomEventMsg struct {
	Event  api.Event
	Events <-chan api.Event
}

// WatchEndedMsg is sent when a subscription's channel closes.
type WatchEndedMsg struct {
	RoomID string
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// LoadRooms loads all rooms.
func LoadRooms(repo booking.Repository) tea.Cmd {
	return func() tea.Msg {
		rooms, err := repo.ListRooms(context.Background())
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("loading rooms: %w", err)}
		}
		return RoomsLoadedMsg{Rooms: rooms}
	}
}

// LoadDay loads a room's bookings for one day.
func LoadDay(repo booking.Repository, roomID string, day time.Time) tea.Cmd {
	return func() tea.Msg {
		bookings, err := repo.ListBookings(context.Background(), roomID, day, day)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("loading bookings: %w", err)}
		}
		return DayLoadedMsg{RoomID: roomID, Day: day, Bookings: bookings}
	}
}

// SubmitBooking re-reads the day's bookings, builds the request from the
// consumed selection and stores it.
func SubmitBooking(repo booking.Repository, in request.Input) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if in.Room == nil {
			return ErrMsg{Err: request.ErrNoRoom}
		}

		fresh, err := repo.ListBookings(ctx, in.Room.ID, in.Day, in.Day)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("refreshing bookings: %w", err)}
		}
		in.Fresh = fresh

		req, err := request.Build(in)
		if err != nil {
			return ErrMsg{Err: err}
		}
		b, err := repo.CreateBooking(ctx, req)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("creating booking: %w", err)}
		}
		return BookingCreatedMsg{Booking: b}
	}
}

// CancelBooking cancels a booking by ID.
func CancelBooking(repo booking.Repository, id string) tea.Cmd {
	return func() tea.Msg {
		if err := repo.CancelBooking(context.Background(), id); err != nil {
			return ErrMsg{Err: fmt.Errorf("cancelling booking: %w", err)}
		}
		return BookingCancelledMsg{ID: id}
	}
}

// Watch opens a subscription to a room's changes.
func Watch(src EventSource, roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		events, err := src.Watch(ctx, roomID)
		if err != nil {
			cancel()
			return ErrMsg{Err: err}
		}
		return WatchStartedMsg{RoomID: roomID, Events: events, Cancel: cancel}
	}
}

// WaitForEvent blocks until the next event on events.
func WaitForEvent(roomID string, events <-chan api.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return WatchEndedMsg{RoomID: roomID}
		}
		return RoomEventMsg{Event: e, Events: events}
	}
}

// ClearStatusAfter clears the status line after d.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
