package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the storage interface for rooms and bookings.
// It is implemented by the local SQLite store and by the REST client.
type Repository interface {
	// CreateRoom adds a new room and sets its ID.
	// Returns ErrRoomExists if the name is taken.
	CreateRoom(ctx context.Context, room *Room) error

	// GetRoom retrieves a room by ID. Returns ErrNotFound if missing.
	GetRoom(ctx context.Context, id string) (*Room, error)

	// ListRooms returns all rooms ordered by name.
	ListRooms(ctx context.Context) ([]*Room, error)

	// SetRoomActive opens or closes a room for new bookings.
	SetRoomActive(ctx context.Context, id string, active bool) error

	// CreateBooking persists a request.
	// Returns ErrOverlap if a live booking already occupies part of the range.
	CreateBooking(ctx context.Context, req Request) (*Booking, error)

	// GetBooking retrieves a booking by ID. Returns ErrNotFound if missing.
	GetBooking(ctx context.Context, id string) (*Booking, error)

	// CancelBooking marks a booking as cancelled.
	CancelBooking(ctx context.Context, id string) error

	// ListBookings returns the room's bookings within the date range (inclusive).
	ListBookings(ctx context.Context, roomID string, start, end time.Time) ([]*Booking, error)

	// ListUserBookings returns a user's bookings within the date range (inclusive).
	ListUserBookings(ctx context.Context, userID string, start, end time.Time) ([]*Booking, error)

	// Close releases any resources held by the repository.
	Close() error
}

// FindRoom resolves ref as a room ID first, then as a case-insensitive name.
func FindRoom(ctx context.Context, repo Repository, ref string) (*Room, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("room: %w", ErrNotFound)
	}
	room, err := repo.GetRoom(ctx, ref)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rooms, err := repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rooms {
		if strings.EqualFold(r.Name, ref) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("room %q: %w", ref, ErrNotFound)
}
