// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

const bookingColumns = `id, room_id, booking_date, start_minutes, end_minutes,
		       title, description, user_id, status, created_at`

const roomColumns = `id, name, capacity, amenities, description, active, open_minutes, close_minutes`

// SQLite implements booking.Repository using SQLite.
type SQLite struct {
	db *sql.DB
}

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One writer at a time keeps the overlap check and insert atomic.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// CreateRoom adds a new room and assigns its ID.
// Returns ErrRoomExists if another room has the same name.
func (s *SQLite) CreateRoom(ctx context.Context, r *booking.Room) error {
	if strings.TrimSpace(r.Name) == "" {
		return booking.ErrEmptyName
	}
	if err := r.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE name = ? COLLATE NOCASE`, r.Name).Scan(&existing)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %q", booking.ErrRoomExists, r.Name)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("checking room name: %w", err)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO rooms (
			id, name, capacity, amenities, description, active, open_minutes, close_minutes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		id,
		r.Name,
		r.Capacity,
		strings.Join(r.Amenities, ","),
		r.Description,
		r.Active,
		r.OpenMinutes,
		r.CloseMinutes,
	)
	if err != nil {
		return fmt.Errorf("inserting room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	r.ID = id

	return nil
}

// GetRoom retrieves a room by ID.
func (s *SQLite) GetRoom(ctx context.Context, id string) (*booking.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`

	r, err := scanRoom(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %s: %w", id, booking.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying room: %w", err)
	}

	return r, nil
}

// ListRooms returns all rooms ordered by name.
func (s *SQLite) ListRooms(ctx context.Context) ([]*booking.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY name COLLATE NOCASE`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rooms []*booking.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}

	return rooms, nil
}

// SetRoomActive opens or closes a room for new bookings.
func (s *SQLite) SetRoomActive(ctx context.Context, id string, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE rooms SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("updating room: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("room %s: %w", id, booking.ErrNotFound)
	}

	return nil
}

// CreateBooking persists a confirmed booking for req.
// The room lookup, overlap check and insert share one transaction, so two
// callers racing for the same slots cannot both succeed.
func (s *SQLite) CreateBooking(ctx context.Context, req booking.Request) (*booking.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	room, err := scanRoom(tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, req.RoomID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %s: %w", req.RoomID, booking.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying room: %w", err)
	}
	if !room.Active {
		return nil, fmt.Errorf("%w: %s", booking.ErrRoomInactive, room.Name)
	}
	if err := req.Within(room); err != nil {
		return nil, err
	}

	if err := checkOverlapTx(ctx, tx, req.RoomID, req.Date, req.StartMinutes, req.EndMinutes); err != nil {
		return nil, err
	}

	b := &booking.Booking{
		ID:           uuid.NewString(),
		RoomID:       req.RoomID,
		Date:         time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, time.Local),
		StartMinutes: req.StartMinutes,
		EndMinutes:   req.EndMinutes,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		UserID:       req.UserID,
		Status:       booking.StatusConfirmed,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	query := `
		INSERT INTO bookings (
			id, room_id, booking_date, start_minutes, end_minutes,
			title, description, user_id, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		b.ID,
		b.RoomID,
		req.Date.Format("2006-01-02"),
		b.StartMinutes,
		b.EndMinutes,
		b.Title,
		b.Description,
		b.UserID,
		b.Status,
		b.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return b, nil
}

// GetBooking retrieves a booking by ID.
func (s *SQLite) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

	b, err := scanBooking(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", id, booking.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking: %w", err)
	}

	return b, nil
}

// CancelBooking marks a booking as cancelled.
func (s *SQLite) CancelBooking(ctx context.Context, id string) error {
	query := `UPDATE bookings SET status = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, booking.StatusCancelled, id)
	if err != nil {
		return fmt.Errorf("cancelling booking: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("booking %s: %w", id, booking.ErrNotFound)
	}

	return nil
}

// ListBookings returns all bookings of a room within the date range (inclusive).
func (s *SQLite) ListBookings(ctx context.Context, roomID string, start, end time.Time) ([]*booking.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE room_id = ? AND booking_date >= ? AND booking_date <= ?
		ORDER BY booking_date, start_minutes
	`
	return s.queryBookings(ctx, query, roomID, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// ListUserBookings returns all bookings made by a user within the date range (inclusive).
func (s *SQLite) ListUserBookings(ctx context.Context, userID string, start, end time.Time) ([]*booking.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = ? AND booking_date >= ? AND booking_date <= ?
		ORDER BY booking_date, start_minutes
	`
	return s.queryBookings(ctx, query, userID, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) queryBookings(ctx context.Context, query string, args ...any) ([]*booking.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bookings []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookings: %w", err)
	}

	return bookings, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (*booking.Room, error) {
	var (
		r         booking.Room
		amenities string
	)
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Capacity,
		&amenities,
		&r.Description,
		&r.Active,
		&r.OpenMinutes,
		&r.CloseMinutes,
	)
	if err != nil {
		return nil, err
	}
	r.Amenities = splitAmenities(amenities)
	return &r, nil
}

func scanBooking(row scanner) (*booking.Booking, error) {
	var (
		b           booking.Booking
		bookingDate string
		createdAt   string
	)
	err := row.Scan(
		&b.ID,
		&b.RoomID,
		&bookingDate,
		&b.StartMinutes,
		&b.EndMinutes,
		&b.Title,
		&b.Description,
		&b.UserID,
		&b.Status,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	b.Date, err = parseDate(bookingDate)
	if err != nil {
		return nil, fmt.Errorf("parsing booking date: %w", err)
	}

	b.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created at: %w", err)
	}

	return &b, nil
}

func splitAmenities(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// parseDate parses a date string in various formats SQLite might return.
// Date-only values (midnight) are parsed in local timezone to match time.Now() behavior.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}

	// DATE columns can come back as "2006-01-02T00:00:00Z"; that is still a
	// calendar day, not a UTC instant.
	if len(s) == 20 && s[10] == 'T' && s[19] == 'Z' && s[11:19] == "00:00:00" {
		if t, err := time.ParseInLocation("2006-01-02", s[:10], time.Local); err == nil {
			return t, nil
		}
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}

// checkOverlapTx returns ErrOverlap if a live booking of the room intersects
// [start, end) on date. Two ranges overlap if start1 < end2 AND start2 < end1.
func checkOverlapTx(ctx context.Context, tx *sql.Tx, roomID string, date time.Time, start, end int) error {
	query := `
		SELECT id, start_minutes, end_minutes, title
		FROM bookings
		WHERE room_id = ?
		  AND booking_date = ?
		  AND status IN (?, ?)
		  AND start_minutes < ?
		  AND end_minutes > ?
		ORDER BY start_minutes
		LIMIT 1
	`

	var (
		id         string
		existStart int
		existEnd   int
		title      string
	)

	err := tx.QueryRowContext(ctx, query,
		roomID,
		date.Format("2006-01-02"),
		booking.StatusConfirmed,
		booking.StatusPending,
		end,
		start,
	).Scan(&id, &existStart, &existEnd, &title)

	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking overlap: %w", err)
	}

	return fmt.Errorf("%w: conflicts with %s %q (%s)",
		booking.ErrOverlap, id, title, timeofday.Label(existStart, existEnd))
}
