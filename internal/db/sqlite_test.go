package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/meetin/internal/booking"
)

var testDate = time.Date(2025, 12, 2, 0, 0, 0, 0, time.Local)

func newTestRepo(t *testing.T) *SQLite {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}

	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}

func newTestRoom(t *testing.T, repo *SQLite, name string) *booking.Room {
	t.Helper()

	room, err := booking.NewRoom(name, "08:00", "18:00")
	if err != nil {
		t.Fatalf("NewRoom failed: %v", err)
	}
	if err := repo.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	return room
}

func newRequest(roomID string, start, end int, title string) booking.Request {
	return booking.Request{
		RoomID:       roomID,
		Date:         testDate,
		StartMinutes: start,
		EndMinutes:   end,
		Title:        title,
		UserID:       "ana",
	}
}

func TestCreateRoom(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	room, _ := booking.NewRoom("Orion", "08:30", "17:00")
	room.Capacity = 8
	room.Amenities = []string{"projector", "whiteboard"}
	room.Description = "Third floor"

	if err := repo.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.ID == "" {
		t.Fatal("expected ID to be set after insert")
	}

	got, err := repo.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if got.Name != "Orion" || got.Capacity != 8 || got.Description != "Third floor" {
		t.Errorf("unexpected room: %+v", got)
	}
	if got.OpenMinutes != 510 || got.CloseMinutes != 1020 {
		t.Errorf("got window %d-%d, want 510-1020", got.OpenMinutes, got.CloseMinutes)
	}
	if len(got.Amenities) != 2 || got.Amenities[0] != "projector" || got.Amenities[1] != "whiteboard" {
		t.Errorf("got amenities %v", got.Amenities)
	}
	if !got.Active {
		t.Error("expected room to be active")
	}
}

func TestCreateRoom_DuplicateName(t *testing.T) {
	repo := newTestRepo(t)
	newTestRoom(t, repo, "Orion")

	dup, _ := booking.NewRoom("orion", "09:00", "17:00")
	err := repo.CreateRoom(context.Background(), dup)
	if !errors.Is(err, booking.ErrRoomExists) {
		t.Errorf("expected ErrRoomExists, got %v", err)
	}
	if dup.ID != "" {
		t.Error("ID should not be set on failure")
	}
}

func TestCreateRoom_Invalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.CreateRoom(ctx, &booking.Room{Name: " ", OpenMinutes: 480, CloseMinutes: 600})
	if !errors.Is(err, booking.ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}

	err = repo.CreateRoom(ctx, &booking.Room{Name: "A", OpenMinutes: 600, CloseMinutes: 480})
	if !errors.Is(err, booking.ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetRoom(context.Background(), "missing")
	if !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRooms(t *testing.T) {
	repo := newTestRepo(t)
	newTestRoom(t, repo, "vega")
	newTestRoom(t, repo, "Andromeda")
	newTestRoom(t, repo, "Orion")

	rooms, err := repo.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}

	want := []string{"Andromeda", "Orion", "vega"}
	if len(rooms) != len(want) {
		t.Fatalf("expected %d rooms, got %d", len(want), len(rooms))
	}
	for i, name := range want {
		if rooms[i].Name != name {
			t.Errorf("room %d: expected %q, got %q", i, name, rooms[i].Name)
		}
	}
}

func TestSetRoomActive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	room := newTestRoom(t, repo, "Orion")

	if err := repo.SetRoomActive(ctx, room.ID, false); err != nil {
		t.Fatalf("SetRoomActive failed: %v", err)
	}

	_, err := repo.CreateBooking(ctx, newRequest(room.ID, 540, 600, "Standup"))
	if !errors.Is(err, booking.ErrRoomInactive) {
		t.Errorf("expected ErrRoomInactive, got %v", err)
	}

	if err := repo.SetRoomActive(ctx, room.ID, true); err != nil {
		t.Fatalf("SetRoomActive failed: %v", err)
	}
	if _, err := repo.CreateBooking(ctx, newRequest(room.ID, 540, 600, "Standup")); err != nil {
		t.Errorf("CreateBooking after reopening failed: %v", err)
	}

	if err := repo.SetRoomActive(ctx, "missing", true); !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateBooking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	room := newTestRoom(t, repo, "Orion")

	req := newRequest(room.ID, 540, 630, "  Planning ")
	req.Description = "Q1 roadmap"

	b, err := repo.CreateBooking(ctx, req)
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	if b.ID == "" {
		t.Fatal("expected ID to be set")
	}
	if b.Status != booking.StatusConfirmed {
		t.Errorf("expected status confirmed, got %q", b.Status)
	}

	got, err := repo.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if got.RoomID != room.ID || got.StartMinutes != 540 || got.EndMinutes != 630 {
		t.Errorf("unexpected booking: %+v", got)
	}
	if got.Title != "Planning" {
		t.Errorf("expected trimmed title, got %q", got.Title)
	}
	if got.Description != "Q1 roadmap" || got.UserID != "ana" {
		t.Errorf("unexpected booking: %+v", got)
	}
	if !got.Date.Equal(testDate) {
		t.Errorf("expected date %v, got %v", testDate, got.Date)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created at to be set")
	}
}

func TestCreateBooking_Errors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	room := newTestRoom(t, repo, "Orion")

	if _, err := repo.CreateBooking(ctx, newRequest(room.ID, 540, 600, "Standup")); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	tests := []struct {
		name    string
		req     booking.Request
		wantErr error
	}{
		{name: "overlap", req: newRequest(room.ID, 570, 630, "Sync"), wantErr: booking.ErrOverlap},
		{name: "covers existing", req: newRequest(room.ID, 480, 720, "Offsite"), wantErr: booking.ErrOverlap},
		{name: "unknown room", req: newRequest("missing", 540, 600, "Sync"), wantErr: booking.ErrNotFound},
		{name: "before open", req: newRequest(room.ID, 420, 480, "Early"), wantErr: booking.ErrOutsideHours},
		{name: "after close", req: newRequest(room.ID, 1050, 1110, "Late"), wantErr: booking.ErrOutsideHours},
		{name: "empty title", req: newRequest(room.ID, 660, 690, " "), wantErr: booking.ErrEmptyTitle},
		{name: "end before start", req: newRequest(room.ID, 690, 660, "Sync"), wantErr: booking.ErrEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.CreateBooking(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateBooking_NoOverlap(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	room := newTestRoom(t, repo, "Orion")
	other := newTestRoom(t, repo, "Vega")

	existing, err := repo.CreateBooking(ctx, newRequest(room.ID, 540, 600, "Standup"))
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	cancelled, err := repo.CreateBooking(ctx, newRequest(room.ID, 660, 720, "Lunch talk"))
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	if err := repo.CancelBooking(ctx, cancelled.ID); err != nil {
		t.Fatalf("CancelBooking failed: %v", err)
	}

	nextDay := newRequest(room.ID, 540, 600, "Standup")
	nextDay.Date = testDate.AddDate(0, 0, 1)

	tests := []struct {
		name string
		req  booking.Request
	}{
		{name: "adjacent before", req: newRequest(room.ID, 510, 540, "Prep")},
		{name: "adjacent after", req: newRequest(room.ID, 600, 630, "Retro")},
		{name: "other room", req: newRequest(other.ID, 540, 600, "Standup")},
		{name: "other day", req: nextDay},
		{name: "cancelled slot", req: newRequest(room.ID, 660, 720, "Lunch talk")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.CreateBooking(ctx, tt.req); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	if existing.Status != booking.StatusConfirmed {
		t.Errorf("existing booking should be untouched, got %q", existing.Status)
	}
}

func TestCancelBooking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	room := newTestRoom(t, repo, "Orion")

	b, err := repo.CreateBooking(ctx, newRequest(room.ID, 540, 600, "Standup"))
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if err := repo.CancelBooking(ctx, b.ID); err != nil {
		t.Fatalf("CancelBooking failed: %v", err)
	}

	got, err := repo.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if !got.IsCancelled() {
		t.Errorf("expected cancelled, got %q", got.Status)
	}
}

func TestCancelBooking_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.CancelBooking(context.Background(), "missing")
	if !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetBooking_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetBooking(context.Background(), "missing")
	if !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListBookings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	room := newTestRoom(t, repo, "Orion")
	other := newTestRoom(t, repo, "Vega")

	mk := func(roomID string, day time.Time, start, end int, title string) {
		t.Helper()
		req := newRequest(roomID, start, end, title)
		req.Date = day
		if _, err := repo.CreateBooking(ctx, req); err != nil {
			t.Fatalf("CreateBooking %q failed: %v", title, err)
		}
	}

	mk(room.ID, testDate, 660, 720, "Late")
	mk(room.ID, testDate, 540, 600, "Early")
	mk(room.ID, testDate.AddDate(0, 0, 1), 540, 600, "Tomorrow")
	mk(room.ID, testDate.AddDate(0, 0, 7), 540, 600, "Next week")
	mk(other.ID, testDate, 540, 600, "Other room")

	got, err := repo.ListBookings(ctx, room.ID, testDate, testDate.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}

	want := []string{"Early", "Late", "Tomorrow"}
	if len(got) != len(want) {
		t.Fatalf("expected %d bookings, got %d", len(want), len(got))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("booking %d: expected %q, got %q", i, title, got[i].Title)
		}
	}
}

func TestListBookings_Empty(t *testing.T) {
	repo := newTestRepo(t)
	room := newTestRoom(t, repo, "Orion")

	got, err := repo.ListBookings(context.Background(), room.ID, testDate, testDate)
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no bookings, got %d", len(got))
	}
}

func TestListUserBookings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	room := newTestRoom(t, repo, "Orion")
	other := newTestRoom(t, repo, "Vega")

	mine := newRequest(room.ID, 540, 600, "Mine")
	alsoMine := newRequest(other.ID, 480, 510, "Also mine")
	theirs := newRequest(room.ID, 600, 660, "Theirs")
	theirs.UserID = "ben"

	for _, req := range []booking.Request{mine, alsoMine, theirs} {
		if _, err := repo.CreateBooking(ctx, req); err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
	}

	got, err := repo.ListUserBookings(ctx, "ana", testDate, testDate)
	if err != nil {
		t.Fatalf("ListUserBookings failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(got))
	}
	if got[0].Title != "Also mine" || got[1].Title != "Mine" {
		t.Errorf("unexpected order: %q, %q", got[0].Title, got[1].Title)
	}
}

func TestParseDate_LocalTimezone(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "date only", input: "2025-12-02"},
		{name: "sqlite midnight", input: "2025-12-02T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if err != nil {
				t.Fatalf("parseDate failed: %v", err)
			}
			if got.Location() != time.Local {
				t.Errorf("expected local timezone, got %v", got.Location())
			}
			if got.Year() != 2025 || got.Month() != time.December || got.Day() != 2 {
				t.Errorf("unexpected date %v", got)
			}
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	if _, err := parseDate("yesterday"); err == nil {
		t.Error("expected error for unrecognized format")
	}
}
