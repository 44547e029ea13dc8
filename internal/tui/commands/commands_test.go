package commands

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/meetin/internal/api"
	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/db"
	"github.com/javiermolinar/meetin/internal/request"
	"github.com/javiermolinar/meetin/internal/slotgrid"
)

var testDay = time.Date(2030, 1, 8, 0, 0, 0, 0, time.Local)

func setup(t *testing.T) (*db.SQLite, *booking.Room) {
	t.Helper()

	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	room, _ := booking.NewRoom("Orion", "08:00", "12:00")
	if err := repo.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	return repo, room
}

func selected(t *testing.T, room *booking.Room, first, last int) ([]slotgrid.Slot, []slotgrid.Slot) {
	t.Helper()
	grid, err := slotgrid.ForRoom(room, slotgrid.Options{})
	if err != nil {
		t.Fatalf("ForRoom failed: %v", err)
	}
	grid = slotgrid.Annotate(grid, nil, testDay, slotgrid.AnnotateOptions{})
	return grid[first : last+1], grid
}

func TestLoadRoomsAndDay(t *testing.T) {
	repo, room := setup(t)

	msg := LoadRooms(repo)()
	loaded, ok := msg.(RoomsLoadedMsg)
	if !ok || len(loaded.Rooms) != 1 || loaded.Rooms[0].ID != room.ID {
		t.Fatalf("unexpected msg: %#v", msg)
	}

	msg = LoadDay(repo, room.ID, testDay)()
	day, ok := msg.(DayLoadedMsg)
	if !ok || day.RoomID != room.ID || len(day.Bookings) != 0 || !day.Day.Equal(testDay) {
		t.Fatalf("unexpected msg: %#v", msg)
	}
}

func TestSubmitBooking(t *testing.T) {
	repo, room := setup(t)
	sel, grid := selected(t, room, 2, 3) // 09:00-10:00

	msg := SubmitBooking(repo, request.Input{
		Selected: sel, Grid: grid, Room: room, Day: testDay, Title: "Planning", UserID: "ana",
	})()
	created, ok := msg.(BookingCreatedMsg)
	if !ok {
		t.Fatalf("unexpected msg: %#v", msg)
	}
	if b := created.Booking; b.StartMinutes != 540 || b.EndMinutes != 600 || b.Title != "Planning" {
		t.Errorf("unexpected booking: %+v", b)
	}

	// The same slots were taken after the grid was drawn.
	msg = SubmitBooking(repo, request.Input{
		Selected: sel, Grid: grid, Room: room, Day: testDay, Title: "Again",
	})()
	errMsg, ok := msg.(ErrMsg)
	if !ok || !errors.Is(errMsg.Err, request.ErrSlotNoLongerAvailable) {
		t.Fatalf("expected ErrSlotNoLongerAvailable, got %#v", msg)
	}

	msg = SubmitBooking(repo, request.Input{Selected: sel, Day: testDay, Title: "x"})()
	if errMsg, ok := msg.(ErrMsg); !ok || !errors.Is(errMsg.Err, request.ErrNoRoom) {
		t.Fatalf("expected ErrNoRoom, got %#v", msg)
	}
}

func TestCancelBooking(t *testing.T) {
	repo, room := setup(t)
	b, err := repo.CreateBooking(context.Background(), booking.Request{
		RoomID: room.ID, Date: testDay, StartMinutes: 600, EndMinutes: 630, Title: "Sync",
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if msg := CancelBooking(repo, b.ID)(); msg != (BookingCancelledMsg{ID: b.ID}) {
		t.Fatalf("unexpected msg: %#v", msg)
	}
	msg := CancelBooking(repo, "missing")()
	if errMsg, ok := msg.(ErrMsg); !ok || !errors.Is(errMsg.Err, booking.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %#v", msg)
	}
}

type fakeSource struct {
	events chan api.Event
	err    error
}

func (f *fakeSource) Watch(_ context.Context, _ string) (<-chan api.Event, error) {
	return f.events, f.err
}

func TestWatchAndWait(t *testing.T) {
	src := &fakeSource{events: make(chan api.Event, 1)}

	msg := Watch(src, "r1")()
	started, ok := msg.(WatchStartedMsg)
	if !ok || started.RoomID != "r1" || started.Cancel == nil {
		t.Fatalf("unexpected msg: %#v", msg)
	}
	defer started.Cancel()

	src.events <- api.Event{Type: "booking.created", RoomID: "r1", BookingID: "b1"}
	msg = WaitForEvent("r1", started.Events)()
	ev, ok := msg.(RoomEventMsg)
	if !ok || ev.Event.BookingID != "b1" {
		t.Fatalf("unexpected msg: %#v", msg)
	}

	close(src.events)
	if msg := WaitForEvent("r1", started.Events)(); msg != (WatchEndedMsg{RoomID: "r1"}) {
		t.Fatalf("unexpected msg: %#v", msg)
	}

	failing := &fakeSource{err: errors.New("dial failed")}
	if _, ok := Watch(failing, "r1")().(ErrMsg); !ok {
		t.Fatal("expected ErrMsg when the subscription fails")
	}
}
