package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/db"
	"github.com/javiermolinar/meetin/internal/slotgrid"
)

// serverNow is 2030-01-07 09:10 local, a Monday.
var serverNow = time.Date(2030, 1, 7, 9, 10, 0, 0, time.Local)

func newTestServer(t *testing.T) (*Server, *db.SQLite) {
	t.Helper()

	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	s := New(repo, nil, Options{
		Grid: slotgrid.Options{Granularity: 30},
		Now:  func() time.Time { return serverNow },
	})
	return s, repo
}

func newTestRoom(t *testing.T, repo booking.Repository) *booking.Room {
	t.Helper()

	room, err := booking.NewRoom("Orion", "08:00", "12:00")
	if err != nil {
		t.Fatalf("NewRoom failed: %v", err)
	}
	if err := repo.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	return room
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestCreateRoom(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/rooms",
		`{"name":"Orion","openTime":8.5,"closeTime":"17:00","capacity":6,"amenities":["tv"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	room := decode[roomJSON](t, rec)
	if room.ID == "" || room.OpenTime != "08:30" || room.CloseTime != "17:00" || room.Capacity != 6 {
		t.Errorf("unexpected room: %+v", room)
	}

	rec = do(t, s, http.MethodGet, "/api/rooms", "")
	rooms := decode[[]roomJSON](t, rec)
	if len(rooms) != 1 || rooms[0].Name != "Orion" {
		t.Errorf("unexpected rooms: %+v", rooms)
	}
}

func TestCreateRoom_Errors(t *testing.T) {
	s, repo := newTestServer(t)
	newTestRoom(t, repo)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "missing name", body: `{"openTime":"08:00","closeTime":"17:00"}`, wantCode: http.StatusBadRequest},
		{name: "bad time", body: `{"name":"Vega","openTime":"8am","closeTime":"17:00"}`, wantCode: http.StatusBadRequest},
		{name: "inverted window", body: `{"name":"Vega","openTime":"17:00","closeTime":"08:00"}`, wantCode: http.StatusBadRequest},
		{name: "duplicate", body: `{"name":"orion","openTime":"08:00","closeTime":"17:00"}`, wantCode: http.StatusConflict},
		{name: "malformed", body: `{"name":`, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/rooms", tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/rooms/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Code != "not_found" {
		t.Errorf("unexpected error body: %+v", body)
	}
}

func TestUpdateRoom(t *testing.T) {
	s, repo := newTestServer(t)
	room := newTestRoom(t, repo)

	rec := do(t, s, http.MethodPatch, "/api/rooms/"+room.ID, `{"active":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[roomJSON](t, rec); got.Active {
		t.Error("room should be inactive")
	}

	body := `{"roomId":"` + room.ID + `","date":"2030-01-07","startTime":"10:00","endTime":"10:30","title":"Sync"}`
	rec = do(t, s, http.MethodPost, "/api/bookings", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for inactive room, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodPatch, "/api/rooms/"+room.ID, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without active, got %d", rec.Code)
	}
}

func TestCreateBooking(t *testing.T) {
	s, repo := newTestServer(t)
	room := newTestRoom(t, repo)

	tests := []struct {
		name      string
		start     string
		end       string
		wantStart string
		wantEnd   string
	}{
		{name: "clock strings", start: `"09:00"`, end: `"09:30"`, wantStart: "09:00", wantEnd: "09:30"},
		{name: "hour fractions", start: `10`, end: `10.5`, wantStart: "10:00", wantEnd: "10:30"},
		{name: "iso datetimes", start: `"2030-01-07T11:00:00"`, end: `"2030-01-07T11:30:00"`, wantStart: "11:00", wantEnd: "11:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"roomId":"` + room.ID + `","date":"2030-01-07","startTime":` + tt.start +
				`,"endTime":` + tt.end + `,"title":"Sync","userId":"ana"}`
			rec := do(t, s, http.MethodPost, "/api/bookings", body)
			if rec.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
			}
			b := decode[bookingJSON](t, rec)
			if b.StartTime != tt.wantStart || b.EndTime != tt.wantEnd {
				t.Errorf("got %s-%s, want %s-%s", b.StartTime, b.EndTime, tt.wantStart, tt.wantEnd)
			}
			if b.Date != "2030-01-07" || !b.Active || b.Status != "confirmed" || b.UserID != "ana" {
				t.Errorf("unexpected booking: %+v", b)
			}
		})
	}
}

func TestCreateBooking_Errors(t *testing.T) {
	s, repo := newTestServer(t)
	room := newTestRoom(t, repo)

	first := `{"roomId":"` + room.ID + `","date":"2030-01-07","startTime":"09:00","endTime":"10:00","title":"Standup"}`
	if rec := do(t, s, http.MethodPost, "/api/bookings", first); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "overlap",
			body:     `{"roomId":"` + room.ID + `","date":"2030-01-07","startTime":"09:30","endTime":"10:30","title":"Sync"}`,
			wantCode: http.StatusConflict,
			wantErr:  "overlap",
		},
		{
			name:     "unknown room",
			body:     `{"roomId":"missing","date":"2030-01-07","startTime":"09:30","endTime":"10:30","title":"Sync"}`,
			wantCode: http.StatusNotFound,
			wantErr:  "not_found",
		},
		{
			name:     "bad time",
			body:     `{"roomId":"` + room.ID + `","date":"2030-01-07","startTime":"9h","endTime":"10:30","title":"Sync"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_time",
		},
		{
			name:     "bad date",
			body:     `{"roomId":"` + room.ID + `","date":"07/01/2030","startTime":"10:00","endTime":"10:30","title":"Sync"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_time",
		},
		{
			name:     "empty title",
			body:     `{"roomId":"` + room.ID + `","date":"2030-01-07","startTime":"10:00","endTime":"10:30","title":" "}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "empty_title",
		},
		{
			name:     "outside hours",
			body:     `{"roomId":"` + room.ID + `","date":"2030-01-07","startTime":"11:30","endTime":"12:30","title":"Sync"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "outside_hours",
		},
		{
			name:     "end before start",
			body:     `{"roomId":"` + room.ID + `","date":"2030-01-07","startTime":"10:30","endTime":"10:00","title":"Sync"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_range",
		},
		{
			name:     "missing start",
			body:     `{"roomId":"` + room.ID + `","date":"2030-01-07","endTime":"10:30","title":"Sync"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/bookings", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if body := decode[errorBody](t, rec); body.Code != tt.wantErr || body.Error == "" {
				t.Errorf("expected code %q, got %+v", tt.wantErr, body)
			}
		})
	}
}

func TestDaySlots(t *testing.T) {
	s, repo := newTestServer(t)
	room := newTestRoom(t, repo)

	_, err := repo.CreateBooking(context.Background(), booking.Request{
		RoomID: room.ID, Date: serverNow, StartMinutes: 600, EndMinutes: 660, Title: "Review",
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	tests := []struct {
		name string
		date string
		want string
	}{
		// 08:00-12:00 grid, now is 09:10 so 08:00-09:00 and 09:00-09:30 have started.
		{name: "today", date: "2030-01-07", want: "...-XX--"},
		{name: "tomorrow", date: "2030-01-08", want: "--------"},
		{name: "yesterday", date: "2030-01-06", want: "........"},
		{name: "default is today", date: "", want: "...-XX--"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/rooms/"+room.ID+"/slots?date="+tt.date, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			day := decode[dayJSON](t, rec)
			if got := slotsPattern(day.Slots); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func slotsPattern(slots []slotJSON) string {
	var b strings.Builder
	for _, s := range slots {
		switch {
		case s.Busy:
			b.WriteByte('X')
		case s.PastCutoff:
			b.WriteByte('.')
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func TestCancelBooking(t *testing.T) {
	s, repo := newTestServer(t)
	room := newTestRoom(t, repo)

	b, err := repo.CreateBooking(context.Background(), booking.Request{
		RoomID: room.ID, Date: serverNow, StartMinutes: 600, EndMinutes: 660, Title: "Review",
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	rec := do(t, s, http.MethodDelete, "/api/bookings/"+b.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/bookings/"+b.ID, "")
	if got := decode[bookingJSON](t, rec); got.Active || got.Status != "cancelled" {
		t.Errorf("expected cancelled booking, got %+v", got)
	}

	rec = do(t, s, http.MethodDelete, "/api/bookings/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestListBookings(t *testing.T) {
	s, repo := newTestServer(t)
	room := newTestRoom(t, repo)
	ctx := context.Background()

	for i, day := range []time.Time{serverNow, serverNow.AddDate(0, 0, 1), serverNow.AddDate(0, 0, 5)} {
		_, err := repo.CreateBooking(ctx, booking.Request{
			RoomID: room.ID, Date: day, StartMinutes: 540, EndMinutes: 600,
			Title: "Standup", UserID: []string{"ana", "ana", "ben"}[i],
		})
		if err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
	}

	rec := do(t, s, http.MethodGet, "/api/rooms/"+room.ID+"/bookings?from=2030-01-07&to=2030-01-08", "")
	if got := decode[[]bookingJSON](t, rec); len(got) != 2 {
		t.Errorf("expected 2 bookings, got %d", len(got))
	}

	rec = do(t, s, http.MethodGet, "/api/bookings?userId=ben&from=2030-01-07&to=2030-01-13", "")
	if got := decode[[]bookingJSON](t, rec); len(got) != 1 || got[0].Date != "2030-01-12" {
		t.Errorf("unexpected user bookings: %+v", got)
	}

	rec = do(t, s, http.MethodGet, "/api/bookings", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without userId, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/rooms/"+room.ID+"/bookings?from=2030-01-08&to=2030-01-07", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted range, got %d", rec.Code)
	}
}

func TestRoomEvents(t *testing.T) {
	s, repo := newTestServer(t)
	room := newTestRoom(t, repo)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { s.Hub().Close() })

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/rooms/" + room.ID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().Subscribers(room.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never attached")
		}
		time.Sleep(5 * time.Millisecond)
	}

	body := `{"roomId":"` + room.ID + `","date":"2030-01-07","startTime":"10:00","endTime":"10:30","title":"Sync"}`
	rec := do(t, s, http.MethodPost, "/api/bookings", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	created := decode[bookingJSON](t, rec)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	want := Event{Type: EventBookingCreated, RoomID: room.ID, Date: "2030-01-07", BookingID: created.ID}
	if e != want {
		t.Errorf("got event %+v, want %+v", e, want)
	}
}

func TestRoomEvents_UnknownRoom(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/rooms/missing/events", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestRoomEvents_Origin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string // "self" means the test server's own URL
		wantOK  bool
	}{
		{name: "no origin", wantOK: true},
		{name: "same host", origin: "self", wantOK: true},
		{name: "foreign origin", origin: "https://evil.example.com", wantOK: false},
		{name: "listed origin", allowed: []string{"https://rooms.example.com/"}, origin: "https://rooms.example.com", wantOK: true},
		{name: "unlisted origin", allowed: []string{"https://rooms.example.com"}, origin: "https://other.example.com", wantOK: false},
		{name: "any origin", allowed: []string{"*"}, origin: "https://other.example.com", wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
			if err != nil {
				t.Fatalf("failed to create test repo: %v", err)
			}
			t.Cleanup(func() { _ = repo.Close() })
			room := newTestRoom(t, repo)

			s := New(repo, nil, Options{AllowedOrigins: tt.allowed})
			ts := httptest.NewServer(s.Handler())
			t.Cleanup(ts.Close)
			t.Cleanup(func() { s.Hub().Close() })

			header := http.Header{}
			switch tt.origin {
			case "":
			case "self":
				header.Set("Origin", ts.URL)
			default:
				header.Set("Origin", tt.origin)
			}

			url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/rooms/" + room.ID + "/events"
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("dial failed: %v", err)
				}
				_ = conn.Close()
				return
			}
			if err == nil {
				_ = conn.Close()
				t.Fatal("expected the handshake to be rejected")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("expected 403, got %v", resp)
			}
		})
	}
}
