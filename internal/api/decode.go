package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

// decodeRoom reads a room in either this service's shape or the original
// backend's (isActive, openTime as datetime).
func decodeRoom(r gjson.Result) (*booking.Room, error) {
	if !r.IsObject() {
		return nil, fmt.Errorf("room: expected object, got %s", r.Type)
	}

	openMins, err := clockMinutes(r.Get("openTime"))
	if err != nil {
		return nil, fmt.Errorf("room open time: %w", err)
	}
	closeMins, err := endMinutes(r.Get("closeTime"))
	if err != nil {
		return nil, fmt.Errorf("room close time: %w", err)
	}
	// Some backends send a close of midnight meaning end of day.
	if closeMins == 0 && openMins > 0 {
		closeMins = timeofday.MinutesPerDay
	}

	room := &booking.Room{
		ID:           r.Get("id").String(),
		Name:         r.Get("name").String(),
		Capacity:     int(r.Get("capacity").Int()),
		Amenities:    stringList(r.Get("amenities")),
		Description:  r.Get("description").String(),
		Active:       flag(r, true, "active", "isActive"),
		OpenMinutes:  openMins,
		CloseMinutes: closeMins,
	}
	return room, nil
}

// decodeBooking reads a booking whose room may be "roomId" or "room.id",
// whose times may be hour fractions, "HH:MM" or datetimes, and whose state
// may be "status", "active" or "isActive".
func decodeBooking(r gjson.Result) (*booking.Booking, error) {
	if !r.IsObject() {
		return nil, fmt.Errorf("booking: expected object, got %s", r.Type)
	}

	roomID := r.Get("roomId").String()
	if roomID == "" {
		roomID = r.Get("room.id").String()
	}

	start, err := clockMinutes(r.Get("startTime"))
	if err != nil {
		return nil, fmt.Errorf("booking start time: %w", err)
	}
	end, err := endMinutes(r.Get("endTime"))
	if err != nil {
		return nil, fmt.Errorf("booking end time: %w", err)
	}
	if end == 0 && start > 0 {
		end = timeofday.MinutesPerDay
	}

	// Without a date, the day comes from a datetime start.
	dateField := r.Get("date")
	if !dateField.Exists() || dateField.String() == "" {
		dateField = r.Get("startTime")
	}
	date, err := calendarDay(dateField.String())
	if err != nil {
		return nil, fmt.Errorf("booking date: %w", err)
	}

	userID := r.Get("userId").String()
	if userID == "" {
		userID = r.Get("user.id").String()
	}

	b := &booking.Booking{
		ID:           r.Get("id").String(),
		RoomID:       roomID,
		Date:         date,
		StartMinutes: start,
		EndMinutes:   end,
		Title:        r.Get("title").String(),
		Description:  r.Get("description").String(),
		UserID:       userID,
		Status:       bookingStatus(r),
	}
	if created := r.Get("createdAt"); created.Exists() {
		if t, err := time.Parse(time.RFC3339, created.String()); err == nil {
			b.CreatedAt = t
		}
	}
	return b, nil
}

func decodeRooms(body []byte) ([]*booking.Room, error) {
	var rooms []*booking.Room
	for _, item := range listItems(body) {
		room, err := decodeRoom(item)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func decodeBookings(body []byte) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	for _, item := range listItems(body) {
		b, err := decodeBooking(item)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// listItems accepts a bare array or an envelope with a "data" array.
func listItems(body []byte) []gjson.Result {
	root := gjson.ParseBytes(body)
	if data := root.Get("data"); data.IsArray() {
		return data.Array()
	}
	return root.Array()
}

// clockMinutes normalizes a JSON time value through timeofday: numbers are
// hour fractions, strings are "HH:MM" or datetimes.
func clockMinutes(v gjson.Result) (int, error) {
	switch v.Type {
	case gjson.Number:
		return timeofday.ToCanonical(timeofday.HourFraction(v.Float()))
	case gjson.String:
		return timeofday.ParseCanonical(v.String())
	case gjson.Null:
		return 0, fmt.Errorf("%w: missing", timeofday.ErrInvalidTimeFormat)
	default:
		return 0, fmt.Errorf("%w: %s", timeofday.ErrInvalidTimeFormat, v.Raw)
	}
}

// endMinutes is clockMinutes for the exclusive end of a range, accepting
// "24:00" and 24 as end of day.
func endMinutes(v gjson.Result) (int, error) {
	switch v.Type {
	case gjson.Number:
		return timeofday.ToCanonicalEnd(timeofday.HourFraction(v.Float()))
	case gjson.String:
		return timeofday.ParseCanonicalEnd(v.String())
	default:
		return clockMinutes(v)
	}
}

// calendarDay reads "YYYY-MM-DD" or a datetime as a local calendar day.
// Datetimes with an offset are converted to local time first.
func calendarDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	// Same conversion as the start and end times, so all three agree on the day.
	t, err := timeofday.ParseDateTime(s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
}

func bookingStatus(r gjson.Result) booking.Status {
	if s := booking.Status(strings.ToLower(r.Get("status").String())); s.Valid() {
		return s
	}
	if flag(r, true, "active", "isActive") {
		return booking.StatusConfirmed
	}
	return booking.StatusCancelled
}

// flag returns the first present boolean among keys, or def.
func flag(r gjson.Result, def bool, keys ...string) bool {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.Type != gjson.Null {
			return v.Bool()
		}
	}
	return def
}

// stringList accepts a JSON array or a comma-separated string.
func stringList(v gjson.Result) []string {
	var out []string
	if v.IsArray() {
		for _, item := range v.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	for _, s := range strings.Split(v.String(), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
