package server

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

const dateLayout = "2006-01-02"

type roomJSON struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Capacity    int      `json:"capacity"`
	Amenities   []string `json:"amenities"`
	Description string   `json:"description"`
	Active      bool     `json:"active"`
	OpenTime    string   `json:"openTime"`
	CloseTime   string   `json:"closeTime"`
}

func toRoomJSON(r *booking.Room) roomJSON {
	amenities := r.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return roomJSON{
		ID:          r.ID,
		Name:        r.Name,
		Capacity:    r.Capacity,
		Amenities:   amenities,
		Description: r.Description,
		Active:      r.Active,
		OpenTime:    clockText(r.OpenMinutes),
		CloseTime:   clockText(r.CloseMinutes),
	}
}

type bookingJSON struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	Date        string    `json:"date"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      string    `json:"userId"`
	Status      string    `json:"status"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toBookingJSON(b *booking.Booking) bookingJSON {
	return bookingJSON{
		ID:          b.ID,
		RoomID:      b.RoomID,
		Date:        b.Date.Format(dateLayout),
		StartTime:   clockText(b.StartMinutes),
		EndTime:     clockText(b.EndMinutes),
		Title:       b.Title,
		Description: b.Description,
		UserID:      b.UserID,
		Status:      string(b.Status),
		Active:      b.IsLive(),
		CreatedAt:   b.CreatedAt,
	}
}

func toBookingsJSON(bookings []*booking.Booking) []bookingJSON {
	out := make([]bookingJSON, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingJSON(b))
	}
	return out
}

type slotJSON struct {
	Index      int    `json:"index"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Label      string `json:"label"`
	Busy       bool   `json:"busy"`
	PastCutoff bool   `json:"pastCutoff"`
	Selectable bool   `json:"selectable"`
	BookingID  string `json:"bookingId,omitempty"`
}

type dayJSON struct {
	Room  roomJSON   `json:"room"`
	Date  string     `json:"date"`
	Slots []slotJSON `json:"slots"`
}

func toSlotsJSON(slots []slotgrid.Slot) []slotJSON {
	out := make([]slotJSON, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotJSON{
			Index:      s.Index,
			StartTime:  clockText(s.StartMinutes),
			EndTime:    clockText(s.EndMinutes),
			Label:      s.Label(),
			Busy:       s.Busy,
			PastCutoff: s.PastCutoff,
			Selectable: s.Selectable(),
			BookingID:  s.OccupyingBookingID,
		})
	}
	return out
}

func clockText(minutes int) string {
	return timeofday.FormatEnd(minutes)
}

// clock accepts a time of day as a JSON number (hour fraction) or string
// ("HH:MM" or ISO datetime) and keeps its text for timeofday.Parse.
type clock string

func (c *clock) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = clock(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = clock(n.String())
	return nil
}

func (c clock) minutes() (int, error) {
	return timeofday.ParseCanonical(string(c))
}

func (c clock) endMinutes() (int, error) {
	return timeofday.ParseCanonicalEnd(string(c))
}

type createRoomPayload struct {
	Name        string   `json:"name" validate:"required"`
	OpenTime    clock    `json:"openTime" validate:"required"`
	CloseTime   clock    `json:"closeTime" validate:"required"`
	Capacity    int      `json:"capacity" validate:"gte=0"`
	Amenities   []string `json:"amenities"`
	Description string   `json:"description"`
}

type updateRoomPayload struct {
	Active *bool `json:"active" validate:"required"`
}

type createBookingPayload struct {
	RoomID      string `json:"roomId" validate:"required"`
	Date        string `json:"date" validate:"required"`
	StartTime   clock  `json:"startTime" validate:"required"`
	EndTime     clock  `json:"endTime" validate:"required"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
}
