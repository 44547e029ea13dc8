package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/dateutil"
	"github.com/javiermolinar/meetin/internal/slotgrid"
)

// originChecker accepts requests without an Origin header, from the
// server's own host, or from one of allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(strings.TrimRight(a, "/"), origin) {
				return true
			}
		}
		return false
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) listRooms(c echo.Context) error {
	rooms, err := s.repo.ListRooms(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]roomJSON, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomJSON(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createRoom(c echo.Context) error {
	var p createRoomPayload
	if err := c.Bind(&p); err != nil {
		return err
	}
	if err := c.Validate(&p); err != nil {
		return err
	}

	room, err := booking.NewRoom(p.Name, string(p.OpenTime), string(p.CloseTime))
	if err != nil {
		return err
	}
	room.Capacity = p.Capacity
	room.Amenities = p.Amenities
	room.Description = strings.TrimSpace(p.Description)

	if err := s.repo.CreateRoom(c.Request().Context(), room); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRoomJSON(room))
}

func (s *Server) getRoom(c echo.Context) error {
	room, err := s.repo.GetRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoomJSON(room))
}

func (s *Server) updateRoom(c echo.Context) error {
	var p updateRoomPayload
	if err := c.Bind(&p); err != nil {
		return err
	}
	if err := c.Validate(&p); err != nil {
		return err
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	if err := s.repo.SetRoomActive(ctx, id, *p.Active); err != nil {
		return err
	}
	room, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoomJSON(room))
}

func (s *Server) listRoomBookings(c echo.Context) error {
	from, to, err := s.dateRange(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	room, err := s.repo.GetRoom(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	bookings, err := s.repo.ListBookings(ctx, room.ID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingsJSON(bookings))
}

// daySlots returns the room's grid for a day annotated with occupancy and
// the server clock's past cutoff.
func (s *Server) daySlots(c echo.Context) error {
	day, err := s.parseDay(c.QueryParam("date"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	room, err := s.repo.GetRoom(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	grid, err := slotgrid.ForRoom(room, s.grid)
	if err != nil {
		return err
	}
	bookings, err := s.repo.ListBookings(ctx, room.ID, day, day)
	if err != nil {
		return err
	}

	annotated := slotgrid.Annotate(grid, bookings, day, slotgrid.AnnotateOptions{
		Now: slotgrid.CutoffAt(s.now()),
	})
	return c.JSON(http.StatusOK, dayJSON{
		Room:  toRoomJSON(room),
		Date:  day.Format(dateLayout),
		Slots: toSlotsJSON(annotated),
	})
}

func (s *Server) roomEvents(c echo.Context) error {
	room, err := s.repo.GetRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.String("room", room.ID), zap.Error(err))
		return nil
	}
	s.hub.serve(conn, room.ID)
	return nil
}

func (s *Server) listUserBookings(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("userId"))
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}
	from, to, err := s.dateRange(c)
	if err != nil {
		return err
	}

	bookings, err := s.repo.ListUserBookings(c.Request().Context(), userID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingsJSON(bookings))
}

func (s *Server) createBooking(c echo.Context) error {
	var p createBookingPayload
	if err := c.Bind(&p); err != nil {
		return err
	}
	if err := c.Validate(&p); err != nil {
		return err
	}

	day, err := s.parseDay(p.Date)
	if err != nil {
		return err
	}
	start, err := p.StartTime.minutes()
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	end, err := p.EndTime.endMinutes()
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}

	b, err := s.repo.CreateBooking(c.Request().Context(), booking.Request{
		RoomID:       p.RoomID,
		Date:         day,
		StartMinutes: start,
		EndMinutes:   end,
		Title:        p.Title,
		Description:  p.Description,
		UserID:       p.UserID,
	})
	if err != nil {
		return err
	}

	s.log.Info("booking created",
		zap.String("id", b.ID),
		zap.String("room", b.RoomID),
		zap.String("date", b.Date.Format(dateLayout)),
		zap.Int("start", b.StartMinutes),
		zap.Int("end", b.EndMinutes))
	s.hub.Publish(Event{
		Type:      EventBookingCreated,
		RoomID:    b.RoomID,
		Date:      b.Date.Format(dateLayout),
		BookingID: b.ID,
	})
	return c.JSON(http.StatusCreated, toBookingJSON(b))
}

func (s *Server) getBooking(c echo.Context) error {
	b, err := s.repo.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingJSON(b))
}

func (s *Server) cancelBooking(c echo.Context) error {
	ctx := c.Request().Context()
	b, err := s.repo.GetBooking(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if err := s.repo.CancelBooking(ctx, b.ID); err != nil {
		return err
	}

	s.log.Info("booking cancelled", zap.String("id", b.ID), zap.String("room", b.RoomID))
	s.hub.Publish(Event{
		Type:      EventBookingCancelled,
		RoomID:    b.RoomID,
		Date:      b.Date.Format(dateLayout),
		BookingID: b.ID,
	})
	return c.NoContent(http.StatusNoContent)
}

// parseDay accepts "YYYY-MM-DD" or an ISO datetime, whose calendar day is
// taken in its own zone. Empty means today on the server clock.
func (s *Server) parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return dateutil.TruncateToDay(s.now()), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return dateutil.TruncateToDay(t), nil
	}
	return dateutil.ParseDate(raw)
}

// dateRange reads from/to query params. Missing bounds default to today, and
// to defaults to from.
func (s *Server) dateRange(c echo.Context) (time.Time, time.Time, error) {
	from, err := s.parseDay(c.QueryParam("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to := from
	if raw := c.QueryParam("to"); raw != "" {
		if to, err = s.parseDay(raw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if dateutil.CompareDays(to, from) < 0 {
		return time.Time{}, time.Time{}, dateutil.ErrEndDateBeforeStart
	}
	return from, to, nil
}
