package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Event reports that a room's bookings changed on Date.
type Event struct {
	Type      string
	RoomID    string
	Date      time.Time
	BookingID string
}

// Watch subscribes to booking changes of a room. The channel is closed when
// ctx is done or the connection drops.
func (c *Client) Watch(ctx context.Context, roomID string) (<-chan Event, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.eventsURL(roomID), nil)
	if err != nil {
		return nil, fmt.Errorf("subscribing to room %s: %w", roomID, err)
	}

	events := make(chan Event)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		case <-done:
		}
		_ = conn.Close()
	}()
	go func() {
		defer close(events)
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					c.log.Debug("event stream ended", zap.String("room", roomID), zap.Error(err))
				}
				return
			}
			e, ok := decodeEvent(data)
			if !ok {
				continue
			}
			select {
			case events <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func (c *Client) eventsURL(roomID string) string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/rooms/" + url.PathEscape(roomID) + "/events"
	return u.String()
}

func decodeEvent(data []byte) (Event, bool) {
	r := gjson.ParseBytes(data)
	if !r.IsObject() || r.Get("type").String() == "" {
		return Event{}, false
	}
	e := Event{
		Type:      r.Get("type").String(),
		RoomID:    r.Get("roomId").String(),
		BookingID: r.Get("bookingId").String(),
	}
	if day, err := calendarDay(r.Get("date").String()); err == nil {
		e.Date = day
	}
	return e, true
}
