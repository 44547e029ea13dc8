// Package api implements booking.Repository against a remote meetin REST
// service, or a backend of the original room-booking shape.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

const dateLayout = "2006-01-02"

// DefaultTimeout applies when the configured timeout is zero.
const DefaultTimeout = 10 * time.Second

// ErrUnexpectedResponse is returned for non-2xx statuses without a domain mapping.
var (
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrInvalidRequest     = errors.New("invalid request")
)

// StatusError carries the HTTP status and server message of a failed call.
type StatusError struct {
	Status  int
	Code    string
	Message string
	err     error
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.err, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.err, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.err
}

// Client talks to the REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for baseURL, e.g. "http://localhost:8080".
// Every call is bounded by timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL: u,
		http:    http.DefaultClient,
		timeout: timeout,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateRoom adds a room and sets its ID from the response.
func (c *Client) CreateRoom(ctx context.Context, r *booking.Room) error {
	payload := map[string]any{
		"name":        r.Name,
		"openTime":    timeofday.Format(r.OpenMinutes),
		"closeTime":   timeofday.FormatEnd(r.CloseMinutes),
		"capacity":    r.Capacity,
		"amenities":   r.Amenities,
		"description": r.Description,
	}
	body, err := c.do(ctx, http.MethodPost, "/api/rooms", nil, payload)
	if err != nil {
		return err
	}
	created, err := decodeRoom(gjson.ParseBytes(body))
	if err != nil {
		return err
	}
	r.ID = created.ID
	r.Active = created.Active
	return nil
}

// GetRoom fetches a room by ID.
func (c *Client) GetRoom(ctx context.Context, id string) (*booking.Room, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeRoom(gjson.ParseBytes(body))
}

// ListRooms fetches all rooms.
func (c *Client) ListRooms(ctx context.Context) ([]*booking.Room, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/rooms", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeRooms(body)
}

// SetRoomActive opens or closes a room for new bookings.
func (c *Client) SetRoomActive(ctx context.Context, id string, active bool) error {
	_, err := c.do(ctx, http.MethodPatch, "/api/rooms/"+url.PathEscape(id), nil, map[string]any{"active": active})
	return err
}

// CreateBooking submits req. A 409 from the server maps to booking.ErrOverlap.
func (c *Client) CreateBooking(ctx context.Context, req booking.Request) (*booking.Booking, error) {
	payload := map[string]any{
		"roomId":      req.RoomID,
		"date":        req.Date.Format(dateLayout),
		"startTime":   timeofday.Format(req.StartMinutes),
		"endTime":     timeofday.FormatEnd(req.EndMinutes),
		"title":       req.Title,
		"description": req.Description,
		"userId":      req.UserID,
	}
	body, err := c.do(ctx, http.MethodPost, "/api/bookings", nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeBooking(gjson.ParseBytes(body))
}

// GetBooking fetches a booking by ID.
func (c *Client) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/bookings/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeBooking(gjson.ParseBytes(body))
}

// CancelBooking cancels a booking by ID.
func (c *Client) CancelBooking(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/bookings/"+url.PathEscape(id), nil, nil)
	return err
}

// ListBookings fetches a room's bookings within the date range (inclusive).
func (c *Client) ListBookings(ctx context.Context, roomID string, start, end time.Time) ([]*booking.Booking, error) {
	query := url.Values{}
	query.Set("from", start.Format(dateLayout))
	query.Set("to", end.Format(dateLayout))

	body, err := c.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(roomID)+"/bookings", query, nil)
	if err != nil {
		return nil, err
	}
	return decodeBookings(body)
}

// ListUserBookings fetches a user's bookings within the date range (inclusive).
func (c *Client) ListUserBookings(ctx context.Context, userID string, start, end time.Time) ([]*booking.Booking, error) {
	query := url.Values{}
	query.Set("userId", userID)
	query.Set("from", start.Format(dateLayout))
	query.Set("to", end.Format(dateLayout))

	body, err := c.do(ctx, http.MethodGet, "/api/bookings", query, nil)
	if err != nil {
		return nil, err
	}
	return decodeBookings(body)
}

// Close is a no-op; the client holds no connections of its own.
func (c *Client) Close() error {
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs one call and returns the response body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(res.StatusCode, body)
}

var badRequestCodes = map[string]error{
	"invalid_time":   timeofday.ErrInvalidTimeFormat,
	"invalid_window": booking.ErrInvalidWindow,
	"invalid_range":  booking.ErrEndBeforeStart,
	"outside_hours":  booking.ErrOutsideHours,
	"empty_title":    booking.ErrEmptyTitle,
	"empty_name":     booking.ErrEmptyName,
}

// statusError maps a failed response to the repository's sentinel errors.
func statusError(status int, body []byte) error {
	parsed := gjson.ParseBytes(body)
	e := &StatusError{
		Status:  status,
		Code:    parsed.Get("code").String(),
		Message: parsed.Get("error").String(),
		err:     ErrUnexpectedResponse,
	}
	if e.Message == "" {
		e.Message = parsed.Get("message").String()
	}
	if e.Message == "" && !parsed.IsObject() {
		e.Message = strings.TrimSpace(string(body))
	}

	switch status {
	case http.StatusNotFound:
		e.err = booking.ErrNotFound
	case http.StatusConflict:
		switch e.Code {
		case "room_exists":
			e.err = booking.ErrRoomExists
		case "room_inactive":
			e.err = booking.ErrRoomInactive
		default:
			e.err = booking.ErrOverlap
		}
	case http.StatusBadRequest:
		e.err = ErrInvalidRequest
		if err, ok := badRequestCodes[e.Code]; ok {
			e.err = err
		}
	}
	return e
}

var _ booking.Repository = (*Client)(nil)
