package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/dateutil"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps domain errors to HTTP status codes and stable error codes.
func statusFor(err error) (int, string) {
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, booking.ErrOverlap):
		return http.StatusConflict, "overlap"
	case errors.Is(err, booking.ErrRoomExists):
		return http.StatusConflict, "room_exists"
	case errors.Is(err, booking.ErrRoomInactive):
		return http.StatusConflict, "room_inactive"
	case errors.Is(err, timeofday.ErrInvalidTimeFormat),
		errors.Is(err, dateutil.ErrInvalidDateFormat),
		errors.Is(err, dateutil.ErrEndDateBeforeStart):
		return http.StatusBadRequest, "invalid_time"
	case errors.Is(err, booking.ErrEmptyTitle):
		return http.StatusBadRequest, "empty_title"
	case errors.Is(err, booking.ErrEmptyName):
		return http.StatusBadRequest, "empty_name"
	case errors.Is(err, slotgrid.ErrInvalidWindow):
		return http.StatusBadRequest, "invalid_window"
	case errors.Is(err, booking.ErrEndBeforeStart):
		return http.StatusBadRequest, "invalid_range"
	case errors.Is(err, booking.ErrOutsideHours):
		return http.StatusBadRequest, "outside_hours"
	case errors.As(err, &verr):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, ""
	}
}

// handleError is the single place errors become HTTP responses.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code := statusFor(err)
	body := errorBody{Error: err.Error(), Code: code}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		body = errorBody{Error: http.StatusText(he.Code)}
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		}
		if status == http.StatusBadRequest {
			body.Code = "invalid_request"
		}
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		body.Error = "internal server error"
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.log.Warn("writing error response", zap.Error(err))
	}
}
