// Package server exposes rooms, bookings and annotated slot grids over a
// JSON REST API, plus a websocket stream of booking changes per room.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/slotgrid"
)

// Options configures a Server.
type Options struct {
	// Grid controls slot generation for the slots endpoint.
	Grid slotgrid.Options
	// Now is the server clock used for the past-slot cutoff. Nil means time.Now.
	Now func() time.Time
	// AllowedOrigins lists browser origins other than the server's own host
	// that may open event streams. "*" allows any origin.
	AllowedOrigins []string
}

// Server serves the REST API over a booking repository.
type Server struct {
	echo *echo.Echo
	repo booking.Repository
	log  *zap.Logger
	hub  *Hub
	grid slotgrid.Options
	now  func() time.Time

	upgrader websocket.Upgrader
}

// New creates a server and registers its routes.
func New(repo booking.Repository, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &payloadValidator{validate: validator.New()}

	s := &Server{
		echo: e,
		repo: repo,
		log:  logger,
		hub:  NewHub(logger),
		grid: opts.Grid,
		now:  now,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: originChecker(opts.AllowedOrigins)}
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())
	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.health)

	api := s.echo.Group("/api")
	api.GET("/rooms", s.listRooms)
	api.POST("/rooms", s.createRoom)
	api.GET("/rooms/:id", s.getRoom)
	api.PATCH("/rooms/:id", s.updateRoom)
	api.GET("/rooms/:id/bookings", s.listRoomBookings)
	api.GET("/rooms/:id/slots", s.daySlots)
	api.GET("/rooms/:id/events", s.roomEvents)

	api.GET("/bookings", s.listUserBookings)
	api.POST("/bookings", s.createBooking)
	api.GET("/bookings/:id", s.getBooking)
	api.DELETE("/bookings/:id", s.cancelBooking)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Hub returns the event hub booking changes are published to.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and closes websocket subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= http.StatusInternalServerError {
				s.log.Error("request", fields...)
				return nil
			}
			s.log.Info("request", fields...)
			return nil
		},
	})
}

type payloadValidator struct {
	validate *validator.Validate
}

func (v *payloadValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
