package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"busline/internal/application/services"
	"busline/internal/auth"
	"busline/internal/broadcast"
)

type Server struct {
	e      *echo.Echo
	addr   string
	logger zerolog.Logger

	users    *services.UserService
	fleet    *services.FleetService
	trips    *services.TripsService
	bookings *services.BookingService
	tracking *services.TrackingService
	reviews  *services.ReviewService

	hub               *broadcast.Hub
	tokens            *auth.TokenManager
	streamIdleTimeout time.Duration
}

type ServerConfig struct {
	Addr              string
	Logger            zerolog.Logger
	Users             *services.UserService
	Fleet             *services.FleetService
	Trips             *services.TripsService
	Bookings          *services.BookingService
	Tracking          *services.TrackingService
	Reviews           *services.ReviewService
	Hub               *broadcast.Hub
	Tokens            *auth.TokenManager
	StreamIdleTimeout time.Duration
	RouterIsRunning   func() bool
}

func NewServer(cfg ServerConfig) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		e:                 e,
		addr:              cfg.Addr,
		logger:            cfg.Logger.With().Str("component", "http").Logger(),
		users:             cfg.Users,
		fleet:             cfg.Fleet,
		trips:             cfg.Trips,
		bookings:          cfg.Bookings,
		tracking:          cfg.Tracking,
		reviews:           cfg.Reviews,
		hub:               cfg.Hub,
		tokens:            cfg.Tokens,
		streamIdleTimeout: cfg.StreamIdleTimeout,
	}

	e.Use(srv.requestLogging)
	e.Use(srv.authenticate)

	// Public surface.
	e.POST("/api/register", srv.RegisterHandler)
	e.POST("/api/login", srv.LoginHandler)
	e.GET("/api/routes", srv.ListRoutesHandler)
	e.GET("/api/routes/:id/schedules", srv.RouteSchedulesHandler)
	e.GET("/api/search", srv.SearchSchedulesHandler)
	e.GET("/api/buses/:id/details", srv.BusDetailsHandler)
	e.GET("/api/schedules/:id/seats", srv.BookedSeatsHandler)
	e.GET("/api/location/:busId", srv.LatestLocationHandler)
	e.GET("/api/reviews/:busId", srv.ListReviewsHandler)
	e.GET("/api/events", srv.EventsHandler)

	// Authenticated surface.
	e.GET("/api/user", srv.CurrentUserHandler, srv.requireAuth)
	e.GET("/api/buses", srv.ListBusesHandler, srv.requireAuth)
	e.POST("/api/buses", srv.CreateBusHandler, srv.requireAuth)
	e.GET("/api/buses/:id", srv.GetBusHandler, srv.requireAuth)
	e.PUT("/api/buses/:id", srv.UpdateBusHandler, srv.requireAuth)
	e.DELETE("/api/buses/:id", srv.DeleteBusHandler, srv.requireAuth)
	e.POST("/api/routes", srv.CreateRouteHandler, srv.requireAuth)
	e.GET("/api/schedules", srv.OwnerSchedulesHandler, srv.requireAuth)
	e.POST("/api/schedules", srv.CreateScheduleHandler, srv.requireAuth)
	e.PUT("/api/schedules/:id", srv.UpdateScheduleHandler, srv.requireAuth)
	e.DELETE("/api/schedules/:id", srv.DeleteScheduleHandler, srv.requireAuth)
	e.POST("/api/bookings", srv.RequestBookingHandler, srv.requireAuth)
	e.GET("/api/bookings", srv.ListBookingsHandler, srv.requireAuth)
	e.GET("/api/bookings/:id", srv.GetBookingHandler, srv.requireAuth)
	e.POST("/api/bookings/:id/cancel", srv.CancelBookingHandler, srv.requireAuth)
	e.POST("/api/bookings/:id/complete", srv.CompleteBookingHandler, srv.requireAuth)
	e.POST("/api/location", srv.ReportLocationHandler, srv.requireAuth)
	e.POST("/api/reviews", srv.CreateReviewHandler, srv.requireAuth)

	e.GET("/health", func(c echo.Context) error {
		if cfg.RouterIsRunning != nil && !cfg.RouterIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})

	return srv
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) requestLogging(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.logger.Debug().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("handling a request")

		err := next(c)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("path", c.Request().URL.Path).
				Msg("request handling error")
		}
		return err
	}
}
