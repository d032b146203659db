package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"busline/internal/application/services"
)

type bookingRequest struct {
	ScheduleID int64    `json:"schedule_id"`
	Seats      []string `json:"seats"`
}

func (s *Server) RequestBookingHandler(c echo.Context) error {
	id, _ := identity(c)

	var req bookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := s.bookings.RequestBooking(c.Request().Context(), services.RequestBookingParams{
		UserID:     id.UserID,
		ScheduleID: req.ScheduleID,
		Seats:      req.Seats,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, booking)
}

func (s *Server) ListBookingsHandler(c echo.Context) error {
	id, _ := identity(c)

	list, err := s.bookings.BookingsForUser(c.Request().Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, list)
}

func (s *Server) GetBookingHandler(c echo.Context) error {
	id, _ := identity(c)

	bookingID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	booking, err := s.bookings.Booking(c.Request().Context(), bookingID, id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (s *Server) CancelBookingHandler(c echo.Context) error {
	id, _ := identity(c)

	bookingID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	booking, err := s.bookings.CancelBooking(c.Request().Context(), bookingID, id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (s *Server) CompleteBookingHandler(c echo.Context) error {
	id, _ := identity(c)

	bookingID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	booking, err := s.bookings.CompleteBooking(c.Request().Context(), bookingID, id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, booking)
}
