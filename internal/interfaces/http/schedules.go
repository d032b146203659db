package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"busline/internal/domain/trips"
	"busline/internal/repository"
)

type scheduleRequest struct {
	BusID         int64     `json:"bus_id"`
	RouteID       int64     `json:"route_id"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Price         int64     `json:"price"`
	Available     *bool     `json:"available"`
}

func (s *Server) CreateScheduleHandler(c echo.Context) error {
	id, _ := identity(c)

	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	schedule, err := s.trips.CreateSchedule(c.Request().Context(), id, trips.Schedule{
		BusID:         req.BusID,
		RouteID:       req.RouteID,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		Price:         req.Price,
		Available:     available,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, schedule)
}

func (s *Server) OwnerSchedulesHandler(c echo.Context) error {
	id, _ := identity(c)

	schedules, err := s.trips.OwnerSchedules(c.Request().Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, schedules)
}

type scheduleUpdateRequest struct {
	BusID         *int64     `json:"bus_id"`
	RouteID       *int64     `json:"route_id"`
	DepartureTime *time.Time `json:"departure_time"`
	ArrivalTime   *time.Time `json:"arrival_time"`
	Price         *int64     `json:"price"`
	Available     *bool      `json:"available"`
}

func (s *Server) UpdateScheduleHandler(c echo.Context) error {
	id, _ := identity(c)

	scheduleID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req scheduleUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	schedule, err := s.trips.UpdateSchedule(c.Request().Context(), id, scheduleID, repository.ScheduleUpdate{
		BusID:         req.BusID,
		RouteID:       req.RouteID,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		Price:         req.Price,
		Available:     req.Available,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, schedule)
}

func (s *Server) DeleteScheduleHandler(c echo.Context) error {
	id, _ := identity(c)

	scheduleID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := s.trips.DeleteSchedule(c.Request().Context(), id, scheduleID); err != nil {
		return s.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// SearchSchedulesHandler serves passenger search. The date is optional and
// defaults to today; from and to are required.
func (s *Server) SearchSchedulesHandler(c echo.Context) error {
	from := c.QueryParam("from")
	to := c.QueryParam("to")

	day := time.Now()
	if v := c.QueryParam("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		}
		day = parsed
	}

	results, err := s.trips.Search(c.Request().Context(), from, to, day)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, results)
}

type bookedSeatsResponse struct {
	ScheduleID  int64    `json:"schedule_id"`
	BookedSeats []string `json:"booked_seats"`
}

func (s *Server) BookedSeatsHandler(c echo.Context) error {
	scheduleID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	seats, err := s.bookings.BookedSeats(c.Request().Context(), scheduleID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, bookedSeatsResponse{ScheduleID: scheduleID, BookedSeats: seats})
}
