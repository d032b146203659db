package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"busline/internal/domain/fleet"
	"busline/internal/repository"
)

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

type busRequest struct {
	Name       string          `json:"name"`
	BusNumber  string          `json:"bus_number"`
	Capacity   int             `json:"capacity"`
	HasAC      bool            `json:"has_ac"`
	HasWifi    bool            `json:"has_wifi"`
	HasUSB     bool            `json:"has_usb"`
	SeatLayout json.RawMessage `json:"seat_layout"`
}

func (s *Server) CreateBusHandler(c echo.Context) error {
	id, _ := identity(c)

	var req busRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	bus, err := s.fleet.CreateBus(c.Request().Context(), id, fleet.Bus{
		Name:       req.Name,
		BusNumber:  req.BusNumber,
		Capacity:   req.Capacity,
		HasAC:      req.HasAC,
		HasWifi:    req.HasWifi,
		HasUSB:     req.HasUSB,
		SeatLayout: req.SeatLayout,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, bus)
}

func (s *Server) ListBusesHandler(c echo.Context) error {
	id, _ := identity(c)

	buses, err := s.fleet.Buses(c.Request().Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, buses)
}

func (s *Server) GetBusHandler(c echo.Context) error {
	id, _ := identity(c)

	busID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	bus, err := s.fleet.Bus(c.Request().Context(), id, busID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, bus)
}

type busUpdateRequest struct {
	Name       *string         `json:"name"`
	BusNumber  *string         `json:"bus_number"`
	Capacity   *int            `json:"capacity"`
	HasAC      *bool           `json:"has_ac"`
	HasWifi    *bool           `json:"has_wifi"`
	HasUSB     *bool           `json:"has_usb"`
	SeatLayout json.RawMessage `json:"seat_layout"`
}

func (s *Server) UpdateBusHandler(c echo.Context) error {
	id, _ := identity(c)

	busID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req busUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	bus, err := s.fleet.UpdateBus(c.Request().Context(), id, busID, repository.BusUpdate{
		Name:       req.Name,
		BusNumber:  req.BusNumber,
		Capacity:   req.Capacity,
		HasAC:      req.HasAC,
		HasWifi:    req.HasWifi,
		HasUSB:     req.HasUSB,
		SeatLayout: req.SeatLayout,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, bus)
}

func (s *Server) DeleteBusHandler(c echo.Context) error {
	id, _ := identity(c)

	busID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := s.fleet.DeleteBus(c.Request().Context(), id, busID); err != nil {
		return s.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) BusDetailsHandler(c echo.Context) error {
	busID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	details, err := s.fleet.BusDetails(c.Request().Context(), busID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, details)
}
