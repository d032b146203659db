package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"busline/internal/application/services"
)

type locationRequest struct {
	BusID     int64  `json:"bus_id"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Speed     int    `json:"speed"`
}

func (s *Server) ReportLocationHandler(c echo.Context) error {
	id, _ := identity(c)

	var req locationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	loc, err := s.tracking.ReportLocation(c.Request().Context(), id, services.ReportLocationParams{
		BusID:     req.BusID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Speed:     req.Speed,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, loc)
}

func (s *Server) LatestLocationHandler(c echo.Context) error {
	busID, err := pathID(c, "busId")
	if err != nil {
		return err
	}

	loc, err := s.tracking.LatestLocation(c.Request().Context(), busID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, loc)
}
