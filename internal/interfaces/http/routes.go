package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"busline/internal/domain/trips"
)

func (s *Server) ListRoutesHandler(c echo.Context) error {
	routes, err := s.trips.Routes(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, routes)
}

type routeRequest struct {
	FromLocation      string `json:"from_location"`
	ToLocation        string `json:"to_location"`
	Distance          int    `json:"distance"`
	EstimatedDuration int    `json:"estimated_duration"`
}

func (s *Server) CreateRouteHandler(c echo.Context) error {
	id, _ := identity(c)

	var req routeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	route, err := s.trips.CreateRoute(c.Request().Context(), id, trips.Route{
		FromLocation:      req.FromLocation,
		ToLocation:        req.ToLocation,
		DistanceKm:        req.Distance,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, route)
}

func (s *Server) RouteSchedulesHandler(c echo.Context) error {
	routeID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	schedules, err := s.trips.SchedulesForRoute(c.Request().Context(), routeID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, schedules)
}
