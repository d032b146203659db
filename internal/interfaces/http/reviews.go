package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"busline/internal/domain/fleet"
)

type reviewRequest struct {
	BusID      int64  `json:"bus_id"`
	ScheduleID int64  `json:"schedule_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (s *Server) CreateReviewHandler(c echo.Context) error {
	id, _ := identity(c)

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	review, err := s.reviews.CreateReview(c.Request().Context(), id, fleet.Review{
		BusID:      req.BusID,
		ScheduleID: req.ScheduleID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, review)
}

func (s *Server) ListReviewsHandler(c echo.Context) error {
	busID, err := pathID(c, "busId")
	if err != nil {
		return err
	}

	reviews, err := s.reviews.ReviewsForBus(c.Request().Context(), busID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, reviews)
}
