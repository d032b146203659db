package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"busline/internal/application/services"
	"busline/internal/domain/bookings"
	"busline/internal/repository"
)

type errorResponse struct {
	Message string `json:"message"`
}

type seatConflictResponse struct {
	Message          string   `json:"message"`
	ConflictingSeats []string `json:"conflicting_seats"`
}

// respondError maps domain errors onto HTTP statuses. Anything it does
// not recognize is a 500 and gets logged with full detail; the client
// only ever sees a generic message for those.
func (s *Server) respondError(c echo.Context, err error) error {
	var conflict *bookings.SeatConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusBadRequest, seatConflictResponse{
			Message:          conflict.Error(),
			ConflictingSeats: conflict.Seats,
		})
	}

	var integrity *bookings.IntegrityError
	if errors.As(err, &integrity) {
		s.logger.Error().Err(err).Msg("booking integrity violation")
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrRouteExists),
		errors.Is(err, services.ErrReviewNotAllowed),
		errors.Is(err, bookings.ErrScheduleUnavailable),
		errors.Is(err, bookings.ErrNoSeatsSelected),
		errors.Is(err, bookings.ErrDuplicateSeats),
		errors.Is(err, bookings.ErrAlreadyCompleted),
		errors.Is(err, bookings.ErrNotConfirmed):
		return c.JSON(http.StatusBadRequest, errorResponse{Message: err.Error()})
	}

	s.logger.Error().Err(err).Msg("unhandled error")
	return c.JSON(http.StatusInternalServerError, errorResponse{Message: "internal server error"})
}
