package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"busline/internal/domain/users"
)

const identityKey = "identity"

// authenticate resolves a bearer token into an identity when one is
// presented. Missing or malformed tokens do not fail the request here;
// requireAuth guards the routes that need a caller.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return next(c)
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return next(c)
		}

		id, err := s.tokens.Parse(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		c.Set(identityKey, id)
		return next(c)
	}
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := identity(c); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}

func identity(c echo.Context) (users.Identity, bool) {
	id, ok := c.Get(identityKey).(users.Identity)
	return id, ok
}
