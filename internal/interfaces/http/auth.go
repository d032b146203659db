package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"busline/internal/application/services"
	"busline/internal/domain/users"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

func (s *Server) RegisterHandler(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.users.Register(c.Request().Context(), services.RegisterParams{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     users.Role(req.Role),
	})
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.tokens.Issue(users.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.users.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.tokens.Issue(users.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) CurrentUserHandler(c echo.Context) error {
	id, _ := identity(c)

	user, err := s.users.User(c.Request().Context(), id.UserID)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}
