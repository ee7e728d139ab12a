package handlers

import (
	"errors"
	"net/http"

	"redbird/internal/auth"

	"github.com/labstack/echo/v4"
)

// Login checks the artist's credentials and returns a session token for
// the admin tooling.
func (h *Handler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, err := h.auth.Login(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		h.logger.Printf("login failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{"token": token})
}
