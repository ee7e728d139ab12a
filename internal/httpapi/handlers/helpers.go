package handlers

import (
	"errors"
	"net/http"
	"strings"

	"redbird/internal/service"

	"github.com/labstack/echo/v4"
)

// serviceError maps service failures onto HTTP status codes. Infrastructure
// failures are logged server side and reported to the caller as a generic
// 500 so nothing about the database or bucket leaks out.
func (h *Handler) serviceError(err error) error {
	var compErr *service.CompensationError
	switch {
	case errors.Is(err, service.ErrMissingField), errors.Is(err, service.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &compErr):
		// The two backing systems may now disagree; unlike other internal
		// failures the caller has to know this one is not self-healing.
		h.logger.Printf("compensation failure: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError,
			"the operation failed and automatic cleanup also failed; manual cleanup may be required")
	default:
		h.logger.Printf("internal error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
