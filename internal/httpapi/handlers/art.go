package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AllArt returns every published piece with its public URL and metadata.
func (h *Handler) AllArt(c echo.Context) error {
	assets, err := h.svc.ListAssets(c.Request().Context())
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, assets)
}

// ArtByTag returns the pieces carrying the named tag. An unknown tag is
// not an error; it just matches nothing.
func (h *Handler) ArtByTag(c echo.Context) error {
	assets, err := h.svc.ListAssetsByTag(c.Request().Context(), c.Param("tagName"))
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, assets)
}
