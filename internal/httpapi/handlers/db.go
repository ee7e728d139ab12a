package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Maintenance endpoints for the artist's admin tooling. Everything here
// sits behind the auth middleware.

func (h *Handler) Filenames(c echo.Context) error {
	names, err := h.svc.ListFilenames(c.Request().Context())
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, names)
}

func (h *Handler) TagNames(c echo.Context) error {
	tags, err := h.svc.ListTagNames(c.Request().Context())
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *Handler) Associations(c echo.Context) error {
	assocs, err := h.svc.ListAssociations(c.Request().Context())
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, assocs)
}

func (h *Handler) CreateTag(c echo.Context) error {
	var body struct {
		TagName string `json:"tagName"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	msg, err := h.svc.AddTag(c.Request().Context(), body.TagName)
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"message": msg})
}

func (h *Handler) DeleteTag(c echo.Context) error {
	msg, err := h.svc.RemoveTag(c.Request().Context(), c.Param("tagName"))
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": msg})
}

func (h *Handler) CreateAssociation(c echo.Context) error {
	var body struct {
		Filename string `json:"filename"`
		TagName  string `json:"tagName"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	msg, err := h.svc.AddAssociation(c.Request().Context(), body.Filename, body.TagName)
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"message": msg})
}

func (h *Handler) DeleteAssociation(c echo.Context) error {
	var body struct {
		Filename string `json:"filename"`
		TagName  string `json:"tagName"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	msg, err := h.svc.RemoveAssociation(c.Request().Context(), body.Filename, body.TagName)
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": msg})
}
