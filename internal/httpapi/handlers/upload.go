package handlers

import (
	"fmt"
	"io"
	"net/http"

	"redbird/internal/auth"
	"redbird/internal/service"

	"github.com/labstack/echo/v4"
)

// Upload publishes a new piece: the image goes to the bucket, the
// metadata and tags to the database, atomically from the caller's point
// of view.
func (h *Handler) Upload(c echo.Context) error {
	if claims, ok := auth.GetClaims(c); ok {
		h.logger.Printf("upload requested by %s", claims.Subject)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}
	if fileHeader.Size > h.cfg.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d byte limit", h.cfg.MaxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d byte limit", h.cfg.MaxUploadBytes))
	}

	msg, err := h.svc.Publish(c.Request().Context(), service.PublishInput{
		Filename:    fileHeader.Filename,
		Bytes:       data,
		Description: c.FormValue("description"),
		AltText:     c.FormValue("altText"),
		Tags:        splitTags(c.FormValue("tags")),
	})
	if err != nil {
		return h.serviceError(err)
	}

	return c.JSON(http.StatusCreated, map[string]any{"message": msg})
}

// DeleteUpload retracts a piece: metadata first, then the blob.
func (h *Handler) DeleteUpload(c echo.Context) error {
	if claims, ok := auth.GetClaims(c); ok {
		h.logger.Printf("retract of %s requested by %s", c.Param("filename"), claims.Subject)
	}

	msg, err := h.svc.Retract(c.Request().Context(), c.Param("filename"))
	if err != nil {
		return h.serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": msg})
}
