package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *API) registerRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"ok":        true,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := e.Group("/api")
	a.registerPublicRoutes(api)
	a.registerAuthRoutes(api)
}

// Public gallery reads, consumed by the portfolio frontend.
func (a *API) registerPublicRoutes(api *echo.Group) {
	api.GET("/art/all-art", a.handler.AllArt)
	api.GET("/art/tags/:tagName", a.handler.ArtByTag)
	api.POST("/users/login", a.handler.Login)
}

// Everything that mutates, plus the raw catalog listings, needs the
// backend API key or a session token.
func (a *API) registerAuthRoutes(api *echo.Group) {
	authed := api.Group("")
	authed.Use(a.auth.Middleware)

	authed.PUT("/upload", a.handler.Upload)
	authed.DELETE("/upload/:filename", a.handler.DeleteUpload)

	authed.GET("/db/filenames", a.handler.Filenames)
	authed.GET("/db/tags", a.handler.TagNames)
	authed.GET("/db/associations", a.handler.Associations)
	authed.POST("/db/tags", a.handler.CreateTag)
	authed.DELETE("/db/tags/:tagName", a.handler.DeleteTag)
	authed.POST("/db/associations", a.handler.CreateAssociation)
	authed.DELETE("/db/associations", a.handler.DeleteAssociation)
}
