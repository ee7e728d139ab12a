package httpapi

import (
	"log"
	"net/http"

	"redbird/internal/auth"
	"redbird/internal/config"
	"redbird/internal/httpapi/handlers"
	"redbird/internal/httpapi/middlewares"
	"redbird/internal/ratelimit"
	"redbird/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type API struct {
	cfg     config.Config
	auth    *auth.Authenticator
	handler *handlers.Handler
}

func New(cfg config.Config, svc *service.Service, authn *auth.Authenticator, logger *log.Logger) *API {
	return &API{
		cfg:     cfg,
		auth:    authn,
		handler: handlers.New(cfg, svc, authn, logger),
	}
}

func (a *API) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: a.cfg.CORSAllowedOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderAccept,
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			"x-api-key",
		},
		ExposeHeaders: []string{
			"RateLimit-Limit",
			"RateLimit-Remaining",
			"RateLimit-Reset",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		MaxAge: 600,
	}))
	e.Use(middlewares.NewRateLimitMiddleware(ratelimit.Config{
		Window: a.cfg.RateLimitWindow,
		Max:    a.cfg.RateLimitMax,
	}))

	a.registerRoutes(e)
	return e
}
