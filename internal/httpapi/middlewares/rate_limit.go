package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"redbird/internal/ratelimit"

	"github.com/labstack/echo/v4"
)

func NewRateLimitMiddleware(cfg ratelimit.Config) echo.MiddlewareFunc {
	limiter := ratelimit.New(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			result := limiter.Take(time.Now().UTC(), clientIP(c))
			setRateLimitHeaders(c.Response().Header(), result)

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.ResetIn, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}

func clientIP(c echo.Context) string {
	ip := strings.TrimSpace(c.RealIP())
	if ip == "" {
		ip = clientIPFromRemoteAddr(c.Request().RemoteAddr)
	}
	if ip == "" {
		ip = "unknown"
	}
	return ip
}

func setRateLimitHeaders(header http.Header, result ratelimit.Result) {
	limit := strconv.Itoa(result.Limit)
	remaining := strconv.Itoa(result.Remaining)
	resetEpoch := strconv.FormatInt(result.ResetAt, 10)
	resetDelay := strconv.FormatInt(result.ResetIn, 10)

	header.Set("X-RateLimit-Limit", limit)
	header.Set("X-RateLimit-Remaining", remaining)
	header.Set("X-RateLimit-Reset", resetEpoch)

	header.Set("RateLimit-Limit", limit)
	header.Set("RateLimit-Remaining", remaining)
	header.Set("RateLimit-Reset", resetDelay)
}

func clientIPFromRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(remoteAddr))
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return strings.TrimSpace(host)
}
