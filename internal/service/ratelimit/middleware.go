package ratelimit

import (
	pkghttp "StockPulse/pkg/http"

	"github.com/labstack/echo/v4"
)

// Middleware rejects callers that exhaust their bucket with a 429 envelope.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(pkghttp.ClientKey(c)) {
				c.Response().Header().Set("Retry-After", "1")
				return pkghttp.AppErrorResponse(c, pkghttp.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}
