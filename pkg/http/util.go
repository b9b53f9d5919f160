package http

import (
	xutil "StockPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// QueryInt reads an integer query param, clamped to [min, max].
func QueryInt(c echo.Context, name string, def, min, max int) int {
	v := ParseIntDefault(c.QueryParam(name), def)
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClientKey identifies the caller for per-client limits.
func ClientKey(c echo.Context) string {
	return c.RealIP()
}
