package middleware

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
)

const maxIdempotencyKeyLen = 128

// IdempotencyKey rejects requests whose header value is not a usable key:
// longer than 128 bytes or containing spaces or control characters.
// An absent header passes through.
func IdempotencyKey(header string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(header)
			if key == "" {
				return next(c)
			}
			if len(key) > maxIdempotencyKeyLen {
				return echo.NewHTTPError(http.StatusBadRequest, header+" is too long")
			}
			if strings.IndexFunc(key, func(r rune) bool {
				return unicode.IsSpace(r) || unicode.IsControl(r)
			}) >= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, header+" must not contain spaces")
			}
			return next(c)
		}
	}
}
