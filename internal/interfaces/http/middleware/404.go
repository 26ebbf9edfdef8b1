package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// NoRouteMatched answers paths the bridge does not serve, and known paths hit
// with the wrong method, with a bare status code. The error handler never
// sees them, so no error body or log line is produced.
func NoRouteMatched() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if v, ok := err.(*echo.HTTPError); ok &&
				(v.Code == http.StatusNotFound || v.Code == http.StatusMethodNotAllowed) {
				return c.NoContent(v.Code)
			}
			return err
		}
	}
}
