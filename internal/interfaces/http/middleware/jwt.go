package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-progress/internal/infrastructure/auth"
)

const bearerPrefix = "Bearer "

// ForwardToken adopt the session token presented by the UI as the token sent
// to the progress backend. Requests without Authorization keep the current one.
func ForwardToken(token *auth.BearerToken) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}
			if !strings.HasPrefix(header, bearerPrefix) {
				return c.NoContent(http.StatusUnauthorized)
			}
			raw := strings.TrimSpace(header[len(bearerPrefix):])
			if raw == "" {
				return c.NoContent(http.StatusUnauthorized)
			}
			if raw != token.Raw() {
				token.Set(raw)
			}
			if _, err := token.Value(); err != nil {
				return c.NoContent(http.StatusUnauthorized)
			}
			return next(c)
		}
	}
}
