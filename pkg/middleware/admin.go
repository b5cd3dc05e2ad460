package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin guards catalog mutations. When enabled is false it passes through,
// otherwise the request must carry "X-Role: admin".
func RequireAdmin(enabled bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !enabled {
				return next(c)
			}
			if c.Request().Header.Get("X-Role") != "admin" {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "admin role required"})
			}
			return next(c)
		}
	}
}
