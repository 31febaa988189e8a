package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// claimsContextKey is the echo context key holding authenticated claims.
const claimsContextKey = "auth.claims"

// Middleware returns an echo middleware that requires a valid bearer token
// and stores its claims on the request context.
func Middleware(m *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
			}
			claims, err := m.ParseToken(strings.TrimSpace(tokenString))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom extracts the authenticated claims stored by Middleware.
func ClaimsFrom(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	return claims, ok
}
