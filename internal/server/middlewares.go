package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/framecraft/framecraft/internal/config"
)

const adminLoginPath = "/admin/login"

// AdminAuth guards /admin with HTTP basic auth. The login path stays open,
// and an unconfigured console answers 500 rather than running unprotected.
func (s *Server) AdminAuth() echo.MiddlewareFunc {
	basic := middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: "Admin",
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, adminLoginPath)
		},
		Validator: func(user, pass string, c echo.Context) (bool, error) {
			if subtle.ConstantTimeCompare([]byte(user), []byte(s.adminUser)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(s.adminPass)) != 1 {
				return false, nil
			}
			ctx := context.WithValue(c.Request().Context(), config.CTX_KEY_ADMIN_USER, user)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Request().Header.Set(config.HEADER_KEY_X_ADMIN_USER, user)
			return true, nil
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := basic(next)
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, adminLoginPath) {
				return next(c)
			}
			if s.adminUser == "" || s.adminPass == "" {
				return c.String(http.StatusInternalServerError, "Admin auth not configured")
			}
			return guarded(c)
		}
	}
}
