package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/tiergate/internal/common"
	"github.com/labstack/echo/v4"
)

const adminEmailKey = "admin_email"

// adminAuth requires a bearer session token that belongs to an admin.
func (s *Server) adminAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return jsonError(c, http.StatusUnauthorized, "authorization required")
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			return jsonError(c, http.StatusUnauthorized, "invalid authorization format")
		}

		if s.authn == nil {
			return jsonError(c, http.StatusForbidden, "Forbidden")
		}

		admin, err := s.authn.Authenticate(token)
		if errors.Is(err, common.ErrForbidden) {
			return jsonError(c, http.StatusForbidden, "Forbidden")
		}
		if err != nil {
			return jsonError(c, http.StatusUnauthorized, "invalid token")
		}

		c.Set(adminEmailKey, admin)
		return next(c)
	}
}
