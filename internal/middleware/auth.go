package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openlibro/library-api/internal/service"
	"github.com/openlibro/library-api/internal/tokens"
)

// AuthMiddleware holds the two authorization gates. Both run the validator
// against the bearer access token; RequireAdmin additionally checks the role.
type AuthMiddleware struct {
	Validator *service.Validator
}

func NewAuthMiddleware(v *service.Validator) *AuthMiddleware {
	return &AuthMiddleware{Validator: v}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}

func (m *AuthMiddleware) authenticate(c echo.Context) error {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrUnauthenticated.Error())
	}

	user, _, err := m.Validator.Validate(c.Request().Context(), tokenStr, tokens.KindAccess)
	if err != nil {
		if service.IsAuthError(err) {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.Set("user", user)
	c.Set("user_id", user.ID)
	c.Set("role", user.Role)
	c.Set("access_token", tokenStr)
	return nil
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := m.authenticate(c); err != nil {
			return err
		}
		return next(c)
	}
}

func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := m.authenticate(c); err != nil {
			return err
		}
		if c.Get("role") != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, service.ErrForbidden.Error())
		}
		return next(c)
	}
}
