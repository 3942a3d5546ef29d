package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openlibro/library-api/internal/logging"
	"github.com/openlibro/library-api/internal/mykafka"
	"github.com/openlibro/library-api/internal/repo"
	"github.com/openlibro/library-api/internal/service"
)

type AuthHTTP struct {
	Svc      *service.AuthService
	Producer *mykafka.Producer
}

func authHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "email already exists")
	case errors.Is(err, service.ErrAdminExists):
		return echo.NewHTTPError(http.StatusBadRequest, "admin already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case service.IsAuthError(err):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return authHTTPError(err)
	}

	event := map[string]interface{}{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	}
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(user.ID), event); err != nil {
		l.Error("kafka_publish_error", "error", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user_id": user.ID,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return authHTTPError(err)
	}

	event := map[string]interface{}{
		"type":  "user_login",
		"email": req.Email,
	}
	if err := h.Producer.PublishEvent(ctx, "user_events", req.Email, event); err != nil {
		l.Error("kafka_publish_error", "error", err)
	}

	l.Info("login_successful")
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"expires_in":    res.ExpiresIn,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	// Missing or invalid body is fine, logout works without it.
	_ = c.Bind(&req)

	accessToken, _ := c.Get("access_token").(string)
	if err := h.Svc.Logout(ctx, accessToken, req.RefreshToken); err != nil {
		return authHTTPError(err)
	}

	l.Info("logout_successful")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}

func (h *AuthHTTP) LogoutAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout_all")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrUnauthenticated.Error())
	}

	version, err := h.Svc.LogoutAll(ctx, userID)
	if err != nil {
		return authHTTPError(err)
	}

	event := map[string]interface{}{
		"type":    "logout_all",
		"user_id": userID,
	}
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(userID), event); err != nil {
		l.Error("kafka_publish_error", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token_version": version,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		l.Warn("refresh_error", "status", 400)
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return authHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": res.AccessToken,
		"expires_in":   res.ExpiresIn,
	})
}

func (h *AuthHTTP) CreateAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_create_admin")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("create_admin_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	admin, err := h.Svc.CreateAdmin(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return authHTTPError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user_id": admin.ID,
	})
}
