package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openlibro/library-api/internal/hash"
	"github.com/openlibro/library-api/internal/logging"
	"github.com/openlibro/library-api/internal/models"
	"github.com/openlibro/library-api/internal/repo"
	"github.com/openlibro/library-api/internal/revocation"
	"github.com/openlibro/library-api/internal/tokens"
)

type AuthService struct {
	Repo      repo.GormRepo
	Blacklist revocation.Store
	Issuer    *tokens.Issuer
	Validator *Validator
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if name == "" {
		name = "User"
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         "user",
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			l.Warn("register_failed", "reason", "email_taken")
		}
		return nil, err
	}

	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

// CreateAdmin bootstraps the single admin account. It refuses whenever an
// admin row already exists, whatever the payload.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.create_admin")

	// The admin-exists check runs first so a second bootstrap attempt is
	// refused whatever the payload looks like.
	exists, err := s.Repo.AdminExists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		l.Warn("create_admin_failed", "reason", "admin_exists")
		return nil, ErrAdminExists
	}

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if name == "" {
		name = "Admin"
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	admin := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         "admin",
	}
	if err := s.Repo.CreateUser(ctx, admin); err != nil {
		return nil, err
	}

	l.Info("create_admin_success", "user_id", admin.ID)
	return admin, nil
}

// Login checks the credentials and issues a fresh token pair stamped with the
// user's current token_version. The response never reveals whether the email
// exists or the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.Issuer.Issue(user, tokens.KindAccess)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.Issuer.Issue(user, tokens.KindRefresh)
	if err != nil {
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(tokens.AccessTTL.Seconds()),
	}, nil
}

// Logout blacklists the presented access token and, when supplied, the
// refresh token, each for its remaining lifetime. Tokens that fail to decode
// are skipped silently so that logout always succeeds from the caller's
// perspective.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	for _, tokenStr := range []string{accessToken, refreshToken} {
		if tokenStr == "" {
			continue
		}
		claims, err := tokens.Decode(tokenStr, s.Issuer.Secret)
		if err != nil {
			continue
		}
		remaining := time.Until(claims.ExpiresAt.Time)
		if remaining <= 0 {
			continue
		}
		if err := s.Blacklist.Revoke(ctx, claims.ID, remaining); err != nil {
			l.Error("logout_failed", "reason", "cannot revoke token", "error", err)
			return fmt.Errorf("revoke token: %w", err)
		}
	}

	l.Info("logout_success")
	return nil
}

// LogoutAll bumps the user's token_version. Refresh tokens issued before this
// moment fail their next version check; live access tokens stay valid until
// natural expiry.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) (int, error) {
	l := logging.FromContext(ctx).With("svc", "auth.logout_all")

	version, err := s.Repo.IncrementTokenVersion(ctx, userID)
	if err != nil {
		return 0, err
	}

	l.Info("logout_all_success", "user_id", userID, "token_version", version)
	return version, nil
}

// Refresh validates the refresh token and issues a new access token. The
// refresh token itself is not rotated; it stays valid until it expires or is
// revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	user, _, err := s.Validator.Validate(ctx, refreshToken, tokens.KindRefresh)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.Issuer.Issue(user, tokens.KindAccess)
	if err != nil {
		return nil, err
	}

	l.Info("refresh_success", "user_id", user.ID)
	return &LoginResult{
		AccessToken: accessToken,
		ExpiresIn:   int(tokens.AccessTTL.Seconds()),
	}, nil
}
