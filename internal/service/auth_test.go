package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openlibro/library-api/internal/models"
	"github.com/openlibro/library-api/internal/repo"
	"github.com/openlibro/library-api/internal/revocation"
	"github.com/openlibro/library-api/internal/tokens"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Book{}, &models.Loan{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	gormRepo := repo.GormRepo{DB: initTestDB(t)}
	blacklist := revocation.NewMemoryStore()
	secret := []byte("test-jwt-secret")

	return &AuthService{
		Repo:      gormRepo,
		Blacklist: blacklist,
		Issuer:    &tokens.Issuer{Secret: secret},
		Validator: &Validator{
			Repo:      gormRepo,
			Blacklist: blacklist,
			Secret:    secret,
		},
	}
}

func TestRegisterThenLogin(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "alice@test.com", "Secret123")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	assert.Equal(t, "user", user.Role)
	assert.Equal(t, 0, user.TokenVersion)
	assert.NotEqual(t, "Secret123", user.PasswordHash)

	res, err := svc.Login(ctx, "alice@test.com", "Secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, 900, res.ExpiresIn)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "dup@test.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other", "dup@test.com", "pw2")
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.ErrEmailTaken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@test.com", "Secret123")
	require.NoError(t, err)

	// Unknown email and wrong password return the same failure so callers
	// cannot enumerate accounts.
	_, errUnknown := svc.Login(ctx, "nobody@test.com", "Secret123")
	_, errWrongPw := svc.Login(ctx, "alice@test.com", "wrong")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestValidate_AccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "alice@test.com", "pw")
	require.NoError(t, err)

	user, claims, err := svc.Validator.Validate(ctx, res.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, tokens.KindAccess, claims.Kind)
}

func TestValidate_WrongKind(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "alice@test.com", "pw")
	require.NoError(t, err)

	_, _, err = svc.Validator.Validate(ctx, res.RefreshToken, tokens.KindAccess)
	assert.ErrorIs(t, err, ErrWrongKind)

	_, _, err = svc.Validator.Validate(ctx, res.AccessToken, tokens.KindRefresh)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestValidate_UnknownUser(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "alice@test.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Repo.DB.Delete(&models.User{}, user.ID).Error)

	_, _, err = svc.Validator.Validate(ctx, res.AccessToken, tokens.KindAccess)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestLogout_RevokesPresentedTokens(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "alice@test.com", "pw")
	require.NoError(t, err)

	_, _, err = svc.Validator.Validate(ctx, res.AccessToken, tokens.KindAccess)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.AccessToken, res.RefreshToken))

	_, _, err = svc.Validator.Validate(ctx, res.AccessToken, tokens.KindAccess)
	assert.ErrorIs(t, err, ErrRevoked)

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestLogout_Idempotent(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "alice@test.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.AccessToken, res.RefreshToken))
	require.NoError(t, svc.Logout(ctx, res.AccessToken, res.RefreshToken))
}

func TestLogout_UndecodableTokensIgnored(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, "garbage", "more garbage"))
	require.NoError(t, svc.Logout(ctx, "", ""))
}

func TestRefresh_IssuesFreshAccessToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "alice@test.com", "pw")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)
	assert.Equal(t, 900, refreshed.ExpiresIn)

	oldClaims, err := tokens.Decode(res.AccessToken, svc.Issuer.Secret)
	require.NoError(t, err)
	newClaims, err := tokens.Decode(refreshed.AccessToken, svc.Issuer.Secret)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.ID, newClaims.ID)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "alice@test.com", "pw")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestLogoutAll_StalesRefreshKeepsAccess(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "alice@test.com", "pw")
	require.NoError(t, err)

	version, err := svc.LogoutAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	// Old refresh token predates the bump and must be rejected.
	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrStaleVersion)

	// The live access token keeps working until natural expiry.
	_, _, err = svc.Validator.Validate(ctx, res.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
}

func TestLogoutAll_NewLoginWorksAfterBump(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)

	_, err = svc.LogoutAll(ctx, user.ID)
	require.NoError(t, err)

	res, err := svc.Login(ctx, "alice@test.com", "pw")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
}

func TestCreateAdmin_OnlyOnce(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "Boss", "admin@test.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Role)

	_, err = svc.CreateAdmin(ctx, "Other", "other@test.com", "different")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestCreateAdmin_ExistsBeatsValidation(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.CreateAdmin(ctx, "Boss", "admin@test.com", "pw")
	require.NoError(t, err)

	// Even an invalid payload gets the admin-exists refusal.
	_, err = svc.CreateAdmin(ctx, "", "", "")
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestRegisterAndLogin_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "empty email", email: "", password: "pw"},
		{name: "empty password", email: "a@test.com", password: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Register(ctx, "X", tt.email, tt.password)
			assert.ErrorIs(t, err, ErrValidation)

			_, err = svc.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestFullSessionScenario(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "A", "a@x.com", "pw")
	require.NoError(t, err)

	login, err := svc.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	a1, r1 := login.AccessToken, login.RefreshToken

	refreshed, err := svc.Refresh(ctx, r1)
	require.NoError(t, err)
	a2 := refreshed.AccessToken
	require.NotEqual(t, a1, a2)

	_, err = svc.LogoutAll(ctx, user.ID)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, r1)
	assert.ErrorIs(t, err, ErrStaleVersion)

	// A2 was issued before the bump but is an access token, so it still
	// passes the authenticated gate until it expires.
	_, _, err = svc.Validator.Validate(ctx, a2, tokens.KindAccess)
	require.NoError(t, err)
}

func TestIncrementTokenVersion_Advances(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		version, err := svc.LogoutAll(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, i, version)
	}
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "alice@test.com", "pw")
	require.NoError(t, err)

	expired := issueWithExpiry(t, svc.Issuer.Secret, user, -time.Minute)
	_, _, err = svc.Validator.Validate(ctx, expired, tokens.KindAccess)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestLogout_ExpiredTokenSkipsBlacklist(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user := &models.User{ID: 7, TokenVersion: 0}
	expired := issueWithExpiry(t, svc.Issuer.Secret, user, -time.Minute)

	// Decoding fails on expiry, so logout ignores the token entirely.
	require.NoError(t, svc.Logout(ctx, expired, ""))
}

func issueWithExpiry(t *testing.T, secret []byte, user *models.User, ttl time.Duration) string {
	t.Helper()

	version := user.TokenVersion
	claims := tokens.Claims{
		UserID:       user.ID,
		Kind:         tokens.KindAccess,
		TokenVersion: &version,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "expired-jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return tokenStr
}
