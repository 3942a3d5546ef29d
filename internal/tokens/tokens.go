package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/openlibro/library-api/internal/models"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"

	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var ErrInvalidClaims = errors.New("token missing required claims")

// Claims is the payload of both token kinds. TokenVersion is a pointer so
// that a token missing the claim is rejected instead of defaulting to 0.
type Claims struct {
	UserID       uint   `json:"user_id"`
	Kind         string `json:"type"`
	TokenVersion *int   `json:"token_version"`
	jwt.RegisteredClaims
}

func (c *Claims) validate() error {
	if c.UserID == 0 {
		return fmt.Errorf("%w: user_id", ErrInvalidClaims)
	}
	if c.Kind != KindAccess && c.Kind != KindRefresh {
		return fmt.Errorf("%w: type", ErrInvalidClaims)
	}
	if c.TokenVersion == nil || *c.TokenVersion < 0 {
		return fmt.Errorf("%w: token_version", ErrInvalidClaims)
	}
	if c.ID == "" {
		return fmt.Errorf("%w: jti", ErrInvalidClaims)
	}
	if c.ExpiresAt == nil {
		return fmt.Errorf("%w: exp", ErrInvalidClaims)
	}
	return nil
}

type Issuer struct {
	Secret []byte
}

// Issue mints a signed token for the user with a fresh jti. The embedded
// token_version is the user's version at issuance time.
func (i *Issuer) Issue(user *models.User, kind string) (string, error) {
	ttl := AccessTTL
	if kind == KindRefresh {
		ttl = RefreshTTL
	}

	version := user.TokenVersion
	now := time.Now()
	claims := Claims{
		UserID:       user.ID,
		Kind:         kind,
		TokenVersion: &version,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.Secret)
}

// Decode verifies the signature and expiry and checks every required claim,
// rejecting tokens with missing or mistyped fields. Expiry failures are
// reported as jwt.ErrTokenExpired, everything else as a generic parse error.
func Decode(tokenStr string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	if err := claims.validate(); err != nil {
		return nil, err
	}
	return &claims, nil
}
