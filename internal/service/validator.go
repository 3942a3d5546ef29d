package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openlibro/library-api/internal/models"
	"github.com/openlibro/library-api/internal/repo"
	"github.com/openlibro/library-api/internal/revocation"
	"github.com/openlibro/library-api/internal/tokens"
)

// Validator reconstructs token validity on every check: signature and expiry,
// then the blacklist, then the user record, then (for refresh tokens) the
// token_version snapshot. Access tokens skip the version check and stay
// usable for their remaining lifetime after a logout-all.
type Validator struct {
	Repo      repo.GormRepo
	Blacklist revocation.Store
	Secret    []byte
}

// Validate checks tokenStr and returns the resolved user together with the
// decoded claims. requiredKind may be empty to accept either kind.
func (v *Validator) Validate(ctx context.Context, tokenStr, requiredKind string) (*models.User, *tokens.Claims, error) {
	claims, err := tokens.Decode(tokenStr, v.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, ErrExpired
		}
		return nil, nil, ErrMalformed
	}

	if requiredKind != "" && claims.Kind != requiredKind {
		return nil, nil, ErrWrongKind
	}

	revoked, err := v.Blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return nil, nil, ErrRevoked
	}

	user, err := v.Repo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, nil, ErrUnknownUser
		}
		return nil, nil, fmt.Errorf("user lookup: %w", err)
	}

	if claims.Kind == tokens.KindRefresh && *claims.TokenVersion != user.TokenVersion {
		return nil, nil, ErrStaleVersion
	}

	return user, claims, nil
}
