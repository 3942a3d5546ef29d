package service

import "errors"

// Auth failure taxonomy. Handlers map these to HTTP statuses; anything
// outside this list is a collaborator failure and surfaces as a 500.
var (
	ErrUnauthenticated    = errors.New("missing bearer token")
	ErrMalformed          = errors.New("invalid token")
	ErrExpired            = errors.New("token expired")
	ErrWrongKind          = errors.New("wrong token kind")
	ErrRevoked            = errors.New("token revoked")
	ErrUnknownUser        = errors.New("user no longer exists")
	ErrStaleVersion       = errors.New("token version is stale")
	ErrForbidden          = errors.New("not enough rights")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAdminExists        = errors.New("admin already exists")
	ErrValidation         = errors.New("validation failed")
)

// IsAuthError reports whether err belongs to the 401 family.
func IsAuthError(err error) bool {
	for _, target := range []error{
		ErrUnauthenticated, ErrMalformed, ErrExpired, ErrWrongKind,
		ErrRevoked, ErrUnknownUser, ErrStaleVersion,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
