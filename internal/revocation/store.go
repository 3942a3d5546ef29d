package revocation

import (
	"context"
	"time"
)

// Store is the blacklist of revoked token identifiers. Entries carry a TTL
// equal to the remaining lifetime of the revoked token, so they expire
// exactly when the token itself would have.
type Store interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Clear(ctx context.Context, jti string) error
}
