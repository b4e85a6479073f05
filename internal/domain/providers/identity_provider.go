package providers

import (
	"context"
)

// TokenVerifier resolves a bearer token to the caller's user identity.
// Token issuance lives with the external identity provider; this service
// only verifies.
type TokenVerifier interface {
	// Verify returns the user id the token was issued for, or an error
	// when the token is invalid or expired.
	Verify(ctx context.Context, token string) (string, error)
}
