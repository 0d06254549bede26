package driven

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenProvider obtains a delegated user token for a given scope.
// Implementations are interactive (device-code flow); the returned token
// represents the end user's own permissions and lives only for the
// current session.
type TokenProvider interface {
	// Token acquires an access token for the scope. It blocks until the
	// user completes sign-in, the provider-declared code expiry passes
	// (domain.ErrAuthTimeout), the user declines (domain.ErrAuthDenied),
	// or ctx is cancelled.
	Token(ctx context.Context, scope string) (*oauth2.Token, error)
}
