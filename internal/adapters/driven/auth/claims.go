package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// tokenClaims is the subset of JWT claims inspected locally. The token
// is never validated here; signature verification is the service's job.
// This check exists only to fail fast on a misconfigured app
// registration before the token is sent anywhere.
type tokenClaims struct {
	Audience string `json:"aud"`
}

// checkAudience verifies that a delegated token was minted for the
// resource the scope names. A mismatched audience means the client app
// is configured against the wrong API, which the search service would
// reject with an opaque 403; surfacing it as a ConfigError with the
// actual audience makes the fix obvious. Opaque (non-JWT) tokens are
// passed through unchecked.
func checkAudience(accessToken, scope string) error {
	claims, ok := decodeClaims(accessToken)
	if !ok {
		return nil
	}

	expected := strings.TrimSuffix(scope, "/.default")
	expected = strings.TrimSuffix(expected, "/")

	if claims.Audience == expected {
		return nil
	}
	// Some tenants mint v1 tokens with an api:// style audience for the
	// same resource; accept those too.
	if claims.Audience == "api://"+strings.TrimPrefix(expected, "https://") {
		return nil
	}

	return domain.NewConfigError(fmt.Sprintf(
		"token audience is %q but the target resource is %q; check the app registration's API permissions",
		claims.Audience, expected,
	))
}

// decodeClaims extracts the payload segment of a JWT without verifying
// it. Returns ok=false for anything that is not a three-part JWT.
func decodeClaims(token string) (*tokenClaims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, false
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}

	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, false
	}
	return &claims, true
}
