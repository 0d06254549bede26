package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// fakeJWT builds an unsigned three-part token with the given audience.
func fakeJWT(t *testing.T, audience string) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload, err := json.Marshal(map[string]string{"aud": audience})
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

// fakeProvider simulates the identity provider's device-code endpoints.
// pollResponses is consumed one element per token poll; the last element
// repeats once exhausted.
type fakeProvider struct {
	t             *testing.T
	expiresIn     int
	interval      int
	pollResponses []string
	polls         atomic.Int32
}

func (f *fakeProvider) start() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/v2.0/devicecode", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, r.ParseForm())
		assert.Equal(f.t, "client-123", r.Form.Get("client_id"))
		assert.NotEmpty(f.t, r.Form.Get("scope"))
		json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "dev-code",
			"user_code":        "ABCD-1234",
			"verification_uri": "https://example.com/devicelogin",
			"expires_in":       f.expiresIn,
			"interval":         f.interval,
			"message":          "Go to https://example.com/devicelogin and enter ABCD-1234",
		})
	})
	mux.HandleFunc("/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, r.ParseForm())
		assert.Equal(f.t, "urn:ietf:params:oauth:grant-type:device_code", r.Form.Get("grant_type"))
		assert.Equal(f.t, "dev-code", r.Form.Get("device_code"))

		n := int(f.polls.Add(1)) - 1
		if n >= len(f.pollResponses) {
			n = len(f.pollResponses) - 1
		}
		body := f.pollResponses[n]
		if body != "" && body[0] == '{' {
			var probe map[string]any
			if json.Unmarshal([]byte(body), &probe) == nil {
				if _, isErr := probe["error"]; isErr {
					w.WriteHeader(http.StatusBadRequest)
				}
			}
		}
		w.Write([]byte(body))
	})
	server := httptest.NewServer(mux)
	f.t.Cleanup(server.Close)
	return server
}

func testAuthenticator(t *testing.T, authority string) *DeviceCodeAuthenticator {
	t.Helper()
	a, err := NewDeviceCodeAuthenticator("tenant-1", "client-123")
	require.NoError(t, err)
	a.Authority = authority
	a.Out = &bytes.Buffer{}
	a.slowDownStep = 20 * time.Millisecond
	a.minInterval = 0
	return a
}

func tokenJSON(t *testing.T, accessToken string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
	require.NoError(t, err)
	return string(data)
}

func TestTokenPollsUntilApproved(t *testing.T) {
	jwt := fakeJWT(t, "https://search.azure.com")
	provider := &fakeProvider{
		t:         t,
		expiresIn: 60,
		interval:  0,
		pollResponses: []string{
			`{"error":"authorization_pending"}`,
			`{"error":"authorization_pending"}`,
			tokenJSON(t, jwt),
		},
	}
	server := provider.start()

	token, err := testAuthenticator(t, server.URL).Token(context.Background(), DefaultScope)
	require.NoError(t, err)
	assert.Equal(t, jwt, token.AccessToken)
	assert.Equal(t, int32(3), provider.polls.Load())
	assert.True(t, token.Expiry.After(time.Now()))
}

func TestTokenPrintsSignInInstruction(t *testing.T) {
	provider := &fakeProvider{
		t:             t,
		expiresIn:     60,
		pollResponses: []string{tokenJSON(t, fakeJWT(t, "https://search.azure.com"))},
	}
	server := provider.start()

	a := testAuthenticator(t, server.URL)
	out := &bytes.Buffer{}
	a.Out = out

	_, err := a.Token(context.Background(), DefaultScope)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ABCD-1234")
}

func TestTokenSlowDownGrowsInterval(t *testing.T) {
	provider := &fakeProvider{
		t:         t,
		expiresIn: 60,
		interval:  0,
		pollResponses: []string{
			`{"error":"slow_down"}`,
			tokenJSON(t, fakeJWT(t, "https://search.azure.com")),
		},
	}
	server := provider.start()

	start := time.Now()
	_, err := testAuthenticator(t, server.URL).Token(context.Background(), DefaultScope)
	require.NoError(t, err)

	// The second poll must wait at least the grown interval.
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, int32(2), provider.polls.Load())
}

func TestTokenFloorsOmittedPollInterval(t *testing.T) {
	// A provider that omits interval must not be polled in a hot loop;
	// the configured minimum applies instead.
	provider := &fakeProvider{
		t:         t,
		expiresIn: 60,
		interval:  0,
		pollResponses: []string{
			`{"error":"authorization_pending"}`,
			tokenJSON(t, fakeJWT(t, "https://search.azure.com")),
		},
	}
	server := provider.start()

	a := testAuthenticator(t, server.URL)
	a.minInterval = 30 * time.Millisecond

	start := time.Now()
	_, err := a.Token(context.Background(), DefaultScope)
	require.NoError(t, err)

	// Two polls, each preceded by at least the floored interval.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, int32(2), provider.polls.Load())
}

func TestNewAuthenticatorDefaultsPollInterval(t *testing.T) {
	a, err := NewDeviceCodeAuthenticator("tenant-1", "client-123")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, a.minInterval)
}

func TestTokenDeniedByUser(t *testing.T) {
	provider := &fakeProvider{
		t:             t,
		expiresIn:     60,
		pollResponses: []string{`{"error":"authorization_declined"}`},
	}
	server := provider.start()

	_, err := testAuthenticator(t, server.URL).Token(context.Background(), DefaultScope)
	assert.ErrorIs(t, err, domain.ErrAuthDenied)
}

func TestTokenExpiredCode(t *testing.T) {
	provider := &fakeProvider{
		t:             t,
		expiresIn:     60,
		pollResponses: []string{`{"error":"expired_token"}`},
	}
	server := provider.start()

	_, err := testAuthenticator(t, server.URL).Token(context.Background(), DefaultScope)
	assert.ErrorIs(t, err, domain.ErrAuthTimeout)
}

func TestTokenLocalExpiryDeadline(t *testing.T) {
	// The provider never answers with a terminal state; polling must stop
	// at the provider-declared expiry rather than looping forever.
	provider := &fakeProvider{
		t:             t,
		expiresIn:     0,
		pollResponses: []string{`{"error":"authorization_pending"}`},
	}
	server := provider.start()

	_, err := testAuthenticator(t, server.URL).Token(context.Background(), DefaultScope)
	assert.ErrorIs(t, err, domain.ErrAuthTimeout)
}

func TestTokenContextCancellation(t *testing.T) {
	provider := &fakeProvider{
		t:             t,
		expiresIn:     600,
		interval:      1,
		pollResponses: []string{`{"error":"authorization_pending"}`},
	}
	server := provider.start()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := testAuthenticator(t, server.URL).Token(ctx, DefaultScope)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenAudienceMismatchIsConfigError(t *testing.T) {
	provider := &fakeProvider{
		t:             t,
		expiresIn:     60,
		pollResponses: []string{tokenJSON(t, fakeJWT(t, "https://graph.microsoft.com"))},
	}
	server := provider.start()

	_, err := testAuthenticator(t, server.URL).Token(context.Background(), DefaultScope)
	require.Error(t, err)
	assert.True(t, domain.IsConfig(err))
	assert.Contains(t, err.Error(), "graph.microsoft.com")
}

func TestNewAuthenticatorEnumeratesMissingSettings(t *testing.T) {
	_, err := NewDeviceCodeAuthenticator("", "")
	require.Error(t, err)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Problems, 2)
}

func TestCheckAudienceVariants(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		scope   string
		wantErr bool
	}{
		{"exact match", fakeJWT(t, "https://search.azure.com"), DefaultScope, false},
		{"api prefix form", fakeJWT(t, "api://search.azure.com"), DefaultScope, false},
		{"mismatch", fakeJWT(t, "https://management.azure.com"), DefaultScope, true},
		{"opaque token skipped", "not-a-jwt", DefaultScope, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkAudience(tt.token, tt.scope)
			if tt.wantErr {
				assert.True(t, domain.IsConfig(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
