// Package auth implements the OAuth device-code grant against the
// identity provider. It yields a delegated user token representing the
// end user's own permissions, which the query path forwards to the
// search service for document-level ACL evaluation.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/core/ports/driven"
	"github.com/arclight-labs/kbctl/internal/logger"
)

const (
	// DefaultScope requests a token for the search service.
	DefaultScope = "https://search.azure.com/.default"

	// GraphScope requests a token for the directory API.
	GraphScope = "https://graph.microsoft.com/.default"

	// defaultSlowDownStep is how much the poll interval grows on a
	// slow_down response, per RFC 8628.
	defaultSlowDownStep = 5 * time.Second

	// defaultPollInterval applies when the provider omits interval.
	// RFC 8628 section 3.2 defines 5 seconds as the default; polling
	// faster than that hammers the token endpoint.
	defaultPollInterval = 5 * time.Second
)

// Ensure DeviceCodeAuthenticator implements the interface.
var _ driven.TokenProvider = (*DeviceCodeAuthenticator)(nil)

// DeviceCodeAuthenticator obtains delegated tokens interactively.
// Tokens are returned to the caller and never persisted: a delegated
// credential must not outlive the session that approved it.
type DeviceCodeAuthenticator struct {
	// Authority is the identity provider base URL for the tenant,
	// e.g. "https://login.microsoftonline.com/{tenant}".
	Authority string

	// ClientID is the public client application ID.
	ClientID string

	// Out receives the user-facing sign-in instruction. Defaults to stderr.
	Out io.Writer

	httpClient   *http.Client
	slowDownStep time.Duration
	minInterval  time.Duration
}

// NewDeviceCodeAuthenticator creates an authenticator for the tenant and
// client configured for this process.
func NewDeviceCodeAuthenticator(tenantID, clientID string) (*DeviceCodeAuthenticator, error) {
	var problems []string
	if tenantID == "" {
		problems = append(problems, "missing ENTRA_TENANT_ID")
	}
	if clientID == "" {
		problems = append(problems, "missing ENTRA_CLIENT_ID")
	}
	if len(problems) > 0 {
		return nil, &domain.ConfigError{Problems: problems}
	}

	return &DeviceCodeAuthenticator{
		Authority:    "https://login.microsoftonline.com/" + tenantID,
		ClientID:     clientID,
		Out:          os.Stderr,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		slowDownStep: defaultSlowDownStep,
		minInterval:  defaultPollInterval,
	}, nil
}

// deviceCodeResponse is the initiation response.
type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	Message         string `json:"message"`
}

// tokenResponse is the token-poll response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// Token runs the device-code flow for the scope. It blocks until the
// user signs in, the code expires (domain.ErrAuthTimeout), the user
// declines (domain.ErrAuthDenied), or ctx is cancelled. Cancellation
// between polls leaves no partially-authenticated state behind because
// nothing is stored until the provider issues the token.
func (a *DeviceCodeAuthenticator) Token(ctx context.Context, scope string) (*oauth2.Token, error) {
	if scope == "" {
		scope = DefaultScope
	}

	flow, err := a.initiate(ctx, scope)
	if err != nil {
		return nil, err
	}

	message := flow.Message
	if message == "" {
		message = fmt.Sprintf("To sign in, open %s and enter the code %s.", flow.VerificationURI, flow.UserCode)
	}
	fmt.Fprintln(a.out(), message)

	token, err := a.poll(ctx, flow)
	if err != nil {
		return nil, err
	}

	if err := checkAudience(token.AccessToken, scope); err != nil {
		return nil, err
	}
	return token, nil
}

func (a *DeviceCodeAuthenticator) out() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return os.Stderr
}

// initiate requests a user code and verification URL.
func (a *DeviceCodeAuthenticator) initiate(ctx context.Context, scope string) (*deviceCodeResponse, error) {
	data := url.Values{}
	data.Set("client_id", a.ClientID)
	data.Set("scope", scope)

	resp, err := a.postForm(ctx, a.Authority+"/oauth2/v2.0/devicecode", data)
	if err != nil {
		return nil, fmt.Errorf("initiate device code flow: %w", err)
	}

	var flow deviceCodeResponse
	if err := json.Unmarshal(resp, &flow); err != nil {
		return nil, fmt.Errorf("decode device code response: %w", err)
	}
	if flow.DeviceCode == "" || flow.UserCode == "" {
		return nil, fmt.Errorf("identity provider returned no device code")
	}

	logger.Debug("device code issued, expires in %ds, poll interval %ds", flow.ExpiresIn, flow.Interval)
	return &flow, nil
}

// poll exchanges the device code for a token at the provider-specified
// interval. The interval grows on slow_down; polling stops at the
// provider-declared expiry rather than running indefinitely.
func (a *DeviceCodeAuthenticator) poll(ctx context.Context, flow *deviceCodeResponse) (*oauth2.Token, error) {
	interval := time.Duration(flow.Interval) * time.Second
	if interval < a.minInterval {
		interval = a.minInterval
	}
	expiry := time.Now().Add(time.Duration(flow.ExpiresIn) * time.Second)

	data := url.Values{}
	data.Set("grant_type", "urn:ietf:params:oauth:grant-type:device_code")
	data.Set("client_id", a.ClientID)
	data.Set("device_code", flow.DeviceCode)

	for {
		if !time.Now().Before(expiry) {
			return nil, domain.ErrAuthTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		body, err := a.postForm(ctx, a.Authority+"/oauth2/v2.0/token", data)
		if err != nil {
			return nil, fmt.Errorf("poll token endpoint: %w", err)
		}

		var tok tokenResponse
		if err := json.Unmarshal(body, &tok); err != nil {
			return nil, fmt.Errorf("decode token response: %w", err)
		}

		switch tok.Error {
		case "":
			return &oauth2.Token{
				AccessToken: tok.AccessToken,
				TokenType:   tok.TokenType,
				Expiry:      time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
			}, nil
		case "authorization_pending":
			// User has not finished signing in yet.
		case "slow_down":
			interval += a.slowDownStep
			logger.Debug("provider asked to slow down, interval now %s", interval)
		case "authorization_declined", "access_denied":
			return nil, domain.ErrAuthDenied
		case "expired_token":
			return nil, domain.ErrAuthTimeout
		default:
			return nil, fmt.Errorf("token acquisition failed: %s: %s", tok.Error, tok.Description)
		}
	}
}

// postForm sends a form-encoded POST and returns the body. Device-flow
// error responses arrive with 4xx status but a JSON body that the caller
// inspects, so status is not treated as fatal here.
func (a *DeviceCodeAuthenticator) postForm(ctx context.Context, endpoint string, data url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
