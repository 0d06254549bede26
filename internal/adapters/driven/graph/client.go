// Package graph is the Microsoft Graph adapter. It resolves the
// directory object IDs found in indexed permission fields back to
// human-readable groups and members.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/core/ports/driven"
	"github.com/arclight-labs/kbctl/internal/logger"
)

// DefaultBaseURL is the Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Ensure Client implements the interface.
var _ driven.DirectoryAPI = (*Client)(nil)

// Client calls the directory API with a delegated token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a directory client around the delegated token. The
// token is injected per-session; this client never refreshes it.
func NewClient(token *oauth2.Token) *Client {
	base := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(token))
	base.Timeout = 30 * time.Second
	return &Client{
		baseURL:    DefaultBaseURL,
		httpClient: base,
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
func NewClientWithBaseURL(token *oauth2.Token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

// Group fetches a group by object ID. A 404 surfaces as
// domain.ErrNotFound: the usual cause is a permission value that is not
// a directory object at all.
func (c *Client) Group(ctx context.Context, id string) (*domain.Group, error) {
	var group struct {
		ID              string   `json:"id"`
		DisplayName     string   `json:"displayName"`
		Mail            string   `json:"mail"`
		SecurityEnabled bool     `json:"securityEnabled"`
		GroupTypes      []string `json:"groupTypes"`
	}

	path := "/groups/" + id + "?$select=id,displayName,mail,securityEnabled,groupTypes"
	if err := c.get(ctx, path, &group); err != nil {
		return nil, err
	}

	return &domain.Group{
		ID:              group.ID,
		DisplayName:     group.DisplayName,
		Mail:            group.Mail,
		SecurityEnabled: group.SecurityEnabled,
		GroupTypes:      group.GroupTypes,
	}, nil
}

// GroupMembers lists all members of a group, following @odata.nextLink
// pagination until the listing is exhausted.
func (c *Client) GroupMembers(ctx context.Context, id string) ([]domain.GroupMember, error) {
	url := c.baseURL + "/groups/" + id + "/members?$select=id,displayName,mail,userPrincipalName"

	var members []domain.GroupMember
	for url != "" {
		var page struct {
			NextLink string `json:"@odata.nextLink"`
			Value    []struct {
				ID                string `json:"id"`
				DisplayName       string `json:"displayName"`
				Mail              string `json:"mail"`
				UserPrincipalName string `json:"userPrincipalName"`
			} `json:"value"`
		}
		if err := c.getURL(ctx, url, &page); err != nil {
			return nil, err
		}

		for _, m := range page.Value {
			members = append(members, domain.GroupMember{
				ID:                m.ID,
				DisplayName:       m.DisplayName,
				Mail:              m.Mail,
				UserPrincipalName: m.UserPrincipalName,
			})
		}
		url = page.NextLink
	}

	logger.Debug("group %s has %d members", id, len(members))
	return members, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.getURL(ctx, c.baseURL+path, out)
}

func (c *Client) getURL(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read directory response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("directory object: %w", domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return &domain.RemoteAPIError{
			Resource:   url,
			Action:     "directory lookup",
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode directory response: %w", err)
	}
	return nil
}
