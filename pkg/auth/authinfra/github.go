package authinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	oauth2github "golang.org/x/oauth2/github"

	"github.com/poacpm/api/pkg/auth"
)

const defaultAPIBase = "https://api.github.com"

// GitHubClient implements auth.ProfileClient against the GitHub OAuth and
// REST APIs.
type GitHubClient struct {
	oauthConfig *oauth2.Config
	apiBase     string
	httpClient  *http.Client
}

// Option customizes a GitHubClient.
type Option func(*GitHubClient)

// WithAPIBase overrides the REST API base URL.
func WithAPIBase(base string) Option {
	return func(c *GitHubClient) { c.apiBase = base }
}

// WithEndpoint overrides the OAuth token endpoint.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(c *GitHubClient) { c.oauthConfig.Endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client used for REST calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *GitHubClient) { c.httpClient = client }
}

// NewGitHubClient creates a provider client for a GitHub OAuth app.
func NewGitHubClient(clientID, clientSecret string, opts ...Option) *GitHubClient {
	c := &GitHubClient{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Exchange trades the authorization code for an access token.
func (c *GitHubClient) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("github token exchange failed: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("github returned an empty access token")
	}
	return token.AccessToken, nil
}

// Profile fetches the authenticated user's profile.
func (c *GitHubClient) Profile(ctx context.Context, token string) (*auth.ProviderProfile, error) {
	var payload struct {
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.get(ctx, token, "/user", &payload); err != nil {
		return nil, err
	}
	if payload.Login == "" {
		return nil, errors.New("github profile missing login")
	}

	// GitHub allows an unset display name; the handle stands in so the
	// stored name is never empty.
	name := payload.Name
	if name == "" {
		name = payload.Login
	}

	return &auth.ProviderProfile{
		UserName:  payload.Login,
		Name:      name,
		AvatarURL: payload.AvatarURL,
	}, nil
}

// Email fetches the user's verified primary email address.
func (c *GitHubClient) Email(ctx context.Context, token string) (string, error) {
	var payload []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := c.get(ctx, token, "/user/emails", &payload); err != nil {
		return "", err
	}

	for _, e := range payload {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range payload {
		if e.Verified {
			return e.Email, nil
		}
	}
	return "", errors.New("github account has no verified email")
}

func (c *GitHubClient) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github api response decode failed: %w", err)
	}
	return nil
}
