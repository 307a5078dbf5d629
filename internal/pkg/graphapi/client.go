package graphapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LarsBehrendt/SocialPulse/internal/pkg/env"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

var (
	// ErrNotConfigured means the app id/secret are missing from the environment
	ErrNotConfigured = errors.New("graph api credentials are not configured")
	// ErrNoAccessToken means the provider answered but granted no token,
	// i.e. the authorization code was invalid or has expired
	ErrNoAccessToken = errors.New("provider response contained no access token")
)

type Client struct {
	AppID       string
	AppSecret   string
	RedirectURI string

	BaseURL string

	HTTPClient *http.Client
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Page is one managed page the granted token can act on
type Page struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AccessToken string   `json:"access_token"`
	Category    string   `json:"category"`
	Tasks       []string `json:"tasks"`
}

type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Permission is one scope the user granted or declined on the consent screen
type Permission struct {
	Permission string `json:"permission"`
	Status     string `json:"status"`
}

func NewClientFromEnv() *Client {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	redirectURI := strings.TrimSpace(env.GetEnv("FB_REDIRECT_URI", ""))
	if redirectURI == "" && base != "" {
		redirectURI = base + "/connect/facebook/callback"
	}

	return &Client{
		AppID:       strings.TrimSpace(env.GetEnv("FB_APP_ID", "")),
		AppSecret:   strings.TrimSpace(env.GetEnv("FB_APP_SECRET", "")),
		RedirectURI: redirectURI,
		BaseURL:     strings.TrimRight(env.GetEnv("GRAPH_API_BASE_URL", defaultGraphBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether the server-held application credentials are present
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.AppID) != "" && strings.TrimSpace(c.AppSecret) != ""
}

// ExchangeCode trades an authorization code for a user access token.
// The Graph token endpoint takes the parameters as a query string.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("oauth code is required")
	}

	u, err := url.Parse(c.BaseURL + "/oauth/access_token")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("client_id", c.AppID)
	q.Set("client_secret", c.AppSecret)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("code", strings.TrimSpace(code))
	u.RawQuery = q.Encode()

	body, status, err := c.get(ctx, u.String(), "")
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		// The provider rejects bad/expired codes with an OAuth error body;
		// surface that as a missing token rather than an upstream outage.
		if gerr := parseGraphError(body); gerr != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoAccessToken, gerr)
		}
		return nil, fmt.Errorf("token exchange failed: status=%d body=%s", status, string(body))
	}

	var out TokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, ErrNoAccessToken
	}
	return &out, nil
}

// ListPages fetches the pages the token grants access to
func (c *Client) ListPages(ctx context.Context, accessToken string) ([]Page, error) {
	body, status, err := c.get(ctx, c.BaseURL+"/me/accounts", accessToken)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("pages request failed: status=%d body=%s", status, string(body))
	}

	var out struct {
		Data []Page `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []Page{}
	}
	return out.Data, nil
}

// GetIdentity fetches the basic identity behind a token. Diagnostic only.
func (c *Client) GetIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	body, status, err := c.get(ctx, c.BaseURL+"/me?fields=id,name", accessToken)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("identity request failed: status=%d body=%s", status, string(body))
	}

	var out Identity
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPermissions fetches the scopes the user actually granted. Diagnostic only.
func (c *Client) GetPermissions(ctx context.Context, accessToken string) ([]Permission, error) {
	body, status, err := c.get(ctx, c.BaseURL+"/me/permissions", accessToken)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("permissions request failed: status=%d body=%s", status, string(body))
	}

	var out struct {
		Data []Permission `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) get(ctx context.Context, rawURL, bearer string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return body, resp.StatusCode, nil
}

func parseGraphError(body []byte) string {
	var out struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return ""
	}
	return out.Error.Message
}
