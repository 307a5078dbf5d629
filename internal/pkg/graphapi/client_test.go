package graphapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		AppID:       "app-id",
		AppSecret:   "app-secret",
		RedirectURI: "https://dashboard.example.com/connect/facebook/callback",
		BaseURL:     baseURL,
		HTTPClient:  &http.Client{Timeout: 2 * time.Second},
	}
}

func TestExchangeCodeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/access_token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "app-id", q.Get("client_id"))
		assert.Equal(t, "app-secret", q.Get("client_secret"))
		assert.Equal(t, "abc123", q.Get("code"))
		assert.Equal(t, "https://dashboard.example.com/connect/facebook/callback", q.Get("redirect_uri"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "T1",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	tok, err := newTestClient(srv.URL).ExchangeCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "T1", tok.AccessToken)
	assert.Equal(t, 3600, tok.ExpiresIn)
}

func TestExchangeCodeInvalidCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "This authorization code has expired.",
				"type":    "OAuthException",
				"code":    100,
			},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ExchangeCode(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrNoAccessToken)
	assert.Contains(t, err.Error(), "authorization code has expired")
}

func TestExchangeCodeEmptyTokenField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token_type": "bearer"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ExchangeCode(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNoAccessToken)
}

func TestExchangeCodeNotConfigured(t *testing.T) {
	c := newTestClient("http://unused.invalid")
	c.AppSecret = ""

	_, err := c.ExchangeCode(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestListPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/accounts", r.URL.Path)
		assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "p1", "name": "Page One", "access_token": "PT1", "category": "Retail", "tasks": []string{"MESSAGING"}},
			},
		})
	}))
	defer srv.Close()

	pages, err := newTestClient(srv.URL).ListPages(context.Background(), "T1")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "p1", pages[0].ID)
	assert.Equal(t, "PT1", pages[0].AccessToken)
	assert.Equal(t, []string{"MESSAGING"}, pages[0].Tasks)
}

func TestListPagesEmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	pages, err := newTestClient(srv.URL).ListPages(context.Background(), "T1")
	require.NoError(t, err)
	assert.NotNil(t, pages)
	assert.Empty(t, pages)
}

func TestListPagesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListPages(context.Background(), "T1")
	assert.Error(t, err)
}

func TestGetPermissions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/permissions", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"permission": "pages_show_list", "status": "granted"},
				{"permission": "pages_messaging", "status": "declined"},
			},
		})
	}))
	defer srv.Close()

	perms, err := newTestClient(srv.URL).GetPermissions(context.Background(), "T1")
	require.NoError(t, err)
	require.Len(t, perms, 2)
	assert.Equal(t, "granted", perms[0].Status)
}

func TestExchangeCodeHonorsContextTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newTestClient(srv.URL).ExchangeCode(ctx, "abc123")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
