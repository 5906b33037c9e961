package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packd/internal/config"
	"packd/internal/middleware"
)

func enableOIDC(c *config.Config, providerURL string) {
	c.Auth.OIDCEnabled = true
	c.Auth.OIDCProvider = config.ProviderGeneric
	c.Auth.OIDCClientID = "packd"
	c.Auth.OIDCClientSecret = "secret"
	c.Auth.OIDCAuthURL = providerURL + "/authorize"
	c.Auth.OIDCTokenURL = providerURL + "/token"
	c.Auth.OIDCUserInfoURL = providerURL + "/userinfo"
	c.Auth.OIDCRedirectURL = "http://example.com/accounts/oidc/callback/"
	c.Auth.OIDCScopes = []string{"openid", "profile", "email"}
}

// newProvider serves the token and userinfo endpoints of a fake identity provider.
func newProvider(t *testing.T, claims map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(claims)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// startOIDC begins a login and returns the state and the cookies the browser keeps.
func startOIDC(t *testing.T, env *testEnv, next string) (string, []*http.Cookie) {
	t.Helper()
	rec := env.page(http.MethodGet, "/accounts/oidc/authenticate/?next="+url.QueryEscape(next), "", nil)
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/authorize", location.Path)
	assert.Equal(t, "packd", location.Query().Get("client_id"))
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	return state, rec.Result().Cookies()
}

func TestOIDC_CallbackCreatesUser(t *testing.T) {
	provider := newProvider(t, map[string]any{
		"sub":                "42",
		"preferred_username": "carol",
		"email":              "carol@example.com",
		"given_name":         "Carol",
		"family_name":        "Jones",
		"groups":             []string{"staff"},
	})
	env := setupTest(t, func(c *config.Config) { enableOIDC(c, provider.URL) })

	state, cookies := startOIDC(t, env, "/trips/")

	rec := env.page(http.MethodGet, "/accounts/oidc/callback/?code=good-code&state="+url.QueryEscape(state), "", nil, cookies...)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/trips/", rec.Header().Get("Location"))
	session := cookie(rec, middleware.SessionCookie)
	require.NotNil(t, session)

	u, err := env.store.GetUserByUsername(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", u.Email)
	assert.Equal(t, "Carol", u.FirstName)
	assert.True(t, u.IsStaff)
	assert.False(t, u.IsSuperuser)
	assert.False(t, u.HasPassword())

	rec = env.page(http.MethodGet, "/", session.Value, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOIDC_CallbackRejectsBadState(t *testing.T) {
	provider := newProvider(t, map[string]any{"preferred_username": "carol"})
	env := setupTest(t, func(c *config.Config) { enableOIDC(c, provider.URL) })

	_, cookies := startOIDC(t, env, "/")

	rec := env.page(http.MethodGet, "/accounts/oidc/callback/?code=good-code&state=forged", "", nil, cookies...)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, cookie(rec, middleware.SessionCookie))

	_, err := env.store.GetUserByUsername(context.Background(), "carol")
	assert.Error(t, err)
}

func TestOIDC_CallbackExchangeFailure(t *testing.T) {
	provider := newProvider(t, map[string]any{"preferred_username": "carol"})
	env := setupTest(t, func(c *config.Config) { enableOIDC(c, provider.URL) })

	state, cookies := startOIDC(t, env, "/")

	rec := env.page(http.MethodGet, "/accounts/oidc/callback/?code=bad-code&state="+url.QueryEscape(state), "", nil, cookies...)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, cookie(rec, middleware.SessionCookie))
}

func TestOIDC_NoImplicitRegistration(t *testing.T) {
	provider := newProvider(t, map[string]any{"preferred_username": "erin"})
	env := setupTest(t, func(c *config.Config) {
		enableOIDC(c, provider.URL)
		c.Auth.OIDCCreateUser = false
	})

	state, cookies := startOIDC(t, env, "/")

	rec := env.page(http.MethodGet, "/accounts/oidc/callback/?code=good-code&state="+url.QueryEscape(state), "", nil, cookies...)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, cookie(rec, middleware.SessionCookie))
}

func TestOIDC_ExternalNextIsDropped(t *testing.T) {
	provider := newProvider(t, map[string]any{"preferred_username": "carol"})
	env := setupTest(t, func(c *config.Config) { enableOIDC(c, provider.URL) })

	state, cookies := startOIDC(t, env, "//evil.example/")

	rec := env.page(http.MethodGet, "/accounts/oidc/callback/?code=good-code&state="+url.QueryEscape(state), "", nil, cookies...)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
