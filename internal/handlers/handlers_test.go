package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packd/internal/auth"
	"packd/internal/config"
	"packd/internal/dto"
	"packd/internal/handlers"
	"packd/internal/middleware"
	"packd/internal/models"
	"packd/internal/repository/memory"
	"packd/internal/routes"
	"packd/internal/service"
	"packd/internal/web"
)

type testEnv struct {
	t        *testing.T
	cfg      *config.Config
	store    *memory.Store
	accounts *service.Accounts
	router   http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0"},
		JWT:    config.JWTConfig{Secret: "test-secret", SessionTTL: time.Hour},
		Auth: config.AuthConfig{
			PasswordLoginEnabled: true,
			OIDCProvider:         config.ProviderGeneric,
			OIDCAdminGroup:       "admin",
			OIDCStaffGroup:       "staff",
			OIDCCreateUser:       true,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowedHeaders: []string{"*"},
		},
	}
}

// setupTest builds the full router over an in-memory store.
func setupTest(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	store := memory.New()
	categories := service.NewCategories(store)
	trips := service.NewTrips(store)
	accounts := service.NewAccounts(store, service.AccountsConfig{
		AdminGroup:  cfg.Auth.OIDCAdminGroup,
		StaffGroup:  cfg.Auth.OIDCStaffGroup,
		CreateUsers: cfg.Auth.OIDCCreateUser,
	})
	renderer := web.NewRenderer()

	router := routes.SetupRoutes(routes.Handlers{
		Auth:       handlers.NewAuthHandler(accounts, cfg),
		Accounts:   handlers.NewAccountsHandler(accounts, auth.NewOIDC(cfg), cfg, renderer),
		Categories: handlers.NewCategoriesHandler(categories, service.NewImporter(store)),
		Trips:      handlers.NewTripsHandler(trips),
		Pages:      handlers.NewPagesHandler(categories, trips, cfg, renderer),
		Health:     handlers.NewHealthHandler(store),
	}, cfg)

	return &testEnv{t: t, cfg: cfg, store: store, accounts: accounts, router: router}
}

// user registers a local user and returns a session token for it.
func (e *testEnv) user(name string) (*models.User, string) {
	e.t.Helper()
	u, err := e.accounts.Register(context.Background(), service.NewUser{Username: name, Password: "password123"})
	require.NoError(e.t, err)
	token, err := middleware.GenerateToken(u, &e.cfg.JWT)
	require.NoError(e.t, err)
	return u, token
}

// api sends a JSON request with a bearer token.
func (e *testEnv) api(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// page sends a browser request carrying the session cookie.
func (e *testEnv) page(method, path, token string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var rdr io.Reader
	if form != nil {
		rdr = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, rdr)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	env := setupTest(t)

	for path, status := range map[string]string{"/healthz": "ok", "/livez": "alive", "/readyz": "ready"} {
		rec := env.api(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, status, decode[map[string]any](t, rec)["status"])
	}

	rec := env.api(http.MethodGet, "/readyz", "", nil)
	body := decode[dto.HealthResponse](t, rec)
	assert.Equal(t, map[string]string{"store": "ok"}, body.Checks)
}
