package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PASSWORD_LOGIN_ENABLED", "")
	t.Setenv("OIDC_ENABLED", "")
	t.Setenv("DB_DRIVER", "")

	cfg := FromEnv()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.Auth.PasswordLoginEnabled)
	assert.False(t, cfg.Auth.OIDCEnabled)
	assert.Equal(t, "admin", cfg.Auth.OIDCAdminGroup)
	assert.Equal(t, "staff", cfg.Auth.OIDCStaffGroup)
	assert.True(t, cfg.Auth.OIDCCreateUser)
	assert.Equal(t, 14*24*time.Hour, cfg.JWT.SessionTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("PASSWORD_LOGIN_ENABLED", "false")
	t.Setenv("OIDC_ENABLED", "true")
	t.Setenv("OIDC_SCOPES", "openid, groups ,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.False(t, cfg.Auth.PasswordLoginEnabled)
	assert.True(t, cfg.Auth.OIDCEnabled)
	assert.Equal(t, []string{"openid", "groups"}, cfg.Auth.OIDCScopes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, int32(5), cfg.Database.MaxConns)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: DriverMemory},
			JWT:      JWTConfig{Secret: "s"},
			Auth:     AuthConfig{OIDCProvider: ProviderGeneric, PasswordLoginEnabled: true},
		}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.JWT.Secret = ""
	assert.ErrorContains(t, c.Validate(), "JWT_SECRET")

	c = base()
	c.Database.Driver = DriverPostgres
	assert.ErrorContains(t, c.Validate(), "DB_PASSWORD")

	c = base()
	c.Database.Driver = "sqlite"
	assert.Error(t, c.Validate())

	c = base()
	c.Auth.OIDCProvider = "keycloak"
	assert.Error(t, c.Validate())
}

func TestIsOIDCConfigured(t *testing.T) {
	c := &Config{Auth: AuthConfig{
		OIDCProvider:     ProviderGeneric,
		OIDCClientID:     "id",
		OIDCClientSecret: "secret",
		OIDCRedirectURL:  "http://localhost/accounts/oidc/callback/",
	}}
	assert.False(t, c.IsOIDCConfigured(), "generic provider needs endpoints")

	c.Auth.OIDCAuthURL = "https://idp/auth"
	c.Auth.OIDCTokenURL = "https://idp/token"
	c.Auth.OIDCUserInfoURL = "https://idp/userinfo"
	assert.True(t, c.IsOIDCConfigured())

	g := &Config{Auth: AuthConfig{
		OIDCProvider:     ProviderGoogle,
		OIDCClientID:     "id",
		OIDCClientSecret: "secret",
		OIDCRedirectURL:  "http://localhost/accounts/oidc/callback/",
	}}
	assert.True(t, g.IsOIDCConfigured())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		User:        "packd",
		Password:    "p@ss word",
		Host:        "db",
		Port:        "5432",
		Name:        "packd",
		SSLMode:     "disable",
		ConnTimeout: 10 * time.Second,
	}
	assert.Equal(t, "postgres://packd:p%40ss%20word@db:5432/packd?connect_timeout=10&sslmode=disable", d.DSN())
}
