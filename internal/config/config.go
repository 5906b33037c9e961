package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// OIDC providers accepted by OIDC_PROVIDER.
const (
	ProviderGeneric = "generic"
	ProviderGoogle  = "google"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT session configuration
	JWT JWTConfig

	// Login methods and OIDC provider
	Auth AuthConfig

	// CORS configuration for /api
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// SecureCookies marks session and flash cookies Secure. Enable behind TLS.
	SecureCookies bool
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxConns     int32
	MinConns     int32
	MaxLifetime  time.Duration
	ConnTimeout  time.Duration
	QueryTimeout time.Duration
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret     string
	SessionTTL time.Duration
}

// AuthConfig selects the login methods and configures the OIDC provider.
type AuthConfig struct {
	PasswordLoginEnabled bool
	OIDCEnabled          bool
	OIDCProvider         string
	OIDCClientID         string
	OIDCClientSecret     string
	OIDCAuthURL          string
	OIDCTokenURL         string
	OIDCUserInfoURL      string
	OIDCRedirectURL      string
	OIDCScopes           []string
	OIDCAdminGroup       string
	OIDCStaffGroup       string
	OIDCCreateUser       bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional; real environment variables win
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	config := FromEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// FromEnv builds a Config from the current environment without validating it.
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
			SecureCookies:   getBoolEnv("SECURE_COOKIES", false),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "packd"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxConns:     getInt32Env("DB_MAX_CONNS", 5),
			MinConns:     getInt32Env("DB_MIN_CONNS", 0),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", time.Hour),
			ConnTimeout:  getDurationEnv("DB_CONN_TIMEOUT", 10*time.Second),
			QueryTimeout: getDurationEnv("DB_QUERY_TIMEOUT", 30*time.Second),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			SessionTTL: getDurationEnv("JWT_SESSION_TTL", 14*24*time.Hour),
		},
		Auth: AuthConfig{
			PasswordLoginEnabled: getBoolEnv("PASSWORD_LOGIN_ENABLED", true),
			OIDCEnabled:          getBoolEnv("OIDC_ENABLED", false),
			OIDCProvider:         strings.ToLower(getEnv("OIDC_PROVIDER", ProviderGeneric)),
			OIDCClientID:         getEnv("OIDC_CLIENT_ID", ""),
			OIDCClientSecret:     getEnv("OIDC_CLIENT_SECRET", ""),
			OIDCAuthURL:          getEnv("OIDC_AUTHORIZATION_ENDPOINT", ""),
			OIDCTokenURL:         getEnv("OIDC_TOKEN_ENDPOINT", ""),
			OIDCUserInfoURL:      getEnv("OIDC_USERINFO_ENDPOINT", ""),
			OIDCRedirectURL:      getEnv("OIDC_REDIRECT_URL", "http://localhost:8080/accounts/oidc/callback/"),
			OIDCScopes:           getStringSliceEnv("OIDC_SCOPES", []string{"openid", "email", "profile"}),
			OIDCAdminGroup:       getEnv("OIDC_ADMIN_GROUP", "admin"),
			OIDCStaffGroup:       getEnv("OIDC_STAFF_GROUP", "staff"),
			OIDCCreateUser:       getBoolEnv("OIDC_CREATE_USER", true),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"*"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverMemory:
		log.Println("Warning: DB_DRIVER=memory, data is lost on restart")
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.Auth.OIDCProvider {
	case ProviderGeneric, ProviderGoogle:
	default:
		return fmt.Errorf("unknown OIDC_PROVIDER %q", c.Auth.OIDCProvider)
	}

	if c.Auth.OIDCEnabled && !c.IsOIDCConfigured() {
		// not fatal: the login page reports it
		log.Println("Warning: OIDC_ENABLED is set but the OIDC client is not fully configured. OIDC login will not work.")
	}

	if !c.Auth.PasswordLoginEnabled && !c.Auth.OIDCEnabled {
		log.Println("Warning: both password and OIDC login are disabled. Nobody can sign in.")
	}

	return nil
}

// DSN returns the database connection string
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	q.Set("connect_timeout", strconv.Itoa(int(d.ConnTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

// IsOIDCConfigured checks whether the selected OIDC provider has everything it needs.
func (c *Config) IsOIDCConfigured() bool {
	a := c.Auth
	if a.OIDCClientID == "" || a.OIDCClientSecret == "" || a.OIDCRedirectURL == "" {
		return false
	}
	if a.OIDCProvider == ProviderGoogle {
		return true
	}
	return a.OIDCAuthURL != "" && a.OIDCTokenURL != "" && a.OIDCUserInfoURL != ""
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt32Env(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intValue)
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var parts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return defaultValue
	}
	return parts
}
