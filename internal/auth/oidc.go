package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleOAuth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"packd/internal/config"
)

// ErrOIDCNotConfigured is returned when delegated login is used without a usable client.
var ErrOIDCNotConfigured = errors.New("OIDC login is not configured")

// OIDC runs the authorization-code flow against the configured provider and
// returns the provider's userinfo claims.
type OIDC struct {
	oauth2Config *oauth2.Config
	provider     string
	userInfoURL  string
}

// NewOIDC builds a client from the auth configuration. It returns nil when
// delegated login is disabled or incomplete.
func NewOIDC(cfg *config.Config) *OIDC {
	if !cfg.Auth.OIDCEnabled || !cfg.IsOIDCConfigured() {
		return nil
	}
	a := cfg.Auth

	oauth2Config := &oauth2.Config{
		ClientID:     a.OIDCClientID,
		ClientSecret: a.OIDCClientSecret,
		RedirectURL:  a.OIDCRedirectURL,
		Scopes:       a.OIDCScopes,
	}
	if a.OIDCProvider == config.ProviderGoogle {
		oauth2Config.Endpoint = google.Endpoint
		oauth2Config.Scopes = []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		}
	} else {
		oauth2Config.Endpoint = oauth2.Endpoint{
			AuthURL:  a.OIDCAuthURL,
			TokenURL: a.OIDCTokenURL,
		}
	}

	return &OIDC{
		oauth2Config: oauth2Config,
		provider:     a.OIDCProvider,
		userInfoURL:  a.OIDCUserInfoURL,
	}
}

// NewState returns a random value for the OAuth state parameter.
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL is the provider URL the browser is sent to.
func (o *OIDC) AuthCodeURL(state string) string {
	return o.oauth2Config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token and fetches the user's claims.
func (o *OIDC) Exchange(ctx context.Context, code string) (map[string]any, error) {
	if o == nil {
		return nil, ErrOIDCNotConfigured
	}
	token, err := o.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	if o.provider == config.ProviderGoogle {
		return o.googleClaims(ctx, token)
	}
	return o.userInfoClaims(ctx, token)
}

// userInfoClaims reads the standard OIDC userinfo endpoint.
func (o *OIDC) userInfoClaims(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.oauth2Config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch userinfo: status %d: %s", resp.StatusCode, body)
	}

	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return claims, nil
}

// googleClaims maps the Google userinfo service onto OIDC claim names. Google has
// no usernames, so the email address stands in for preferred_username.
func (o *OIDC) googleClaims(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	service, err := googleOAuth2.NewService(ctx, option.WithTokenSource(o.oauth2Config.TokenSource(ctx, token)))
	if err != nil {
		return nil, err
	}

	userInfo, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch google userinfo: %w", err)
	}

	claims := map[string]any{
		"sub":                userInfo.Id,
		"preferred_username": userInfo.Email,
		"email":              userInfo.Email,
		"given_name":         userInfo.GivenName,
		"family_name":        userInfo.FamilyName,
		"name":               userInfo.Name,
		"picture":            userInfo.Picture,
	}
	if userInfo.VerifiedEmail != nil {
		claims["email_verified"] = *userInfo.VerifiedEmail
	}
	return claims, nil
}
