package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"packd/internal/apperr"
	"packd/internal/auth"
	"packd/internal/config"
	"packd/internal/middleware"
	"packd/internal/models"
	"packd/internal/service"
	"packd/internal/utils"
	"packd/internal/web"
)

const (
	oidcStateCookie = "packd_oidc_state"
	oidcNextCookie  = "packd_oidc_next"
	oidcCookiePath  = "/accounts/oidc/"
	oidcPath        = "/accounts/oidc/authenticate/"
)

// AccountsHandler serves the login, registration and delegated login pages.
type AccountsHandler struct {
	accounts *service.Accounts
	oidc     *auth.OIDC
	config   *config.Config
	renderer *web.Renderer
}

// NewAccountsHandler creates a new AccountsHandler. oidc is nil when delegated
// login is disabled or not configured.
func NewAccountsHandler(accounts *service.Accounts, oidc *auth.OIDC, cfg *config.Config, renderer *web.Renderer) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, oidc: oidc, config: cfg, renderer: renderer}
}

func (h *AccountsHandler) configurationError() *apperr.Error {
	if h.config.Auth.OIDCEnabled {
		return apperr.Configuration("OIDC login is enabled but not configured. Set OIDC_CLIENT_ID, OIDC_CLIENT_SECRET and the provider endpoints.")
	}
	return apperr.Configuration("Password login is disabled and OIDC login is not enabled. Contact the administrator.")
}

func (h *AccountsHandler) loginPage(w http.ResponseWriter, r *http.Request, next string) web.LoginPage {
	return web.LoginPage{
		PageData:             web.PageData{Title: "Log in", Flashes: web.PopFlashes(w, r)},
		PasswordLoginEnabled: h.config.Auth.PasswordLoginEnabled,
		OIDCEnabled:          h.oidc != nil,
		Next:                 next,
	}
}

// renderConfigError shows the login page with a configuration message.
func (h *AccountsHandler) renderConfigError(w http.ResponseWriter, r *http.Request, next string) {
	page := h.loginPage(w, r, next)
	page.PasswordLoginEnabled = false
	page.ConfigError = h.configurationError().Message
	log.Printf("Warning: login unavailable: %s", page.ConfigError)
	h.renderer.Render(w, "login", page)
}

// Login handles GET/POST /accounts/login/
func (h *AccountsHandler) Login(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if _, ok := middleware.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, utils.SafeRedirect(r, next, "/"), http.StatusFound)
		return
	}

	if !h.config.Auth.PasswordLoginEnabled {
		if h.oidc == nil {
			h.renderConfigError(w, r, next)
			return
		}
		target := oidcPath
		if next != "" {
			target += "?next=" + url.QueryEscape(next)
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.renderer.Render(w, "login", h.loginPage(w, r, next))
	case http.MethodPost:
		h.passwordLogin(w, r, next)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AccountsHandler) passwordLogin(w http.ResponseWriter, r *http.Request, next string) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, web.PageData{}, apperr.Validation("invalid form data"))
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))

	user, err := h.accounts.Authenticate(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if !apperr.Is(err, apperr.CodeUnauthenticated) {
			h.renderer.RenderError(w, web.PageData{}, err)
			return
		}
		page := h.loginPage(w, r, next)
		page.Error = "Please enter a correct username and password."
		page.FormUsername = username
		h.renderer.Render(w, "login", page)
		return
	}

	if err := h.startSession(w, user); err != nil {
		h.renderer.RenderError(w, web.PageData{}, err)
		return
	}
	http.Redirect(w, r, utils.SafeRedirect(r, next, "/"), http.StatusFound)
}

// Register handles GET/POST /accounts/register/
func (h *AccountsHandler) Register(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if !h.config.Auth.PasswordLoginEnabled {
		http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
		return
	}

	page := web.RegisterPage{PageData: web.PageData{Title: "Register", Flashes: web.PopFlashes(w, r)}}

	switch r.Method {
	case http.MethodGet:
		h.renderer.Render(w, "register", page)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, page.PageData, apperr.Validation("invalid form data"))
		return
	}
	page.FormUsername = strings.TrimSpace(r.PostForm.Get("username"))
	page.FormEmail = strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password1")

	if password != r.PostForm.Get("password2") {
		page.Error = "The two password fields didn't match."
		h.renderer.Render(w, "register", page)
		return
	}

	user, err := h.accounts.Register(r.Context(), service.NewUser{
		Username: page.FormUsername,
		Email:    page.FormEmail,
		Password: password,
	})
	if err != nil {
		if !apperr.Is(err, apperr.CodeValidation) {
			h.renderer.RenderError(w, page.PageData, err)
			return
		}
		page.Error = apperr.From(err).Message
		h.renderer.Render(w, "register", page)
		return
	}

	if err := h.startSession(w, user); err != nil {
		h.renderer.RenderError(w, page.PageData, err)
		return
	}
	web.AddFlash(w, r, h.config.Server.SecureCookies, "success", "Welcome, "+user.Username+"!")
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles POST /accounts/logout/
func (h *AccountsHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	middleware.ClearSessionCookie(w, h.config)
	http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
}

// OIDCAuthenticate handles GET /accounts/oidc/authenticate/ and sends the
// browser to the identity provider.
func (h *AccountsHandler) OIDCAuthenticate(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if h.oidc == nil {
		h.renderConfigError(w, r, next)
		return
	}

	state := auth.NewState()
	h.setOIDCCookie(w, oidcStateCookie, state, 600)
	h.setOIDCCookie(w, oidcNextCookie, url.QueryEscape(utils.SafeRedirect(r, next, "/")), 600)
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
}

// OIDCCallback handles GET /accounts/oidc/callback/
func (h *AccountsHandler) OIDCCallback(w http.ResponseWriter, r *http.Request) {
	if h.oidc == nil {
		h.renderConfigError(w, r, "")
		return
	}

	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		log.Printf("Warning: OIDC provider returned error: %s", providerErr)
		page := h.loginPage(w, r, "")
		page.Error = "Single sign-on failed. Please try again."
		h.renderer.Render(w, "login", page)
		return
	}

	stateCookie, err := r.Cookie(oidcStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != q.Get("state") {
		h.renderer.RenderError(w, web.PageData{}, apperr.Unauthenticated("Login session expired or invalid. Please try again."))
		return
	}
	next := "/"
	if c, err := r.Cookie(oidcNextCookie); err == nil {
		if v, err := url.QueryUnescape(c.Value); err == nil {
			next = utils.SafeRedirect(r, v, "/")
		}
	}
	h.setOIDCCookie(w, oidcStateCookie, "", -1)
	h.setOIDCCookie(w, oidcNextCookie, "", -1)

	claims, err := h.oidc.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		log.Printf("Error: OIDC exchange failed: %v", err)
		h.renderer.RenderError(w, web.PageData{}, apperr.Unauthenticated("Single sign-on failed. Please try again."))
		return
	}

	user, err := h.accounts.SyncClaims(r.Context(), service.Claims(claims))
	if err != nil {
		h.renderer.RenderError(w, web.PageData{}, err)
		return
	}
	if err := h.startSession(w, user); err != nil {
		h.renderer.RenderError(w, web.PageData{}, err)
		return
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *AccountsHandler) startSession(w http.ResponseWriter, user *models.User) error {
	token, err := middleware.GenerateToken(user, &h.config.JWT)
	if err != nil {
		return apperr.Internal(err)
	}
	middleware.SetSessionCookie(w, token, h.config)
	return nil
}

func (h *AccountsHandler) setOIDCCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     oidcCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
