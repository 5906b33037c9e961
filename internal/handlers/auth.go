package handlers

import (
	"net/http"

	"packd/internal/apperr"
	"packd/internal/config"
	"packd/internal/dto"
	"packd/internal/middleware"
	"packd/internal/models"
	"packd/internal/service"
	"packd/internal/utils"
)

// AuthHandler handles the JSON authentication endpoints
type AuthHandler struct {
	accounts *service.Accounts
	config   *config.Config
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(accounts *service.Accounts, cfg *config.Config) *AuthHandler {
	return &AuthHandler{accounts: accounts, config: cfg}
}

// Register handles user registration
// @Summary Register a new user
// @Description Create a local account with username, optional email, and password
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration data"
// @Success 201 {object} dto.AuthResponse "User created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Password login disabled"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.config.Auth.PasswordLoginEnabled {
		utils.WriteAppError(w, apperr.Unauthenticated("password login is disabled"))
		return
	}

	var req dto.RegisterRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return // Error already handled by DecodeJSONRequest
	}

	user, err := h.accounts.Register(r.Context(), service.NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	h.writeSession(w, http.StatusCreated, user)
}

// Login handles user login
// @Summary Log in with username and password
// @Description Returns a bearer token and also sets the session cookie
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Password login disabled"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.config.Auth.PasswordLoginEnabled {
		utils.WriteAppError(w, apperr.Unauthenticated("password login is disabled"))
		return
	}

	var req dto.LoginRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if req.Username == "" || req.Password == "" {
		utils.WriteAppError(w, apperr.Validation("username and password are required"))
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, user)
}

// Me returns the current user's account
// @Summary Get the current user
// @Tags authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 403 {object} dto.ErrorResponse "Unauthenticated"
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := currentUser(r)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	user, err := h.accounts.Get(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, status int, user *models.User) {
	token, err := middleware.GenerateToken(user, &h.config.JWT)
	if err != nil {
		utils.WriteAppError(w, apperr.Internal(err))
		return
	}
	middleware.SetSessionCookie(w, token, h.config)
	utils.WriteJSONResponse(w, status, dto.AuthResponse{
		User:  dto.NewUserResponse(user),
		Token: token,
	})
}
