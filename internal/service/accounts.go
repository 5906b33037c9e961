package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"packd/internal/apperr"
	"packd/internal/auth"
	"packd/internal/models"
	"packd/internal/repository"
)

const (
	usernameMaxLen    = 150
	passwordMinLength = 8
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// Claims are the userinfo claims returned by a delegated identity provider.
type Claims map[string]any

// String returns a string claim and whether it was present as a string.
func (c Claims) String(key string) (string, bool) {
	v, ok := c[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Groups returns the groups claim. Anything other than a list is treated as no groups.
func (c Claims) Groups() []string {
	switch v := c["groups"].(type) {
	case []string:
		return v
	case []any:
		groups := make([]string, 0, len(v))
		for _, g := range v {
			if s, ok := g.(string); ok {
				groups = append(groups, s)
			}
		}
		return groups
	default:
		return nil
	}
}

// AccountsConfig controls how delegated logins map onto local users.
type AccountsConfig struct {
	AdminGroup  string
	StaffGroup  string
	CreateUsers bool
}

// NewUser describes a local account.
type NewUser struct {
	Username    string
	Email       string
	Password    string
	IsStaff     bool
	IsSuperuser bool
}

// Accounts registers and authenticates users.
type Accounts struct {
	store repository.Store
	cfg   AccountsConfig
}

// NewAccounts creates an Accounts service
func NewAccounts(store repository.Store, cfg AccountsConfig) *Accounts {
	return &Accounts{store: store, cfg: cfg}
}

// Get returns a user by id.
func (s *Accounts) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// Register creates a local user with a password.
func (s *Accounts) Register(ctx context.Context, in NewUser) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperr.ValidationField("username", "username is required")
	}
	if utf8.RuneCountInString(username) > usernameMaxLen || !usernamePattern.MatchString(username) {
		return nil, apperr.ValidationField("username", "username may contain only letters, digits and @/./+/-/_ (max 150)")
	}
	if utf8.RuneCountInString(in.Password) < passwordMinLength {
		return nil, apperr.ValidationField("password", "password must be at least 8 characters")
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, apperr.ValidationField("username", "a user with that username already exists")
	} else if !apperr.Is(err, apperr.CodeNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := repository.Now()
	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		IsStaff:      in.IsStaff || in.IsSuperuser,
		IsSuperuser:  in.IsSuperuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username and password.
func (s *Accounts) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, apperr.InvalidCredentials()
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// SyncClaims maps a delegated login onto a local user. The user is matched by
// preferred_username; a missing user is created when allowed. Profile fields and
// staff/superuser flags are overwritten from the claims on every login.
func (s *Accounts) SyncClaims(ctx context.Context, claims Claims) (*models.User, error) {
	username, _ := claims.String("preferred_username")
	if username == "" {
		log.Printf("Warning: OIDC claims missing preferred_username")
	}

	var existing *models.User
	if username != "" {
		u, err := s.store.GetUserByUsername(ctx, username)
		switch {
		case err == nil:
			existing = u
		case !apperr.Is(err, apperr.CodeNotFound):
			return nil, err
		}
	}

	if existing != nil {
		return s.updateFromClaims(ctx, existing, claims)
	}
	if !s.cfg.CreateUsers {
		return nil, apperr.Unauthenticated("no account matches this login")
	}
	return s.createFromClaims(ctx, username, claims)
}

func (s *Accounts) createFromClaims(ctx context.Context, username string, claims Claims) (*models.User, error) {
	if username == "" {
		log.Printf("Error: cannot create user: preferred_username claim is missing")
		return nil, apperr.Unauthenticated("identity provider did not return a username")
	}

	email, _ := claims.String("email")
	first, _ := claims.String("given_name")
	last, _ := claims.String("family_name")

	now := repository.Now()
	u := &models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		FirstName: first,
		LastName:  last,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.syncGroups(u, claims)

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	log.Printf("Created new user from OIDC: %s", username)
	return u, nil
}

func (s *Accounts) updateFromClaims(ctx context.Context, u *models.User, claims Claims) (*models.User, error) {
	if v, ok := claims.String("email"); ok {
		u.Email = v
	}
	if v, ok := claims.String("given_name"); ok {
		u.FirstName = v
	}
	if v, ok := claims.String("family_name"); ok {
		u.LastName = v
	}
	s.syncGroups(u, claims)
	u.UpdatedAt = repository.Now()

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// syncGroups derives staff and superuser flags from group membership. Flags are
// revoked when the groups no longer grant them.
func (s *Accounts) syncGroups(u *models.User, claims Claims) {
	var inAdmin, inStaff bool
	for _, g := range claims.Groups() {
		if g == s.cfg.AdminGroup {
			inAdmin = true
		}
		if g == s.cfg.StaffGroup {
			inStaff = true
		}
	}
	u.IsSuperuser = inAdmin
	u.IsStaff = inStaff || inAdmin
	log.Printf("Synced groups for %s: is_staff=%t, is_superuser=%t", u.Username, u.IsStaff, u.IsSuperuser)
}
