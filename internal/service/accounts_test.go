package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packd/internal/apperr"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	u, err := f.accounts.Register(ctx, NewUser{Username: "alice", Email: "a@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.True(t, u.HasPassword())
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	got, err := f.accounts.Authenticate(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.accounts.Authenticate(ctx, "alice", "wrong password")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
	_, err = f.accounts.Authenticate(ctx, "nobody", "correct horse")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))

	_, err = f.accounts.Register(ctx, NewUser{Username: "alice", Password: "another pass"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestRegisterValidation(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	for _, in := range []NewUser{
		{Username: "", Password: "long enough"},
		{Username: "has space", Password: "long enough"},
		{Username: "bob", Password: "short"},
	} {
		_, err := f.accounts.Register(ctx, in)
		assert.True(t, apperr.Is(err, apperr.CodeValidation), "%+v", in)
	}
}

func TestDelegatedUserCannotUsePassword(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	_, err := f.accounts.SyncClaims(ctx, Claims{"preferred_username": "carol"})
	require.NoError(t, err)

	_, err = f.accounts.Authenticate(ctx, "carol", "")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
}

func TestSyncClaimsCreatesUser(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	u, err := f.accounts.SyncClaims(ctx, Claims{
		"preferred_username": "dana",
		"email":              "dana@example.com",
		"given_name":         "Dana",
		"family_name":        "Scully",
		"groups":             []any{"staff", "users"},
	})
	require.NoError(t, err)
	assert.Equal(t, "dana", u.Username)
	assert.Equal(t, "dana@example.com", u.Email)
	assert.Equal(t, "Dana", u.FirstName)
	assert.Equal(t, "Scully", u.LastName)
	assert.True(t, u.IsStaff)
	assert.False(t, u.IsSuperuser)
	assert.False(t, u.HasPassword())

	stored, err := f.accounts.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsStaff)
}

func TestSyncClaimsUpdatesExisting(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	orig, err := f.accounts.Register(ctx, NewUser{Username: "erin", Email: "old@example.com", Password: "password1"})
	require.NoError(t, err)

	u, err := f.accounts.SyncClaims(ctx, Claims{
		"preferred_username": "erin",
		"given_name":         "Erin",
		"groups":             []any{"admin"},
	})
	require.NoError(t, err)
	assert.Equal(t, orig.ID, u.ID)
	assert.Equal(t, "old@example.com", u.Email, "absent claims keep stored values")
	assert.Equal(t, "Erin", u.FirstName)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsStaff)
	assert.True(t, u.HasPassword(), "local password survives a delegated login")

	// next login without groups revokes both flags
	u, err = f.accounts.SyncClaims(ctx, Claims{"preferred_username": "erin", "email": "new@example.com"})
	require.NoError(t, err)
	assert.False(t, u.IsSuperuser)
	assert.False(t, u.IsStaff)
	assert.Equal(t, "new@example.com", u.Email)

	stored, err := f.accounts.Get(ctx, orig.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsStaff)
	assert.Equal(t, "new@example.com", stored.Email)
}

func TestSyncGroups(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		groups    any
		staff     bool
		superuser bool
	}{
		{"admin", []any{"admin"}, true, true},
		{"staff", []any{"staff"}, true, false},
		{"both", []string{"staff", "admin"}, true, true},
		{"neither", []any{"users"}, false, false},
		{"not a list", "admin", false, false},
		{"absent", nil, false, false},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := Claims{"preferred_username": "u" + string(rune('a'+i))}
			if tt.groups != nil {
				claims["groups"] = tt.groups
			}
			u, err := f.accounts.SyncClaims(ctx, claims)
			require.NoError(t, err)
			assert.Equal(t, tt.staff, u.IsStaff)
			assert.Equal(t, tt.superuser, u.IsSuperuser)
		})
	}
}

func TestSyncClaimsWithoutUsername(t *testing.T) {
	f := setupTest(t)
	_, err := f.accounts.SyncClaims(context.Background(), Claims{"email": "x@example.com"})
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))
}

func TestSyncClaimsWithoutAutoCreate(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	accounts := NewAccounts(f.store, AccountsConfig{AdminGroup: "admin", StaffGroup: "staff"})

	_, err := accounts.SyncClaims(ctx, Claims{"preferred_username": "frank"})
	assert.True(t, apperr.Is(err, apperr.CodeUnauthenticated))

	_, err = f.store.GetUserByUsername(ctx, "frank")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
