package user

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() (*Service, *InMemoryRepository) {
	repo := NewInMemoryRepository()
	return NewService(repo, bcrypt.MinCost), repo
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	require.NoError(t, svc.Register(ctx, "Ann", "Ann@X.com", "pw123456"))

	u, err := repo.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	require.NotNil(t, u, "email must be normalized to lowercase")
	assert.Equal(t, "Ann", u.Username)
	assert.True(t, u.Credential.Hashed())
	assert.NotEqual(t, "pw123456", u.Credential.Stored())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	require.NoError(t, svc.Register(ctx, "Ann", "ann@x.com", "pw123456"))

	err := svc.Register(ctx, "Other Ann", "ANN@x.com", "different")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	require.NoError(t, svc.Register(ctx, "Ann", "ann@x.com", "pw123456"))

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "ann@x.com", password: "pw123456"},
		{name: "case-insensitive email", email: "ANN@X.COM", password: "pw123456"},
		{name: "wrong password", email: "ann@x.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "bob@x.com", password: "pw123456", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ann", u.Username)
		})
	}
}

// Wrong password and unknown email must be indistinguishable to the caller.
func TestAuthenticateNoAccountEnumeration(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	require.NoError(t, svc.Register(ctx, "Ann", "ann@x.com", "pw123456"))

	_, errKnown := svc.Authenticate(ctx, "ann@x.com", "wrong")
	_, errUnknown := svc.Authenticate(ctx, "nobody@x.com", "wrong")
	assert.Equal(t, errKnown, errUnknown)
}

func TestAuthenticateMigratesPlaintext(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	// A legacy row stores the password as-is.
	legacy, err := repo.Create(ctx, User{
		Username:   "Old Timer",
		Email:      "old@x.com",
		Credential: CredentialFromStored("pw123456"),
	})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "old@x.com", "pw123456")
	require.NoError(t, err)
	assert.True(t, u.Credential.Hashed())

	// Storage was upgraded before the signin returned.
	stored, err := repo.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Credential.Hashed())
	assert.NotEqual(t, "pw123456", stored.Credential.Stored())
	assert.True(t, strings.HasPrefix(stored.Credential.Stored(), "$2"))
	firstHash := stored.Credential.Stored()

	// Signing in again still works and does not re-migrate.
	_, err = svc.Authenticate(ctx, "old@x.com", "pw123456")
	require.NoError(t, err)
	stored, err = repo.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, firstHash, stored.Credential.Stored(), "migration must happen exactly once")
}

func TestAuthenticatePlaintextMismatchDoesNotMigrate(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	legacy, err := repo.Create(ctx, User{
		Username:   "Old Timer",
		Email:      "old@x.com",
		Credential: CredentialFromStored("pw123456"),
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "old@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	stored, err := repo.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.False(t, stored.Credential.Hashed(), "failed signin must not touch the stored secret")
	assert.Equal(t, "pw123456", stored.Credential.Stored())
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	u, err := repo.Create(ctx, User{Username: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Username)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
