package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quillpost/quillpost/internal/autherr"
)

type stubHasher struct{ calls int }

func (h *stubHasher) Hash(_ context.Context, plaintext string) (string, error) {
	h.calls++
	return "hashed:" + plaintext, nil
}

func newTestService() (*Service, *stubHasher) {
	hasher := &stubHasher{}
	return NewService(NewMemoryRepository(), hasher), hasher
}

func TestRegisterAndDuplicateUsername(t *testing.T) {
	svc, hasher := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.True(t, user.IsActive)
	require.Nil(t, user.LastLogin)
	require.Equal(t, "hashed:secret1", user.PasswordHash)
	require.Equal(t, 1, hasher.calls)

	_, err = svc.Register(ctx, Registration{Username: "alice", Email: "other@x.com", Password: "secret2"})
	require.ErrorIs(t, err, autherr.ErrDuplicateUsername)
	require.Equal(t, 1, hasher.calls, "duplicate registration must not hash")
}

func TestRegisterDuplicateEmailIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, Registration{Username: "bob", Email: " A@X.com ", Password: "secret1"})
	require.ErrorIs(t, err, autherr.ErrDuplicateEmail)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := map[string]Registration{
		"missing username": {Email: "a@x.com", Password: "secret1"},
		"bad email":        {Username: "alice", Email: "not-an-email", Password: "secret1"},
		"short password":   {Username: "alice", Email: "a@x.com", Password: "123"},
		"long password":    {Username: "alice", Email: "a@x.com", Password: strings.Repeat("p", 73)},
	}
	for name, reg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, reg)
			require.ErrorIs(t, err, ErrInvalidRegistration)
		})
	}
}

func TestTouchLastLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, err := svc.Register(ctx, Registration{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.TouchLastLogin(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, fixed, *user.LastLogin)

	stored, err := svc.Repository().FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, fixed, *stored.LastLogin)

	_, err = svc.TouchLastLogin(ctx, "ghost")
	require.ErrorIs(t, err, autherr.ErrUserNotFound)
}

func TestSetActive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.SetActive(ctx, "alice", false)
	require.NoError(t, err)
	require.False(t, user.IsActive)

	stored, err := svc.Repository().FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.False(t, stored.IsActive)
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.FindByUsername(ctx, "nobody")
	require.True(t, errors.Is(err, ErrNotFound))
	_, err = repo.FindByEmail(ctx, "nobody@x.com")
	require.True(t, errors.Is(err, ErrNotFound))
	require.ErrorIs(t, repo.SetActive(ctx, 42, false), ErrNotFound)
}
