package auth

import (
	"context"
	"sync"
	"testing"

	"filmly/internal/sequence"

	"github.com/stretchr/testify/require"
)

type memoryUsers struct {
	mu    sync.Mutex
	users []*User
}

func (r *memoryUsers) CreateUser(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrUserAlreadyExists
		}
	}
	cp := *u
	r.users = append(r.users, &cp)
	return nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUsers) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func newTestService(t *testing.T) (Service, TokenManager) {
	t.Helper()
	store := sequence.NewMemoryCounterStore()
	alloc := sequence.New(store)
	err := alloc.EnsureInitialized(context.Background(), sequence.UserIDKey, func(context.Context) (int64, error) {
		return 1, nil
	})
	require.NoError(t, err)

	tm := NewJWTTokenManager("test-secret")
	return NewService(&memoryUsers{}, tm, alloc), tm
}

func TestRegisterAssignsSequentialFilmlyIDs(t *testing.T) {
	svc, _ := newTestService(t)

	first, token, err := svc.Register(context.Background(), "a@example.com", "alice", "password1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	second, _, err := svc.Register(context.Background(), "b@example.com", "bob", "password2")
	require.NoError(t, err)
	require.Equal(t, first+1, second)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Register(context.Background(), "a@example.com", "alice", "password1")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "a@example.com", "other", "password2")
	require.ErrorIs(t, err, ErrUserAlreadyExists)

	_, _, err = svc.Register(context.Background(), "c@example.com", "alice", "password3")
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)

	registered, _, err := svc.Register(context.Background(), "a@example.com", "alice", "password1")
	require.NoError(t, err)

	id, token, err := svc.Login(context.Background(), "a@example.com", "password1")
	require.NoError(t, err)
	require.Equal(t, registered, id)
	require.NotEmpty(t, token)

	_, _, err = svc.Login(context.Background(), "a@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "password1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewJWTTokenManager("test-secret")

	token, err := tm.GenerateToken(42)
	require.NoError(t, err)

	id, err := tm.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestValidateRejectsForeignToken(t *testing.T) {
	issuer := NewJWTTokenManager("secret-a")
	verifier := NewJWTTokenManager("secret-b")

	token, err := issuer.GenerateToken(42)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)

	_, err = verifier.ValidateToken("not-a-token")
	require.Error(t, err)
}
