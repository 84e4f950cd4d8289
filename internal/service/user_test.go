package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/metrics"
)

func TestValidateRegistration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{"valid", "alice_01", "alice@example.com", "s3cretpass", nil},
		{"username_too_short", "al", "alice@example.com", "s3cretpass", ErrValidation},
		{"username_bad_chars", "alice smith", "alice@example.com", "s3cretpass", ErrValidation},
		{"username_too_long", strings.Repeat("a", 51), "alice@example.com", "s3cretpass", ErrValidation},
		{"email_missing", "alice", "", "s3cretpass", ErrValidation},
		{"email_no_at", "alice", "alice.example.com", "s3cretpass", ErrValidation},
		{"email_display_name", "alice", "Alice <alice@example.com>", "s3cretpass", ErrValidation},
		{"password_short", "alice", "alice@example.com", "short", ErrValidation},
		{"password_too_long", "alice", "alice@example.com", strings.Repeat("p", maxPasswordLength+1), ErrValidation},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			err := validateRegistration(test.username, test.email, test.password)
			if test.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, test.wantErr)
		})
	}
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	tokens := newTestTokens(t)
	recorder := metrics.NewInMemory()
	svc := NewUserService(store, tokens, recorder)

	registered, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "  Alice@Example.COM ",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "alice@example.com", registered.User.Email)
	assert.NotEqual(t, "correct horse", registered.User.PasswordHash)
	assert.True(t, strings.HasPrefix(registered.User.PasswordHash, "$argon2id$"))

	subject, err := tokens.Verify(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, subject)

	stored, err := store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotContains(t, stored.PasswordHash, "correct horse")

	loggedIn, err := svc.Login(ctx, "ALICE@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	_, err = svc.Login(ctx, "alice@example.com", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	snap := recorder.Snapshot()
	assert.EqualValues(t, 1, snap.UsersRegistered)
	assert.EqualValues(t, 1, snap.LoginsSucceeded)
	assert.EqualValues(t, 1, snap.LoginsFailed)
}

func TestUserService_LoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewUserService(newTestStore(t), newTestTokens(t), nil)

	_, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, "nobody@example.com", "password123")
	_, wrongErr := svc.Login(ctx, "bob@example.com", "password124")

	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestUserService_LoginRequiresFields(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newTestStore(t), newTestTokens(t), nil)

	_, err := svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_RegisterConflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewUserService(newTestStore(t), newTestTokens(t), nil)

	_, err := svc.Register(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "carol2", Email: "CAROL@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(ctx, RegisterInput{Username: "carol", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

type failingIssuer struct{}

func (failingIssuer) Issue(string) (string, error) { return "", errors.New("boom") }

func TestUserService_RegisterTokenFailure(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newTestStore(t), failingIssuer{}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "dan", Email: "dan@example.com", Password: "password123"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}
