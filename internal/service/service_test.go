package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestStore(t *testing.T) *repository.SQLite {
	t.Helper()
	store, err := repository.NewSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tokens
}
