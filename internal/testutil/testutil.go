// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops every application table and the goose version table so
// the next migration run starts from an empty database.
func ResetSchema(ctx context.Context, databaseURL string) error {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	unlock, err := AcquireDBLock(ctx, pool)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	const drop = `
		DROP TABLE IF EXISTS expenses, incomes, investments, users, goose_db_version CASCADE
	`
	if _, err := pool.Exec(ctx, drop); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// NewRedisClient connects to TEST_REDIS_URL, skipping the test when unset.
func NewRedisClient(t testing.TB) *redis.Client {
	t.Helper()

	opts, err := redis.ParseURL(RequireEnv(t, "TEST_REDIS_URL"))
	if err != nil {
		t.Fatalf("parse TEST_REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	if err := FlushRedis(context.Background(), client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return client
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewTestUser creates a user with a unique username and email.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	id := UniqueID("user")
	return &model.User{
		ID:           id,
		Username:     id,
		Email:        id + "@example.com",
		PasswordHash: "not-a-real-hash",
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestRecord creates a record of the given kind owned by ownerID.
func NewTestRecord(t testing.TB, kind model.Kind, ownerID, amount string, date time.Time) *model.Record {
	t.Helper()
	r := &model.Record{
		ID:        UniqueID(string(kind)),
		UserID:    ownerID,
		Kind:      kind,
		Amount:    decimal.RequireFromString(amount),
		Date:      date,
		CreatedAt: time.Now().UTC(),
	}
	switch kind {
	case model.KindExpense:
		r.Label = "Groceries"
		r.Category = model.CategoryFood
	case model.KindIncome:
		r.Category = "Salary"
	case model.KindInvestment:
		r.Label = "Index fund"
		r.Category = model.InvestmentStocks
	}
	return r
}
