// Package repository provides the database access layer for users and
// financial records. Two backends implement Store: PostgreSQL through pgx
// and SQLite through modernc.org/sqlite.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fintrack/fintrack/internal/model"
)

// Common repository errors.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidKind    = errors.New("invalid record kind")
)

// Store is implemented by every storage backend.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	CreateRecord(ctx context.Context, record *model.Record) error
	ListRecordsByOwner(ctx context.Context, kind model.Kind, ownerID string) ([]*model.Record, error)
	DeleteRecordByOwner(ctx context.Context, kind model.Kind, ownerID, id string) error

	Ping(ctx context.Context) error
	Close() error
}

// Options controls how Open prepares the store.
type Options struct {
	// Migrate applies pending migrations before returning.
	Migrate bool
}

// Open connects to the database named by databaseURL. URLs starting with
// postgres:// or postgresql:// use PostgreSQL; sqlite:// paths and
// sqlite::memory: use SQLite. SQLite is always migrated on open.
func Open(ctx context.Context, databaseURL string, opts Options) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		if opts.Migrate {
			if err := MigratePostgres(ctx, databaseURL); err != nil {
				return nil, err
			}
		}
		return NewPostgres(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite:"):
		return NewSQLite(ctx, sqlitePath(databaseURL))
	default:
		return nil, fmt.Errorf("unsupported database URL scheme")
	}
}

// sqlitePath strips the sqlite scheme: sqlite:///var/db.sqlite, sqlite://db.sqlite
// and sqlite::memory: are accepted.
func sqlitePath(databaseURL string) string {
	path := strings.TrimPrefix(databaseURL, "sqlite:")
	path = strings.TrimPrefix(path, "//")
	return path
}

// recordTable returns the table backing a record kind.
func recordTable(kind model.Kind) (string, error) {
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return kind.Collection(), nil
}
