package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/fintrack/fintrack/internal/model"
)

// sqliteTimeLayout is fixed width so stored timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite is a Store backed by a single SQLite database handle. It is meant
// for local use and tests; the schema is migrated when it is opened.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the SQLite database at path and
// applies migrations. Use ":memory:" for a throwaway database.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// One connection: an in-memory database lives and dies with it, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// Ping checks database connectivity.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user.
func (s *SQLite) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		formatTime(user.CreatedAt),
	)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			switch {
			case strings.Contains(sqliteErr.Error(), "users.username"):
				return ErrUsernameExists
			case strings.Contains(sqliteErr.Error(), "users.email"):
				return ErrEmailExists
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by id.
func (s *SQLite) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a user by email address.
func (s *SQLite) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *SQLite) getUser(ctx context.Context, column, value string) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE ` + column + ` = ?
	`

	var (
		user      model.User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &user, nil
}

// CreateRecord inserts a record into the table of its kind.
func (s *SQLite) CreateRecord(ctx context.Context, record *model.Record) error {
	table, err := recordTable(record.Kind)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ` + table + ` (id, user_id, amount, date, label, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.Amount.String(),
		formatTime(record.Date),
		record.Label,
		record.Category,
		formatTime(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", record.Kind, err)
	}

	return nil
}

// ListRecordsByOwner returns the owner's records of one kind, newest first.
func (s *SQLite) ListRecordsByOwner(ctx context.Context, kind model.Kind, ownerID string) ([]*model.Record, error) {
	table, err := recordTable(kind)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, amount, date, label, category, created_at
		FROM ` + table + `
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	records := make([]*model.Record, 0)
	for rows.Next() {
		var (
			r                       = model.Record{Kind: kind}
			amount, date, createdAt string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &amount, &date, &r.Label, &r.Category, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		if r.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if r.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}

	return records, nil
}

// DeleteRecordByOwner removes a record only when it belongs to ownerID.
func (s *SQLite) DeleteRecordByOwner(ctx context.Context, kind model.Kind, ownerID, id string) error {
	table, err := recordTable(kind)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t, nil
}
