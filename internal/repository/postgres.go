package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fintrack/fintrack/internal/model"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new Postgres store with a connection pool.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// CreateUser inserts a new user. Duplicate usernames and emails are
// reported as ErrUsernameExists and ErrEmailExists.
func (p *Postgres) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := p.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return uniqueUserError(pgErr.ConstraintName)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by id.
func (p *Postgres) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return p.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a user by email address.
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return p.getUser(ctx, "email", email)
}

func (p *Postgres) getUser(ctx context.Context, column, value string) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE ` + column + ` = $1
	`

	var user model.User
	err := p.pool.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return &user, nil
}

// CreateRecord inserts a record into the table of its kind.
func (p *Postgres) CreateRecord(ctx context.Context, record *model.Record) error {
	table, err := recordTable(record.Kind)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ` + table + ` (id, user_id, amount, date, label, category, created_at)
		VALUES ($1, $2, $3::text::numeric, $4, $5, $6, $7)
	`

	_, err = p.pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.Amount.String(),
		record.Date,
		record.Label,
		record.Category,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", record.Kind, err)
	}

	return nil
}

// ListRecordsByOwner returns the owner's records of one kind, newest first.
func (p *Postgres) ListRecordsByOwner(ctx context.Context, kind model.Kind, ownerID string) ([]*model.Record, error) {
	table, err := recordTable(kind)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, amount::text, date, label, category, created_at
		FROM ` + table + `
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC, id DESC
	`

	rows, err := p.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	records := make([]*model.Record, 0)
	for rows.Next() {
		var (
			r      = model.Record{Kind: kind}
			amount string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &amount, &r.Date, &r.Label, &r.Category, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		if r.Amount, err = parseAmount(amount); err != nil {
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
// A record owned by someone else is reported as ErrRecordNotFound.
func (p *Postgres) DeleteRecordByOwner(ctx context.Context, kind model.Kind, ownerID, id string) error {
	table, err := recordTable(kind)
	if err != nil {
		return err
	}

	query := `DELETE FROM ` + table + ` WHERE id = $1 AND user_id = $2`

	tag, err := p.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// uniqueUserError maps a users unique constraint to its sentinel error.
func uniqueUserError(constraint string) error {
	switch constraint {
	case "users_username_key":
		return ErrUsernameExists
	case "users_email_key":
		return ErrEmailExists
	default:
		return fmt.Errorf("unique constraint %q violated", constraint)
	}
}
