package postgres

import (
	"context"
	"errors"
	"fmt"

	"contractdesk/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountsStore struct {
	pool *pgxpool.Pool
}

func NewAccountsStore(pool *pgxpool.Pool) *AccountsStore {
	return &AccountsStore{pool: pool}
}

const accountColumns = "id, username, display_name, status, must_change_password, created_at, last_login_at"

func (s *AccountsStore) Create(ctx context.Context, username, displayName, passwordHash string, status domain.AccountStatus, mustChange bool) (domain.Account, error) {
	const q = `
		INSERT INTO accounts (username, display_name, password_hash, status, must_change_password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + accountColumns

	var (
		a           domain.Account
		lastLoginTS pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, username, displayName, passwordHash, status, mustChange).Scan(
		&a.ID,
		&a.Username,
		&a.DisplayName,
		&a.Status,
		&a.MustChangePassword,
		&a.CreatedAt,
		&lastLoginTS,
	)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == pgUniqueViolation {
			return domain.Account{}, domain.ErrConflict
		}
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	a.LastLoginAt = timestamptzPtr(lastLoginTS)
	return a, nil
}

func (s *AccountsStore) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	var (
		a           domain.Account
		lastLoginTS pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&a.ID,
		&a.Username,
		&a.DisplayName,
		&a.Status,
		&a.MustChangePassword,
		&a.CreatedAt,
		&lastLoginTS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("get account by id: %w", err)
	}

	a.LastLoginAt = timestamptzPtr(lastLoginTS)
	return a, nil
}

// GetByUsername matches case-insensitively; callers normalize the input
// but stored usernames written before normalization still resolve.
func (s *AccountsStore) GetByUsername(ctx context.Context, username string) (domain.AccountWithPassword, error) {
	const q = `
		SELECT id, username, display_name, password_hash, status, must_change_password, created_at, last_login_at
		FROM accounts
		WHERE lower(username) = lower($1)
		LIMIT 1
	`

	var (
		a           domain.AccountWithPassword
		lastLoginTS pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, username).Scan(
		&a.ID,
		&a.Username,
		&a.DisplayName,
		&a.PasswordHash,
		&a.Status,
		&a.MustChangePassword,
		&a.CreatedAt,
		&lastLoginTS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountWithPassword{}, domain.ErrNotFound
		}
		return domain.AccountWithPassword{}, fmt.Errorf("get account by username: %w", err)
	}

	a.LastLoginAt = timestamptzPtr(lastLoginTS)
	return a, nil
}

// SetPassword stores a new hash and clears the must-change flag in the
// same statement.
func (s *AccountsStore) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `
		UPDATE accounts
		SET password_hash = $2, must_change_password = FALSE
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, q, id, passwordHash)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
