package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contractdesk/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionsStore struct {
	pool *pgxpool.Pool
}

func NewSessionsStore(pool *pgxpool.Pool) *SessionsStore {
	return &SessionsStore{pool: pool}
}

// CreateForLogin performs the login write as one transaction: refresh the
// account's last-login (promoting pending accounts to active when promote
// is set) and insert the session row. Either both land or neither does;
// the deferred rollback is a no-op after commit.
func (s *SessionsStore) CreateForLogin(ctx context.Context, sessionID string, accountID int64, promote bool, now time.Time) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin login tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if promote {
		const q = `UPDATE accounts SET status = 'active', last_login_at = $2 WHERE id = $1`
		if _, err := tx.Exec(ctx, q, accountID, now); err != nil {
			return fmt.Errorf("promote account: %w", err)
		}
	} else {
		const q = `UPDATE accounts SET last_login_at = $2 WHERE id = $1`
		if _, err := tx.Exec(ctx, q, accountID, now); err != nil {
			return fmt.Errorf("set last login: %w", err)
		}
	}

	const insert = `
		INSERT INTO sessions (id, account_id, created_at, last_seen_at)
		VALUES ($1, $2, $3, $3)
	`
	if _, err := tx.Exec(ctx, insert, sessionID, accountID, now); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit login tx: %w", err)
	}
	return nil
}

func (s *SessionsStore) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	const q = `
		SELECT id, account_id, created_at, last_seen_at
		FROM sessions
		WHERE id = $1
	`

	var sess domain.Session
	err := s.pool.QueryRow(ctx, q, sessionID).Scan(
		&sess.ID,
		&sess.AccountID,
		&sess.CreatedAt,
		&sess.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Delete is idempotent; removing an absent session is not an error.
func (s *SessionsStore) Delete(ctx context.Context, sessionID string) error {
	const q = `DELETE FROM sessions WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Touch refreshes the session's last-seen timestamp.
func (s *SessionsStore) Touch(ctx context.Context, sessionID string, when time.Time) error {
	const q = `UPDATE sessions SET last_seen_at = $2 WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, sessionID, when); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}
