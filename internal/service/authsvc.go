package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"contractdesk/internal/auth"
	"contractdesk/internal/domain"

	"github.com/google/uuid"
)

type AccountsStore interface {
	GetByID(ctx context.Context, id int64) (domain.Account, error)
	GetByUsername(ctx context.Context, username string) (domain.AccountWithPassword, error)
	SetPassword(ctx context.Context, id int64, passwordHash string) error
}

type SessionsStore interface {
	CreateForLogin(ctx context.Context, sessionID string, accountID int64, promote bool, now time.Time) error
	Get(ctx context.Context, sessionID string) (domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
	Touch(ctx context.Context, sessionID string, when time.Time) error
}

type AuthService struct {
	Accounts AccountsStore
	Sessions SessionsStore
	Now      func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NormalizeUsername is the canonical form used for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Login verifies the credentials and opens a session. An unknown username
// and a wrong password are indistinguishable to the caller. The status
// promotion, last-login refresh and session insert commit together or not
// at all.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Account, string, error) {
	username = NormalizeUsername(username)

	a, err := s.Accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Account{}, "", domain.ErrInvalidCredentials
		}
		return domain.Account{}, "", err
	}

	ok, err := auth.VerifyPassword(a.PasswordHash, password)
	if err != nil {
		return domain.Account{}, "", err
	}
	if !ok {
		return domain.Account{}, "", domain.ErrInvalidCredentials
	}

	if a.Status == domain.AccountStatusInactive {
		return domain.Account{}, "", domain.ErrAccountInactive
	}
	if !domain.AllowedStatus(a.Status) {
		return domain.Account{}, "", domain.ErrStatusNotAllowed
	}

	sessID := auth.NewSessionID()
	promote := a.Status == domain.AccountStatusPending
	now := s.now()

	if err := s.Sessions.CreateForLogin(ctx, sessID, a.ID, promote, now); err != nil {
		return domain.Account{}, "", err
	}

	if promote {
		a.Status = domain.AccountStatusActive
	}
	a.LastLoginAt = &now
	return a.Account, sessID, nil
}

// Logout is idempotent: deleting an unknown or malformed session id
// succeeds quietly.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if uuid.Validate(sessionID) != nil {
		return nil
	}
	return s.Sessions.Delete(ctx, sessionID)
}

// AccountForSession resolves a session id to its account. Missing or
// malformed sessions and missing accounts all collapse into unauthorized;
// an inactive account keeps its sessions but may no longer act.
func (s *AuthService) AccountForSession(ctx context.Context, sessionID string) (domain.Account, error) {
	if uuid.Validate(sessionID) != nil {
		return domain.Account{}, domain.ErrUnauthorized
	}

	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Account{}, domain.ErrUnauthorized
		}
		return domain.Account{}, err
	}

	a, err := s.Accounts.GetByID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Account{}, domain.ErrUnauthorized
		}
		return domain.Account{}, err
	}
	if a.Status == domain.AccountStatusInactive {
		return domain.Account{}, domain.ErrForbidden
	}

	return a, nil
}

// TouchSession refreshes the session's last-seen timestamp. Callers treat
// this as best-effort.
func (s *AuthService) TouchSession(ctx context.Context, sessionID string) error {
	if uuid.Validate(sessionID) != nil {
		return nil
	}
	return s.Sessions.Touch(ctx, sessionID, s.now())
}

// ChangePassword verifies the current password and stores a new hash,
// clearing the must-change flag. A wrong current password is a validation
// failure, not an authentication one: the caller already holds a session.
func (s *AuthService) ChangePassword(ctx context.Context, account domain.Account, current, newPassword string) error {
	if len(newPassword) < 8 {
		return domain.NewValidationError(map[string]string{"new_password": "must be at least 8 characters"})
	}

	aw, err := s.Accounts.GetByUsername(ctx, account.Username)
	if err != nil {
		return err
	}

	ok, err := auth.VerifyPassword(aw.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewValidationError(map[string]string{"current_password": "incorrect"})
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Accounts.SetPassword(ctx, aw.ID, hash)
}
