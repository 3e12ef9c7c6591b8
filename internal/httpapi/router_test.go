package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"contractdesk/internal/auth"
	"contractdesk/internal/domain"
	"contractdesk/internal/service"
)

// In-memory stores backing the handler tests. The sessions store is
// mutex-protected because the gate touches sessions from a detached
// goroutine.

type memAccounts struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.AccountWithPassword
}

func newMemAccounts() *memAccounts {
	return &memAccounts{nextID: 1, byID: map[int64]*domain.AccountWithPassword{}}
}

func (m *memAccounts) add(username, passwordHash string, status domain.AccountStatus, mustChange bool) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	acct := &domain.AccountWithPassword{
		Account: domain.Account{
			ID:                 id,
			Username:           username,
			DisplayName:        username,
			Status:             status,
			MustChangePassword: mustChange,
			CreatedAt:          time.Now(),
		},
		PasswordHash: passwordHash,
	}
	m.byID[id] = acct
	return acct.Account
}

func (m *memAccounts) GetByID(_ context.Context, id int64) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return acct.Account, nil
}

func (m *memAccounts) GetByUsername(_ context.Context, username string) (domain.AccountWithPassword, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acct := range m.byID {
		if strings.EqualFold(acct.Username, username) {
			return *acct, nil
		}
	}
	return domain.AccountWithPassword{}, domain.ErrNotFound
}

func (m *memAccounts) SetPassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	acct.PasswordHash = hash
	acct.MustChangePassword = false
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	accounts *memAccounts
	byID     map[string]domain.Session
}

func newMemSessions(accounts *memAccounts) *memSessions {
	return &memSessions{accounts: accounts, byID: map[string]domain.Session{}}
}

func (m *memSessions) add(accountID int64) string {
	id := auth.NewSessionID()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id] = domain.Session{ID: id, AccountID: accountID, CreatedAt: time.Now(), LastSeenAt: time.Now()}
	return id
}

func (m *memSessions) CreateForLogin(_ context.Context, sessionID string, accountID int64, promote bool, now time.Time) error {
	m.accounts.mu.Lock()
	if acct, ok := m.accounts.byID[accountID]; ok {
		if promote {
			acct.Status = domain.AccountStatusActive
		}
		acct.LastLoginAt = &now
	}
	m.accounts.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[sessionID] = domain.Session{ID: sessionID, AccountID: accountID, CreatedAt: now, LastSeenAt: now}
	return nil
}

func (m *memSessions) Get(_ context.Context, sessionID string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.byID[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return sess, nil
}

func (m *memSessions) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, sessionID)
	return nil
}

func (m *memSessions) Touch(_ context.Context, sessionID string, when time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.byID[sessionID]; ok {
		sess.LastSeenAt = when
		m.byID[sessionID] = sess
	}
	return nil
}

// memContracts records calls and succeeds with zero values unless a hook
// is set.
type memContracts struct {
	createFunc func(context.Context, []domain.Field) (domain.Contract, error)
	updateFunc func(context.Context, int64, []domain.Field) (domain.Contract, error)
	deleteFunc func(context.Context, int64) error
	getFunc    func(context.Context, int64) (domain.Contract, error)
	listFunc   func(context.Context, int, int) ([]domain.Contract, error)
}

func (m *memContracts) Create(ctx context.Context, fields []domain.Field) (domain.Contract, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, fields)
	}
	return domain.Contract{ID: 1}, nil
}

func (m *memContracts) Update(ctx context.Context, id int64, fields []domain.Field) (domain.Contract, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, fields)
	}
	return domain.Contract{ID: id}, nil
}

func (m *memContracts) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *memContracts) Get(ctx context.Context, id int64) (domain.Contract, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return domain.Contract{ID: id}, nil
}

func (m *memContracts) List(ctx context.Context, limit, offset int) ([]domain.Contract, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

type memLookup struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]string
}

func newMemLookup() *memLookup {
	return &memLookup{nextID: 1, rows: map[int64]string{}}
}

func (m *memLookup) List(context.Context) ([]domain.LookupRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]domain.LookupRow, 0, len(m.rows))
	for id, name := range m.rows {
		rows = append(rows, domain.LookupRow{ID: id, Name: name})
	}
	return rows, nil
}

func (m *memLookup) Get(_ context.Context, id int64) (domain.LookupRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.rows[id]
	if !ok {
		return domain.LookupRow{}, domain.ErrNotFound
	}
	return domain.LookupRow{ID: id, Name: name}, nil
}

func (m *memLookup) Create(_ context.Context, name string) (domain.LookupRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if strings.EqualFold(existing, name) {
			return domain.LookupRow{}, domain.ErrNameTaken
		}
	}
	id := m.nextID
	m.nextID++
	m.rows[id] = name
	return domain.LookupRow{ID: id, Name: name}, nil
}

func (m *memLookup) Rename(_ context.Context, id int64, name string) (domain.LookupRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.LookupRow{}, domain.ErrNotFound
	}
	for otherID, existing := range m.rows {
		if otherID != id && strings.EqualFold(existing, name) {
			return domain.LookupRow{}, domain.ErrNameTaken
		}
	}
	m.rows[id] = name
	return domain.LookupRow{ID: id, Name: name}, nil
}

func (m *memLookup) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memLookup) ResolveName(_ context.Context, name string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.rows {
		if strings.EqualFold(existing, name) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

type fixture struct {
	handler    http.Handler
	accounts   *memAccounts
	sessions   *memSessions
	contracts  *memContracts
	categories *memLookup
	statuses   *memLookup
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	accounts := newMemAccounts()
	sessions := newMemSessions(accounts)
	contracts := &memContracts{}
	categories := newMemLookup()
	statuses := newMemLookup()

	handler := NewRouter(RouterOpts{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Auth:   &service.AuthService{Accounts: accounts, Sessions: sessions},
		Contracts: &service.ContractService{
			Contracts:  contracts,
			Categories: categories,
			Statuses:   statuses,
		},
		Categories: &service.LookupService{Store: categories},
		Statuses:   &service.LookupService{Store: statuses},
		Cookies:    auth.CookieConfig{Name: "cd_session", TTL: time.Hour},
	})

	return &fixture{
		handler:    handler,
		accounts:   accounts,
		sessions:   sessions,
		contracts:  contracts,
		categories: categories,
		statuses:   statuses,
	}
}

// seedLogin creates an account with the given password and an already
// established session, returning the account and session id.
func (f *fixture) seedLogin(t *testing.T, username, password string, mustChange bool) (domain.Account, string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	acct := f.accounts.add(username, hash, domain.AccountStatusActive, mustChange)
	return acct, f.sessions.add(acct.ID)
}
