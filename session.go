package mailtm

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pryvon/mailtm-go/internal/api"
	"github.com/pryvon/mailtm-go/internal/apierrors"
)

// Session is the bearer credential and identity behind an
// authenticated client. It lives in memory only and is destroyed on
// logout or when the provider rejects the token.
type Session struct {
	Token     string
	AccountID string
	Address   string
	CreatedAt time.Time
}

// sessionManager owns the single session slot. State transitions are
// serialized: two concurrent logins never leave a hybrid state, the
// last completed call wins.
type sessionManager struct {
	api    *api.Client
	logger *slog.Logger

	// loginMu serializes login/logout/invalidate end to end so the
	// transport token and the session slot never diverge.
	loginMu sync.Mutex

	mu      sync.RWMutex
	session *Session
	account *Account
}

func newSessionManager(apiClient *api.Client, logger *slog.Logger) *sessionManager {
	return &sessionManager{api: apiClient, logger: logger}
}

// login exchanges credentials for a bearer token and loads the account
// identity. A 401 from the token endpoint is a credentials failure,
// not a session failure. Credentials are not retained.
func (m *sessionManager) login(ctx context.Context, address, password string) (*Account, error) {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	token, accountID, err := m.api.GetToken(ctx, address, password)
	if err != nil {
		var apiErr *apierrors.Error
		if errors.As(err, &apiErr) {
			return nil, apiErr.AsInvalidCredentials()
		}
		return nil, err
	}

	m.api.SetToken(token)
	raw, err := m.api.GetMe(ctx)
	if err != nil {
		m.api.ClearToken()
		return nil, err
	}

	account := newAccount(raw)
	if accountID == "" {
		accountID = account.ID
	}

	m.mu.Lock()
	m.session = &Session{
		Token:     token,
		AccountID: accountID,
		Address:   account.Address,
		CreatedAt: time.Now(),
	}
	m.account = account
	m.mu.Unlock()

	m.logger.Info("logged in", "address", account.Address, "account_id", accountID)
	return account, nil
}

// logout clears the session. Safe to call when not logged in.
func (m *sessionManager) logout() {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	m.mu.Lock()
	if m.session != nil {
		m.logger.Info("logged out", "address", m.session.Address)
	}
	m.session = nil
	m.account = nil
	m.mu.Unlock()

	m.api.ClearToken()
}

// invalidate destroys the session after the provider rejected the
// token. The caller still sees the authentication error; no automatic
// re-login happens because credentials are not retained.
func (m *sessionManager) invalidate() {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	m.mu.Lock()
	if m.session != nil {
		m.logger.Warn("session invalidated by provider", "address", m.session.Address)
	}
	m.session = nil
	m.account = nil
	m.mu.Unlock()

	m.api.ClearToken()
}

// current returns a copy of the active session.
func (m *sessionManager) current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// requireAuth fails without network access when no session is active.
func (m *sessionManager) requireAuth() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return apierrors.Authentication("not logged in")
	}
	return nil
}

// accountID returns the identity used to namespace per-account cache
// keys. Empty when unauthenticated.
func (m *sessionManager) accountID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.AccountID
}

// snapshot returns the cached account identity from login time.
func (m *sessionManager) snapshot() (*Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.account == nil {
		return nil, false
	}
	dup := *m.account
	return &dup, true
}

// refreshAccount updates the account snapshot after a /me fetch.
func (m *sessionManager) refreshAccount(account *Account) {
	m.mu.Lock()
	if m.session != nil {
		m.account = account
	}
	m.mu.Unlock()
}
