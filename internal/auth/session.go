package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/model"
)

// SessionTTL is the absolute lifetime of a session.
const SessionTTL = 24 * time.Hour

const sessionIDBytes = 32

var (
	// ErrSessionMissing is returned for unknown, tampered or destroyed sessions.
	ErrSessionMissing = fmt.Errorf("%w: session not found", apperrors.ErrUnauthenticated)
	// ErrSessionExpired is returned once a session has outlived its TTL.
	ErrSessionExpired = fmt.Errorf("%w: session expired", apperrors.ErrUnauthenticated)
)

// Identity is the authenticated caller as carried by a session.
type Identity struct {
	UserID   uint       `json:"user_id"`
	UserName string     `json:"user_name"`
	Role     model.Role `json:"user_role"`
}

// IsPrivileged reports whether the identity may manage the roster.
func (i *Identity) IsPrivileged() bool {
	return i != nil && i.Role.IsPrivileged()
}

// Session is the server-side record a session token refers to.
type Session struct {
	ID        string     `json:"id"`
	UserID    uint       `json:"user_id"`
	UserName  string     `json:"user_name"`
	UserRole  model.Role `json:"user_role"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Identity returns the caller identity recorded in the session.
func (s *Session) Identity() *Identity {
	return &Identity{UserID: s.UserID, UserName: s.UserName, Role: s.UserRole}
}

// SessionStore is a keyed store of sessions. Get returns ErrSessionMissing for unknown IDs.
type SessionStore interface {
	Save(ctx context.Context, session *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Manager issues, validates and destroys sessions.
type Manager struct {
	store  SessionStore
	signer *JWTService
	ttl    time.Duration
	now    func() time.Time
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithTTL overrides SessionTTL.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// NewManager creates a session manager.
func NewManager(store SessionStore, signer *JWTService, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		signer: signer,
		ttl:    SessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a session and returns its token and absolute expiry.
func (m *Manager) Create(ctx context.Context, userID uint, userName string, role model.Role) (string, time.Time, error) {
	id, err := newSessionID()
	if err != nil {
		return "", time.Time{}, err
	}
	now := m.now()
	session := &Session{
		ID:        id,
		UserID:    userID,
		UserName:  userName,
		UserRole:  role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	token, err := m.signer.Sign(id, now, session.ExpiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := m.store.Save(ctx, session, m.ttl); err != nil {
		return "", time.Time{}, err
	}
	return token, session.ExpiresAt, nil
}

// Validate resolves token to its identity. Expired and unknown tokens both fail
// as unauthenticated.
func (m *Manager) Validate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrSessionMissing
	}
	now := m.now()
	id, err := m.signer.SessionID(token, now)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			if sid, sErr := m.signer.SessionIDIgnoringExpiry(token); sErr == nil {
				_ = m.store.Delete(ctx, sid)
			}
		}
		return nil, err
	}
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !now.Before(session.ExpiresAt) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrSessionExpired
	}
	return session.Identity(), nil
}

// Destroy ends the session named by token. Unknown or tampered tokens are a no-op.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	id, err := m.signer.SessionIDIgnoringExpiry(token)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, id)
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
