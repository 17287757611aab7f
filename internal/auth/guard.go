package auth

import (
	"context"
	"errors"

	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/model"
)

// UserLookup loads the current state of a user.
type UserLookup interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

// Guard resolves session tokens into identities and checks roles.
//
// With a UserLookup, every resolution re-reads the user: deleted or inactive
// users lose their sessions on the next request, and unless trustSessionRole
// is set the role and name come from storage rather than the session.
type Guard struct {
	sessions         *Manager
	users            UserLookup
	trustSessionRole bool
}

// NewGuard creates a guard. users may be nil to trust the session alone.
func NewGuard(sessions *Manager, users UserLookup, trustSessionRole bool) *Guard {
	return &Guard{sessions: sessions, users: users, trustSessionRole: trustSessionRole}
}

// Authenticate validates token and returns the caller's identity.
func (g *Guard) Authenticate(ctx context.Context, token string) (*Identity, error) {
	identity, err := g.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if g.users == nil {
		return identity, nil
	}

	user, err := g.users.GetUser(ctx, identity.UserID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		_ = g.sessions.Destroy(ctx, token)
		return nil, ErrSessionMissing
	}
	if !user.IsActive() {
		_ = g.sessions.Destroy(ctx, token)
		return nil, ErrSessionMissing
	}
	if !g.trustSessionRole {
		identity.Role = user.Role
		identity.UserName = user.Name
	}
	return identity, nil
}

// RequireAuthenticated passes any resolved identity.
func RequireAuthenticated(identity *Identity) (*Identity, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return identity, nil
}

// RequirePrivileged passes admin and manager identities only.
func RequirePrivileged(identity *Identity) (*Identity, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if !identity.Role.IsPrivileged() {
		return nil, apperrors.ErrForbidden
	}
	return identity, nil
}
