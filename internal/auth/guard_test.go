package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/model"
)

// MockUserLookup is a mock implementation of UserLookup.
type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetUser(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func TestRequirePrivileged(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		wantErr  error
	}{
		{name: "admin", identity: &Identity{UserID: 1, Role: model.RoleAdmin}},
		{name: "manager", identity: &Identity{UserID: 2, Role: model.RoleManager}},
		{name: "user", identity: &Identity{UserID: 3, Role: model.RoleUser}, wantErr: apperrors.ErrForbidden},
		{name: "unknown role", identity: &Identity{UserID: 4, Role: "root"}, wantErr: apperrors.ErrForbidden},
		{name: "no session", identity: nil, wantErr: apperrors.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequirePrivileged(tt.identity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.identity, got)
		})
	}
}

func TestRequireAuthenticated(t *testing.T) {
	_, err := RequireAuthenticated(nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	id := &Identity{UserID: 3, Role: model.RoleUser}
	got, err := RequireAuthenticated(id)
	require.NoError(t, err)
	assert.Same(t, id, got)
}

func TestGuard_Authenticate(t *testing.T) {
	tests := []struct {
		name         string
		trustRole    bool
		setupMock    func(*MockUserLookup)
		wantErr      error
		wantRole     model.Role
		wantDestroys bool
	}{
		{
			name: "role refreshed from storage",
			setupMock: func(m *MockUserLookup) {
				m.On("GetUser", mock.Anything, uint(5)).Return(&model.User{ID: 5, Name: "Eve", Role: model.RoleUser, Status: model.StatusActive}, nil)
			},
			wantRole: model.RoleUser,
		},
		{
			name:      "role trusted from session",
			trustRole: true,
			setupMock: func(m *MockUserLookup) {
				m.On("GetUser", mock.Anything, uint(5)).Return(&model.User{ID: 5, Name: "Eve", Role: model.RoleUser, Status: model.StatusActive}, nil)
			},
			wantRole: model.RoleAdmin,
		},
		{
			name: "deleted user",
			setupMock: func(m *MockUserLookup) {
				m.On("GetUser", mock.Anything, uint(5)).Return(nil, apperrors.ErrNotFound)
			},
			wantErr:      apperrors.ErrUnauthenticated,
			wantDestroys: true,
		},
		{
			name: "deactivated user",
			setupMock: func(m *MockUserLookup) {
				m.On("GetUser", mock.Anything, uint(5)).Return(&model.User{ID: 5, Role: model.RoleAdmin, Status: model.StatusInactive}, nil)
			},
			wantErr:      apperrors.ErrUnauthenticated,
			wantDestroys: true,
		},
		{
			name: "storage failure",
			setupMock: func(m *MockUserLookup) {
				m.On("GetUser", mock.Anything, uint(5)).Return(nil, apperrors.Unavailable(errors.New("timeout")))
			},
			wantErr: apperrors.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store, _ := newTestManager(t)
			ctx := context.Background()
			token, _, err := m.Create(ctx, 5, "Eve", model.RoleAdmin)
			require.NoError(t, err)

			lookup := new(MockUserLookup)
			tt.setupMock(lookup)
			guard := NewGuard(m, lookup, tt.trustRole)

			identity, err := guard.Authenticate(ctx, token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, identity)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRole, identity.Role)
			}
			if tt.wantDestroys {
				assert.Equal(t, 0, store.Len())
			} else {
				assert.Equal(t, 1, store.Len())
			}
			lookup.AssertExpectations(t)
		})
	}
}

func TestGuard_WithoutLookupTrustsSession(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	token, _, err := m.Create(ctx, 9, "Zed", model.RoleManager)
	require.NoError(t, err)

	identity, err := NewGuard(m, nil, false).Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, identity.Role)
}
