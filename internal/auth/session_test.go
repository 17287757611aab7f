package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(t *testing.T) (*Manager, *MemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 10, 9, 30, 15, 500, time.UTC)}
	store := NewMemoryStore()
	m := NewManager(store, NewJWTService("test-secret"), WithClock(clock.Now))
	return m, store, clock
}

func TestManager_CreateValidate(t *testing.T) {
	m, _, clock := newTestManager(t)
	ctx := context.Background()

	token, expiresAt, err := m.Create(ctx, 7, "Alice", model.RoleManager)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, clock.now.Add(24*time.Hour), expiresAt)

	identity, err := m.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: 7, UserName: "Alice", Role: model.RoleManager}, identity)
}

func TestManager_TokensAreUnique(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	a, _, err := m.Create(ctx, 1, "A", model.RoleUser)
	require.NoError(t, err)
	b, _, err := m.Create(ctx, 1, "A", model.RoleUser)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestManager_ExpiresAfterTTL(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantErr error
	}{
		{name: "just before expiry", advance: 24*time.Hour - 2*time.Second},
		{name: "exactly at expiry", advance: 24 * time.Hour, wantErr: ErrSessionExpired},
		{name: "long after expiry", advance: 72 * time.Hour, wantErr: ErrSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, clock := newTestManager(t)
			ctx := context.Background()

			token, _, err := m.Create(ctx, 1, "A", model.RoleAdmin)
			require.NoError(t, err)

			clock.Advance(tt.advance)
			identity, err := m.Validate(ctx, token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
				assert.Nil(t, identity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(1), identity.UserID)
		})
	}
}

func TestManager_ExpiredRemovesStoredSession(t *testing.T) {
	m, store, clock := newTestManager(t)
	ctx := context.Background()

	token, _, err := m.Create(ctx, 1, "A", model.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	clock.Advance(25 * time.Hour)
	_, err = m.Validate(ctx, token)
	require.Error(t, err)

	assert.Equal(t, 0, store.Len())
}

func TestManager_ExpiredAndUnknownBothUnauthenticated(t *testing.T) {
	m, _, clock := newTestManager(t)
	ctx := context.Background()

	token, _, err := m.Create(ctx, 1, "A", model.RoleAdmin)
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)

	_, expiredErr := m.Validate(ctx, token)
	_, unknownErr := m.Validate(ctx, "never-issued")

	assert.Equal(t,
		apperrors.MapErrorToHTTP(expiredErr),
		apperrors.MapErrorToHTTP(unknownErr),
	)
}

func TestManager_Destroy(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	token, _, err := m.Create(ctx, 1, "A", model.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx, token))

	_, err = m.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionMissing)
	assert.NoError(t, m.Destroy(ctx, token))
	assert.NoError(t, m.Destroy(ctx, "garbage"))
	assert.NoError(t, m.Destroy(ctx, ""))
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	m, store, clock := newTestManager(t)
	ctx := context.Background()

	token, _, err := m.Create(ctx, 1, "A", model.RoleAdmin)
	require.NoError(t, err)

	forger := NewManager(store, NewJWTService("other-secret"), WithClock(clock.Now))
	_, err = forger.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionMissing)

	_, err = m.Validate(ctx, token+"x")
	assert.ErrorIs(t, err, ErrSessionMissing)

	_, err = m.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestManager_WithTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewManager(NewMemoryStore(), NewJWTService("s"), WithClock(clock.Now), WithTTL(time.Hour))
	ctx := context.Background()

	token, expiresAt, err := m.Create(ctx, 1, "A", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.TTL())
	assert.Equal(t, clock.now.Add(time.Hour), expiresAt)

	clock.Advance(time.Hour)
	_, err = m.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

type failingStore struct{}

func (failingStore) Save(context.Context, *Session, time.Duration) error {
	return apperrors.Unavailable(errors.New("connection refused"))
}

func (failingStore) Get(context.Context, string) (*Session, error) {
	return nil, apperrors.Unavailable(errors.New("connection refused"))
}

func (failingStore) Delete(context.Context, string) error { return nil }

func TestManager_StoreFailureIsNotUnauthenticated(t *testing.T) {
	m := NewManager(failingStore{}, NewJWTService("s"))

	_, _, err := m.Create(context.Background(), 1, "A", model.RoleUser)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	token, err := NewJWTService("s").Sign("id", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = m.Validate(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.False(t, errors.Is(err, apperrors.ErrUnauthenticated))
}

func TestMemoryStore_CopiesOnRead(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Session{ID: "a", UserName: "A"}, time.Hour))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	got.UserName = "changed"

	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", again.UserName)
}

func TestMemoryStore_DeadlineAndSweep(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "old"}, time.Minute))
	now = now.Add(2 * time.Minute)

	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionMissing)

	require.NoError(t, store.Save(ctx, &Session{ID: "stale"}, time.Minute))
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, &Session{ID: "fresh"}, time.Minute))
	assert.Equal(t, 1, store.Len())
}
