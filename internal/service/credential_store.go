package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"adminconsole/internal/auth"
	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/model"
	"adminconsole/internal/repository"
)

// NewCredential is the input for creating a user record.
type NewCredential struct {
	Name      string
	Email     string
	Password  string
	Role      model.Role
	CreatedBy *uint
}

// ProfileUpdate holds the mutable fields of a user.
type ProfileUpdate struct {
	Name   string
	Email  string
	Role   model.Role
	Status model.Status
}

// CredentialStore owns user records and their password hashes. Users it
// returns never carry the hash.
type CredentialStore interface {
	Create(ctx context.Context, in NewCredential) (*model.User, error)
	Verify(ctx context.Context, email, password string) (*model.User, error)
	Update(ctx context.Context, id uint, fields ProfileUpdate) (*model.User, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Recent(ctx context.Context, limit int) ([]model.User, error)
	Count(ctx context.Context) (int64, error)
	// EnsureAdmin seeds one active admin when no user exists.
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

type credentialStore struct {
	repo   repository.UserRepository
	hasher auth.PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialStore creates a credential store over repo.
func NewCredentialStore(repo repository.UserRepository, hasher auth.PasswordHasher) CredentialStore {
	return &credentialStore{repo: repo, hasher: hasher}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *credentialStore) Create(ctx context.Context, in NewCredential) (*model.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		Status:       model.StatusActive,
		CreatedBy:    in.CreatedBy,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return scrub(user), nil
}

// Verify checks a login. Unknown, inactive and wrong-password all yield
// ErrInvalidCredentials after a full hash comparison.
func (s *credentialStore) Verify(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.hasher.Verify(s.dummy(), password)
		return nil, apperrors.ErrInvalidCredentials
	}
	ok := s.hasher.Verify(user.PasswordHash, password)
	if !ok || !user.IsActive() {
		return nil, apperrors.ErrInvalidCredentials
	}
	return scrub(user), nil
}

func (s *credentialStore) Update(ctx context.Context, id uint, fields ProfileUpdate) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = strings.TrimSpace(fields.Name)
	user.Email = NormalizeEmail(fields.Email)
	user.Role = fields.Role
	user.Status = fields.Status
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return scrub(user), nil
}

func (s *credentialStore) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *credentialStore) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return scrub(user), nil
}

func (s *credentialStore) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *credentialStore) Recent(ctx context.Context, limit int) ([]model.User, error) {
	users, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *credentialStore) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *credentialStore) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.Create(ctx, NewCredential{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if errors.Is(err, apperrors.ErrDuplicateEmail) {
		// another instance seeded it first
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func (s *credentialStore) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	return s.dummyHash
}

func scrub(u *model.User) *model.User {
	u.PasswordHash = ""
	return u
}
