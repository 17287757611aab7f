package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"adminconsole/internal/auth"
	"adminconsole/internal/cache"
	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/model"
)

const (
	userCacheTTL     = 30 * time.Second
	recentUsersLimit = 5
	maxNameLen       = 100
)

// CreateAccountInput is the payload of an account creation.
type CreateAccountInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateAccountInput is the payload of an account update.
type UpdateAccountInput struct {
	ID     uint
	Name   string
	Email  string
	Role   string
	Status string
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// DirectoryService manages the account roster. Mutations are authorised
// against the acting identity and audited.
type DirectoryService interface {
	List(ctx context.Context, actor *auth.Identity) ([]model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	CreateAccount(ctx context.Context, actor *auth.Identity, in CreateAccountInput, ip string) (*model.User, error)
	UpdateAccount(ctx context.Context, actor *auth.Identity, in UpdateAccountInput, ip string) (*model.User, error)
	DeleteAccount(ctx context.Context, actor *auth.Identity, id uint, ip string) error
	Authenticate(ctx context.Context, email, password, ip string) (*LoginResult, error)
	Logout(ctx context.Context, token, ip string) error
	Stats(ctx context.Context, actor *auth.Identity) (*model.Stats, error)
	RecentActivity(ctx context.Context, actor *auth.Identity, limit int) ([]model.ActivityLog, error)
}

type directoryService struct {
	creds    CredentialStore
	sessions *auth.Manager
	activity ActivityService
	cache    *cache.Client
	logger   *zap.Logger
	validate *validator.Validate
}

// NewDirectoryService builds a DirectoryService. cache may be nil.
func NewDirectoryService(creds CredentialStore, sessions *auth.Manager, activity ActivityService, cache *cache.Client, logger *zap.Logger) DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &directoryService{
		creds:    creds,
		sessions: sessions,
		activity: activity,
		cache:    cache,
		logger:   logger,
		validate: validator.New(),
	}
}

func (s *directoryService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *directoryService) List(ctx context.Context, actor *auth.Identity) ([]model.User, error) {
	if _, err := auth.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	return s.creds.List(ctx)
}

// GetUser returns the current state of a user, served from cache for a short TTL.
func (s *directoryService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.creds.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *directoryService) CreateAccount(ctx context.Context, actor *auth.Identity, in CreateAccountInput, ip string) (*model.User, error) {
	if _, err := auth.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	if err := s.validateProfile(in.Name, in.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return nil, apperrors.Invalid("role %q is not one of admin, manager, user", in.Role)
	}

	creator := actor.UserID
	user, err := s.creds.Create(ctx, NewCredential{
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.Password,
		Role:      role,
		CreatedBy: &creator,
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor.UserID, model.ActionCreateUser, "Created user: "+user.Email, ip)
	return user, nil
}

func (s *directoryService) UpdateAccount(ctx context.Context, actor *auth.Identity, in UpdateAccountInput, ip string) (*model.User, error) {
	if _, err := auth.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	if in.ID == 0 {
		return nil, apperrors.Invalid("id is required")
	}
	if err := s.validateProfile(in.Name, in.Email); err != nil {
		return nil, err
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return nil, apperrors.Invalid("role %q is not one of admin, manager, user", in.Role)
	}
	status, ok := model.ParseStatus(in.Status)
	if !ok {
		return nil, apperrors.Invalid("status %q is not one of active, inactive", in.Status)
	}

	user, err := s.creds.Update(ctx, in.ID, ProfileUpdate{
		Name:   in.Name,
		Email:  in.Email,
		Role:   role,
		Status: status,
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(in.ID))

	s.audit(ctx, actor.UserID, model.ActionUpdateUser, fmt.Sprintf("Updated user ID: %d", in.ID), ip)
	return user, nil
}

// DeleteAccount removes a user. Self-deletion is refused before anything else,
// whatever the actor's role.
func (s *directoryService) DeleteAccount(ctx context.Context, actor *auth.Identity, id uint, ip string) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	if id == actor.UserID {
		return apperrors.ErrSelfDeletion
	}
	if _, err := auth.RequirePrivileged(actor); err != nil {
		return err
	}
	if id == 0 {
		return apperrors.Invalid("id is required")
	}

	if err := s.creds.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	s.audit(ctx, actor.UserID, model.ActionDeleteUser, fmt.Sprintf("Deleted user ID: %d", id), ip)
	return nil
}

// Authenticate verifies credentials and opens a session. The login is audited
// before the token is handed back.
func (s *directoryService) Authenticate(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}
	user, err := s.creds.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.sessions.Create(ctx, user.ID, user.Name, user.Role)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.audit(ctx, user.ID, model.ActionLogin, "", ip)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *directoryService) Logout(ctx context.Context, token, ip string) error {
	identity, validErr := s.sessions.Validate(ctx, token)
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return err
	}
	if validErr == nil {
		s.audit(ctx, identity.UserID, model.ActionLogout, "", ip)
	}
	return nil
}

func (s *directoryService) Stats(ctx context.Context, actor *auth.Identity) (*model.Stats, error) {
	if _, err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	total, err := s.creds.Count(ctx)
	if err != nil {
		return nil, err
	}
	today, err := s.activity.CountToday(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.creds.Recent(ctx, recentUsersLimit)
	if err != nil {
		return nil, err
	}

	stats := &model.Stats{
		TotalUsers:    total,
		TodayActivity: today,
		RecentUsers:   make([]model.UserSummary, 0, len(recent)),
	}
	for _, u := range recent {
		stats.RecentUsers = append(stats.RecentUsers, u.Summary())
	}
	return stats, nil
}

func (s *directoryService) RecentActivity(ctx context.Context, actor *auth.Identity, limit int) ([]model.ActivityLog, error) {
	if _, err := auth.RequirePrivileged(actor); err != nil {
		return nil, err
	}
	return s.activity.Recent(ctx, limit)
}

// audit records an entry. A failed write after a successful mutation is
// logged, not rolled back.
func (s *directoryService) audit(ctx context.Context, actorID uint, action, details, ip string) {
	if err := s.activity.Append(ctx, actorID, action, details, ip); err != nil {
		s.logger.Error("audit write failed",
			zap.Uint("actor_id", actorID),
			zap.String("action", action),
			zap.String("details", details),
			zap.Error(err),
		)
	}
}

func (s *directoryService) validateProfile(name, email string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.Invalid("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return apperrors.Invalid("name must be at most %d characters", maxNameLen)
	}
	if err := s.validate.Var(NormalizeEmail(email), "required,email,max=100"); err != nil {
		return apperrors.Invalid("email is not valid")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return apperrors.Invalid("password is required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperrors.Invalid("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}
