package service

import (
	"context"
	"time"

	"adminconsole/internal/model"
	"adminconsole/internal/repository"
)

// ActivityService appends to and reads the audit trail.
type ActivityService interface {
	// Append writes one entry synchronously.
	Append(ctx context.Context, userID uint, action, details, ip string) error
	// CountToday counts entries since local midnight.
	CountToday(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]model.ActivityLog, error)
}

type activityService struct {
	repo repository.ActivityLogRepository
	now  func() time.Time
}

// NewActivityService creates a new activity service.
func NewActivityService(repo repository.ActivityLogRepository) ActivityService {
	return &activityService{repo: repo, now: time.Now}
}

func (s *activityService) Append(ctx context.Context, userID uint, action, details, ip string) error {
	actor := userID
	return s.repo.Create(ctx, &model.ActivityLog{
		UserID:    &actor,
		Action:    action,
		Details:   details,
		IPAddress: ip,
		CreatedAt: s.now(),
	})
}

func (s *activityService) CountToday(ctx context.Context) (int64, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.CountSince(ctx, midnight)
}

func (s *activityService) Recent(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	return s.repo.Recent(ctx, limit)
}
