package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"adminconsole/internal/model"
)

// ActivityLogRepository defines audit trail persistence operations.
// Entries are never updated or deleted through it.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
	// Recent returns the newest limit entries with their actor loaded.
	Recent(ctx context.Context, limit int) ([]model.ActivityLog, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository creates a new activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

// Create appends an entry.
func (r *activityLogRepository) Create(ctx context.Context, entry *model.ActivityLog) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *activityLogRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ActivityLog{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	return n, translate(err)
}

func (r *activityLogRepository) Recent(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	var entries []model.ActivityLog
	err := newestFirst(r.db.WithContext(ctx), limit).
		Preload("User", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "name")
		}).
		Find(&entries).Error
	if err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

func newestFirst(tx *gorm.DB, limit int) *gorm.DB {
	return tx.Order("created_at DESC").Order("seq DESC").Limit(limit)
}
