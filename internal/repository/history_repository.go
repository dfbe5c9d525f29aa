package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"avatar-chat/internal/model"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *model.SearchHistory) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create search history failed: %w", err)
	}
	return nil
}

// LatestByUserID returns the newest row for the user, or nil when there is
// none. Rows sharing a timestamp resolve to the one inserted last.
func (r *HistoryRepository) LatestByUserID(ctx context.Context, userID uint) (*model.SearchHistory, error) {
	var entry model.SearchHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest search history failed: %w", err)
	}
	return &entry, nil
}
