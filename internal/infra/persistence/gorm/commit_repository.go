package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"collaborative-canvas/internal/domain"
)

// GormCommitRepository 是 CommitRepository 接口的 GORM 实现。
type GormCommitRepository struct {
	db *gorm.DB
}

func NewGormCommitRepository(db *gorm.DB) *GormCommitRepository {
	if db == nil {
		panic("database connection cannot be nil for GormCommitRepository")
	}
	return &GormCommitRepository{db: db}
}

func (r *GormCommitRepository) Save(ctx context.Context, commit *domain.StoreCommit) error {
	if err := r.db.WithContext(ctx).Create(commit).Error; err != nil {
		return fmt.Errorf("gorm: save store commit (room %q, version %d): %w",
			commit.RoomID, commit.Version, err)
	}
	return nil
}

func (r *GormCommitRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("committed_at < ?", cutoff).
		Delete(&domain.StoreCommit{})
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: prune store commits before %s: %w", cutoff.Format(time.RFC3339), result.Error)
	}
	return result.RowsAffected, nil
}
