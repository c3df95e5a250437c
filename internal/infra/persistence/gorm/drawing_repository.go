package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/repository"
)

// GormDrawingRepository 是 DrawingRepository 接口的 GORM 实现。
type GormDrawingRepository struct {
	db *gorm.DB
}

func NewGormDrawingRepository(db *gorm.DB) *GormDrawingRepository {
	if db == nil {
		panic("database connection cannot be nil for GormDrawingRepository")
	}
	return &GormDrawingRepository{db: db}
}

func (r *GormDrawingRepository) Create(ctx context.Context, drawing *domain.Drawing) error {
	if err := r.db.WithContext(ctx).Create(drawing).Error; err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create drawing: %w", err)
	}
	return nil
}

// FindAll 只选取元数据列，列表接口不返回 store 载荷。
func (r *GormDrawingRepository) FindAll(ctx context.Context) ([]domain.Drawing, error) {
	var drawings []domain.Drawing
	err := r.db.WithContext(ctx).
		Select("id", "name", "created_at", "updated_at").
		Find(&drawings).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list drawings: %w", err)
	}
	return drawings, nil
}

func (r *GormDrawingRepository) FindByID(ctx context.Context, id string) (*domain.Drawing, error) {
	var drawing domain.Drawing
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&drawing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrDrawingNotFound
		}
		return nil, fmt.Errorf("gorm: find drawing %q: %w", id, err)
	}
	return &drawing, nil
}

func (r *GormDrawingRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Drawing{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("gorm: update drawing %q: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		// MySQL 默认报告 changed rows 而非 matched rows：
		// 重复提交相同值的更新同样零行命中，必须和画板缺失区分开
		var count int64
		err := r.db.WithContext(ctx).
			Model(&domain.Drawing{}).
			Where("id = ?", id).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("gorm: verify drawing %q after no-op update: %w", id, err)
		}
		if count == 0 {
			return repository.ErrDrawingNotFound
		}
	}
	return nil
}

func (r *GormDrawingRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Drawing{})
	if result.Error != nil {
		return fmt.Errorf("gorm: delete drawing %q: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrDrawingNotFound
	}
	return nil
}
