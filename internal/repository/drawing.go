package repository

import (
	"context"

	"collaborative-canvas/internal/domain"
)

// DrawingRepository 定义画板元数据的存储和检索操作。
type DrawingRepository interface {
	// Create 保存新画板，ID 缺省时由模型钩子生成。
	Create(ctx context.Context, drawing *domain.Drawing) error

	// FindAll 返回全部画板的元数据（不含 store 载荷）。
	FindAll(ctx context.Context) ([]domain.Drawing, error)

	// FindByID 根据 ID 查找画板；不存在时返回 ErrDrawingNotFound。
	FindByID(ctx context.Context, id string) (*domain.Drawing, error)

	// Update 按字段部分更新画板；不存在时返回 ErrDrawingNotFound。
	Update(ctx context.Context, id string, fields map[string]interface{}) error

	// Delete 删除画板；不存在时返回 ErrDrawingNotFound。
	Delete(ctx context.Context, id string) error
}
