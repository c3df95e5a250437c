package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"collaborative-canvas/internal/domain"
)

// DrawingRepository 是 repository.DrawingRepository 的 testify Mock 实现
type DrawingRepository struct {
	mock.Mock
}

func (m *DrawingRepository) Create(ctx context.Context, drawing *domain.Drawing) error {
	args := m.Called(ctx, drawing)
	return args.Error(0)
}

func (m *DrawingRepository) FindAll(ctx context.Context) ([]domain.Drawing, error) {
	args := m.Called(ctx)
	var drawings []domain.Drawing
	if args.Get(0) != nil {
		drawings = args.Get(0).([]domain.Drawing)
	}
	return drawings, args.Error(1)
}

func (m *DrawingRepository) FindByID(ctx context.Context, id string) (*domain.Drawing, error) {
	args := m.Called(ctx, id)
	var drawing *domain.Drawing
	if args.Get(0) != nil {
		drawing = args.Get(0).(*domain.Drawing)
	}
	return drawing, args.Error(1)
}

func (m *DrawingRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *DrawingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
