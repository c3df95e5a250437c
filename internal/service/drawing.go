package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/repository"
)

// DrawingService 负责画板元数据的普通 CRUD，不涉及实时同步。
type DrawingService struct {
	drawingRepo repository.DrawingRepository
}

func NewDrawingService(drawingRepo repository.DrawingRepository) *DrawingService {
	if drawingRepo == nil {
		panic("DrawingRepository cannot be nil for DrawingService")
	}
	return &DrawingService{drawingRepo: drawingRepo}
}

// Create 保存新画板。store 必须提供，但内容不做 schema 校验。
func (s *DrawingService) Create(ctx context.Context, name, storeJSON string) (*domain.Drawing, error) {
	if storeJSON == "" {
		return nil, ErrInvalidPayload
	}
	drawing := &domain.Drawing{Name: name, StoreJSON: storeJSON}
	if err := s.drawingRepo.Create(ctx, drawing); err != nil {
		logrus.WithError(err).Error("Failed to create drawing")
		return nil, ErrInternalServer
	}
	logrus.WithField("drawing_id", drawing.ID).Info("Drawing created")
	return drawing, nil
}

// List 返回全部画板元数据（不含 store 载荷）。
func (s *DrawingService) List(ctx context.Context) ([]domain.Drawing, error) {
	drawings, err := s.drawingRepo.FindAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list drawings")
		return nil, ErrInternalServer
	}
	return drawings, nil
}

func (s *DrawingService) Get(ctx context.Context, id string) (*domain.Drawing, error) {
	drawing, err := s.drawingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDrawingNotFound) {
			return nil, ErrDrawingNotFound
		}
		logrus.WithError(err).WithField("drawing_id", id).Error("Failed to find drawing")
		return nil, ErrInternalServer
	}
	return drawing, nil
}

// Update 部分更新画板的 name 和/或 store，更新后返回最新行。
func (s *DrawingService) Update(ctx context.Context, id string, name, storeJSON *string) (*domain.Drawing, error) {
	fields := map[string]interface{}{}
	if name != nil {
		fields["name"] = *name
	}
	if storeJSON != nil {
		fields["store"] = *storeJSON
	}
	if len(fields) == 0 {
		return nil, ErrInvalidPayload
	}
	if err := s.drawingRepo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrDrawingNotFound) {
			return nil, ErrDrawingNotFound
		}
		logrus.WithError(err).WithField("drawing_id", id).Error("Failed to update drawing")
		return nil, ErrInternalServer
	}
	return s.Get(ctx, id)
}

func (s *DrawingService) Delete(ctx context.Context, id string) error {
	if err := s.drawingRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrDrawingNotFound) {
			return ErrDrawingNotFound
		}
		logrus.WithError(err).WithField("drawing_id", id).Error("Failed to delete drawing")
		return ErrInternalServer
	}
	logrus.WithField("drawing_id", id).Info("Drawing deleted")
	return nil
}
