package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"collaborative-canvas/internal/domain"
)

// DocumentRepository 是 repository.DocumentRepository 的 testify Mock 实现
type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Find(ctx context.Context, roomID string) (*domain.RoomDocument, error) {
	args := m.Called(ctx, roomID)
	var doc *domain.RoomDocument
	if args.Get(0) != nil {
		doc = args.Get(0).(*domain.RoomDocument)
	}
	return doc, args.Error(1)
}

func (m *DocumentRepository) GetOrCreate(ctx context.Context, roomID string) (*domain.RoomDocument, error) {
	args := m.Called(ctx, roomID)
	var doc *domain.RoomDocument
	if args.Get(0) != nil {
		doc = args.Get(0).(*domain.RoomDocument)
	}
	return doc, args.Error(1)
}

func (m *DocumentRepository) CompareAndSwap(ctx context.Context, roomID string, expectedPrev uint64, nextStoreJSON string) (*domain.RoomDocument, error) {
	args := m.Called(ctx, roomID, expectedPrev, nextStoreJSON)
	var doc *domain.RoomDocument
	if args.Get(0) != nil {
		doc = args.Get(0).(*domain.RoomDocument)
	}
	return doc, args.Error(1)
}
