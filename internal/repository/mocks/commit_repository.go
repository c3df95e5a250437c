package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"collaborative-canvas/internal/domain"
)

// CommitRepository 是 repository.CommitRepository 的 testify Mock 实现
type CommitRepository struct {
	mock.Mock
}

func (m *CommitRepository) Save(ctx context.Context, commit *domain.StoreCommit) error {
	args := m.Called(ctx, commit)
	return args.Error(0)
}

func (m *CommitRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
