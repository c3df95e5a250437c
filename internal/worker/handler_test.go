package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/repository/mocks"
	"collaborative-canvas/internal/tasks"
	"collaborative-canvas/internal/worker"
)

func TestCommitAuditHandler_ProcessTask_Success(t *testing.T) {
	mockCommitRepo := new(mocks.CommitRepository)
	handler := worker.NewCommitAuditHandler(mockCommitRepo)
	ctx := context.Background()

	committedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	task, err := tasks.NewCommitAuditTask("room-1", 7, "patch", 2048, committedAt)
	require.NoError(t, err)

	mockCommitRepo.On("Save", ctx, mock.MatchedBy(func(commit *domain.StoreCommit) bool {
		return commit.RoomID == "room-1" &&
			commit.Version == 7 &&
			commit.Origin == "patch" &&
			commit.ByteSize == 2048 &&
			commit.CommittedAt.Equal(committedAt)
	})).Return(nil).Once()

	err = handler.ProcessTask(ctx, task)
	assert.NoError(t, err)
	mockCommitRepo.AssertExpectations(t)
}

func TestCommitAuditHandler_ProcessTask_BadPayloadSkipsRetry(t *testing.T) {
	mockCommitRepo := new(mocks.CommitRepository)
	handler := worker.NewCommitAuditHandler(mockCommitRepo)

	task := asynq.NewTask(tasks.TypeCommitAudit, []byte("not json"))

	err := handler.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry, "损坏的载荷不应重试")
	mockCommitRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCommitAuditHandler_ProcessTask_SaveFailureRetries(t *testing.T) {
	mockCommitRepo := new(mocks.CommitRepository)
	handler := worker.NewCommitAuditHandler(mockCommitRepo)
	ctx := context.Background()

	task, err := tasks.NewCommitAuditTask("room-1", 1, "set", 10, time.Now().UTC())
	require.NoError(t, err)

	mockCommitRepo.On("Save", ctx, mock.Anything).
		Return(errors.New("db unavailable")).Once()

	err = handler.ProcessTask(ctx, task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "存储临时故障应保留重试机会")
}

func TestCommitPruneHandler_ProcessTask(t *testing.T) {
	mockCommitRepo := new(mocks.CommitRepository)
	retention := 24 * time.Hour
	handler := worker.NewCommitPruneHandler(mockCommitRepo, retention)
	ctx := context.Background()

	mockCommitRepo.On("DeleteOlderThan", ctx, mock.MatchedBy(func(cutoff time.Time) bool {
		// cutoff 应落在 now-retention 附近
		expected := time.Now().UTC().Add(-retention)
		return cutoff.After(expected.Add(-time.Minute)) && cutoff.Before(expected.Add(time.Minute))
	})).Return(int64(3), nil).Once()

	err := handler.ProcessTask(ctx, tasks.NewCommitPruneTask())
	assert.NoError(t, err)
	mockCommitRepo.AssertExpectations(t)
}

func TestCommitPruneHandler_ProcessTask_Failure(t *testing.T) {
	mockCommitRepo := new(mocks.CommitRepository)
	handler := worker.NewCommitPruneHandler(mockCommitRepo, time.Hour)

	mockCommitRepo.On("DeleteOlderThan", mock.Anything, mock.Anything).
		Return(int64(0), errors.New("db unavailable")).Once()

	err := handler.ProcessTask(context.Background(), tasks.NewCommitPruneTask())
	assert.Error(t, err)
}
