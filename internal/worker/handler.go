package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/repository"
	"collaborative-canvas/internal/tasks"
)

// CommitAuditHandler 处理提交审计的落库任务
type CommitAuditHandler struct {
	commitRepo repository.CommitRepository
}

// NewCommitAuditHandler 创建 Handler 实例
func NewCommitAuditHandler(commitRepo repository.CommitRepository) *CommitAuditHandler {
	if commitRepo == nil {
		panic("CommitRepository cannot be nil for CommitAuditHandler")
	}
	return &CommitAuditHandler{commitRepo: commitRepo}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *CommitAuditHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})
	logCtx.Info("Processing commit audit task...")

	var payload tasks.CommitAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	commit := domain.StoreCommit{
		RoomID:      payload.RoomID,
		Version:     payload.Version,
		Origin:      payload.Origin,
		ByteSize:    payload.ByteSize,
		CommittedAt: payload.CommittedAt,
	}
	if err := h.commitRepo.Save(ctx, &commit); err != nil {
		logCtx.WithError(err).Errorf("Failed to save commit audit record for room %s version %d", payload.RoomID, payload.Version)
		return fmt.Errorf("failed to save commit audit (room %s, version %d): %w", payload.RoomID, payload.Version, err)
	}

	logCtx.WithFields(logrus.Fields{
		"room_id": payload.RoomID,
		"version": payload.Version,
	}).Info("Commit audit task processed successfully")
	return nil
}
