package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/repository"
)

// CommitPruneHandler 处理周期性的审计记录清理任务
type CommitPruneHandler struct {
	commitRepo repository.CommitRepository
	retention  time.Duration
}

// NewCommitPruneHandler 创建 Handler 实例
func NewCommitPruneHandler(commitRepo repository.CommitRepository, retention time.Duration) *CommitPruneHandler {
	if commitRepo == nil {
		panic("CommitRepository cannot be nil for CommitPruneHandler")
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &CommitPruneHandler{commitRepo: commitRepo, retention: retention}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *CommitPruneHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})
	logCtx.Info("Processing periodic commit prune task...")

	cutoff := time.Now().UTC().Add(-h.retention)
	deleted, err := h.commitRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logCtx.WithError(err).Error("Failed to prune old commit audit records")
		return fmt.Errorf("failed to prune commits older than %s: %w", cutoff.Format(time.RFC3339), err)
	}

	logCtx.WithFields(logrus.Fields{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	}).Info("Commit prune task completed successfully")
	return nil
}
