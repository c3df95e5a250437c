package repository

import (
	"context"
	"time"

	"collaborative-canvas/internal/domain"
)

// CommitRepository 定义提交审计记录在持久化存储中的操作。
type CommitRepository interface {
	// Save 保存一条提交审计记录。
	Save(ctx context.Context, commit *domain.StoreCommit) error

	// DeleteOlderThan 删除早于给定时刻的审计记录，返回删除行数。
	// 由周期性后台任务调用。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
