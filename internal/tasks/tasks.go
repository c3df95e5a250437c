package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量
const (
	TypeCommitAudit = "commit:audit"
	TypeCommitPrune = "commit:prune"
)

// CommitAuditPayload 记录一次已提交变更的元数据（不含文档内容）。
type CommitAuditPayload struct {
	RoomID      string    `json:"room_id"`
	Version     uint64    `json:"version"`
	Origin      string    `json:"origin"`
	ByteSize    int       `json:"byte_size"`
	CommittedAt time.Time `json:"committed_at"`
}

// NewCommitAuditTask 创建提交审计任务。
func NewCommitAuditTask(roomID string, version uint64, origin string, byteSize int, committedAt time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(CommitAuditPayload{
		RoomID:      roomID,
		Version:     version,
		Origin:      origin,
		ByteSize:    byteSize,
		CommittedAt: committedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal commit audit payload: %w", err)
	}
	return asynq.NewTask(TypeCommitAudit, payload, asynq.MaxRetry(3), asynq.Queue("default")), nil
}

// NewCommitPruneTask 创建审计记录清理任务（由调度器周期触发，无载荷）。
func NewCommitPruneTask() *asynq.Task {
	return asynq.NewTask(TypeCommitPrune, nil, asynq.MaxRetry(1), asynq.Queue("low"))
}
