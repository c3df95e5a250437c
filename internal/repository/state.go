package repository

import (
	"context"
	"time"
)

// Subscription 是一个房间更新频道的订阅句柄。
// Messages 在 Close 后关闭。
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// StateRepository 定义与实时状态相关的操作，由 Redis 实现。
// 文档本身不经过这里：条件更新发生在数据库，这里只做投递和瞬时状态。
type StateRepository interface {
	// PublishUpdate 将已提交的更新消息发布到房间频道，
	// 使同一存储上的其他服务进程也能向各自的会话广播。
	PublishUpdate(ctx context.Context, roomID string, payload []byte) error

	// SubscribeUpdates 订阅房间更新频道。
	SubscribeUpdates(ctx context.Context, roomID string) (Subscription, error)

	// SetPresence 以 TTL 记录参与者的在线状态（仅供观测，转发不依赖它）。
	SetPresence(ctx context.Context, roomID, participantID string, payload []byte, ttl time.Duration) error

	// ClearPresence 移除参与者的在线状态记录。
	ClearPresence(ctx context.Context, roomID, participantID string) error
}
