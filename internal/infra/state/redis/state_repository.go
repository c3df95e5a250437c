package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/repository"
)

// RedisStateRepository 是 StateRepository 接口的 Redis 实现。
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateRepository 创建 RedisStateRepository 实例
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "canvas:"
	}
	return &RedisStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---

func (r *RedisStateRepository) roomUpdateChannel(roomID string) string {
	return fmt.Sprintf("%sroom:%s:updates", r.keyPrefix, roomID)
}

func (r *RedisStateRepository) roomPresenceKey(roomID string) string {
	return fmt.Sprintf("%sroom:%s:presence", r.keyPrefix, roomID)
}

// --- StateRepository Interface Implementation ---

// PublishUpdate 将已提交的更新发布到房间频道，供其他服务进程消费。
func (r *RedisStateRepository) PublishUpdate(ctx context.Context, roomID string, payload []byte) error {
	channel := r.roomUpdateChannel(roomID)
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish update for room %q to %s: %w", roomID, channel, err)
	}
	return nil
}

// SubscribeUpdates 订阅房间更新频道。
// 返回的 Subscription 在 Close 后关闭其 Messages 通道。
func (r *RedisStateRepository) SubscribeUpdates(ctx context.Context, roomID string) (repository.Subscription, error) {
	channel := r.roomUpdateChannel(roomID)
	pubsub := r.client.Subscribe(ctx, channel)
	// Receive 确认订阅建立，失败时立即暴露给调用者而不是静默丢消息
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe to %s: %w", channel, err)
	}

	sub := &redisSubscription{pubsub: pubsub, msgs: make(chan []byte, 64)}
	go sub.pump(roomID)
	return sub, nil
}

// SetPresence 以 TTL 记录参与者在线状态（Hash + 整键过期）。
func (r *RedisStateRepository) SetPresence(ctx context.Context, roomID, participantID string, payload []byte, ttl time.Duration) error {
	key := r.roomPresenceKey(roomID)
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, participantID, payload)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set presence for %q in room %q: %w", participantID, roomID, err)
	}
	return nil
}

func (r *RedisStateRepository) ClearPresence(ctx context.Context, roomID, participantID string) error {
	key := r.roomPresenceKey(roomID)
	if err := r.client.HDel(ctx, key, participantID).Err(); err != nil {
		return fmt.Errorf("redis: clear presence for %q in room %q: %w", participantID, roomID, err)
	}
	return nil
}

// redisSubscription 包装 *redis.PubSub，对上层只暴露字节通道。
type redisSubscription struct {
	pubsub *redis.PubSub
	msgs   chan []byte
}

func (s *redisSubscription) Messages() <-chan []byte { return s.msgs }

func (s *redisSubscription) Close() error { return s.pubsub.Close() }

// pump 将 PubSub 消息搬运到字节通道；PubSub 关闭后通道随之关闭。
func (s *redisSubscription) pump(roomID string) {
	defer close(s.msgs)
	for msg := range s.pubsub.Channel() {
		select {
		case s.msgs <- []byte(msg.Payload):
		default:
			// 消费方积压时丢弃，订阅通道不能阻塞 Redis 读循环
			logrus.WithField("room_id", roomID).Warn("Update subscription buffer full, dropping message")
		}
	}
}
