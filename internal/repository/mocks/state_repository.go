package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"collaborative-canvas/internal/repository"
)

// StateRepository 是 repository.StateRepository 的 testify Mock 实现
type StateRepository struct {
	mock.Mock
}

func (m *StateRepository) PublishUpdate(ctx context.Context, roomID string, payload []byte) error {
	args := m.Called(ctx, roomID, payload)
	return args.Error(0)
}

func (m *StateRepository) SubscribeUpdates(ctx context.Context, roomID string) (repository.Subscription, error) {
	args := m.Called(ctx, roomID)
	var sub repository.Subscription
	if args.Get(0) != nil {
		sub = args.Get(0).(repository.Subscription)
	}
	return sub, args.Error(1)
}

func (m *StateRepository) SetPresence(ctx context.Context, roomID, participantID string, payload []byte, ttl time.Duration) error {
	args := m.Called(ctx, roomID, participantID, payload, ttl)
	return args.Error(0)
}

func (m *StateRepository) ClearPresence(ctx context.Context, roomID, participantID string) error {
	args := m.Called(ctx, roomID, participantID)
	return args.Error(0)
}

// FakeSubscription 是 repository.Subscription 的简单内存实现，供测试注入。
type FakeSubscription struct {
	Ch     chan []byte
	closed bool
}

func NewFakeSubscription() *FakeSubscription {
	return &FakeSubscription{Ch: make(chan []byte, 16)}
}

func (f *FakeSubscription) Messages() <-chan []byte {
	return f.Ch
}

func (f *FakeSubscription) Close() error {
	if !f.closed {
		f.closed = true
		close(f.Ch)
	}
	return nil
}
