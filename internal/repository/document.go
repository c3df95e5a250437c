package repository

import (
	"context"

	"collaborative-canvas/internal/domain"
)

// DocumentRepository 定义房间文档的持久化操作。
type DocumentRepository interface {
	// Find 返回房间文档。
	// 房间不存在时返回 ErrRoomNotFound，调用方据此区分"变更目标缺失"。
	Find(ctx context.Context, roomID string) (*domain.RoomDocument, error)

	// GetOrCreate 返回房间文档，不存在时以空 Store、版本 0 惰性创建。
	// 并发创建同一房间时由唯一索引保证只有一行落库，落败方读取已提交的行。
	GetOrCreate(ctx context.Context, roomID string) (*domain.RoomDocument, error)

	// CompareAndSwap 执行条件更新：
	// 仅当存储中的版本仍等于 expectedPrev 时，原子地写入
	// (nextStoreJSON, expectedPrev+1)。必须恰好命中一行；
	// 零行命中返回 ErrStaleVersion，由调用方映射为并发更新冲突。
	CompareAndSwap(ctx context.Context, roomID string, expectedPrev uint64, nextStoreJSON string) (*domain.RoomDocument, error)
}
