package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/repository"
)

// CollabService 实现房间文档的乐观并发更新。
// 版本号是唯一仲裁者：不做字段级合并、不做 OT；
// 两个客户端对同一基准版本竞争时恰好一个提交成功，
// 落败方必须重新拉取状态后自行重试，服务端从不代为重试。
type CollabService struct {
	docRepo repository.DocumentRepository
}

// NewCollabService 创建 CollabService 实例。
func NewCollabService(docRepo repository.DocumentRepository) *CollabService {
	if docRepo == nil {
		panic("DocumentRepository cannot be nil for CollabService")
	}
	return &CollabService{docRepo: docRepo}
}

// GetOrCreate 返回房间文档，房间不存在时以空文档、版本 0 惰性创建。
// join 和 getDocument 都走这条路径；变更操作不会创建房间。
func (s *CollabService) GetOrCreate(ctx context.Context, roomID string) (*domain.RoomDocument, error) {
	doc, err := s.docRepo.GetOrCreate(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to get or create room document")
		return nil, ErrInternalServer
	}
	return doc, nil
}

// SetDocument 全量替换房间文档，期望提交为 nextVersion（即基于 nextVersion-1）。
// 处理顺序固定：体积守卫 → 结构校验 → 读取当前行 → 版本预检 → 条件更新。
// 预检失败返回 ErrVersionConflict（未发起写入）；
// 条件更新零行命中返回 ErrConcurrentUpdate（预检之后被并发写入者抢先）。
func (s *CollabService) SetDocument(ctx context.Context, roomID string, storeJSON []byte, nextVersion uint64) (*domain.RoomDocument, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "incoming_version": nextVersion})

	if err := guardDocumentSize(len(storeJSON)); err != nil {
		logCtx.WithField("size", len(storeJSON)).Warn("Document payload rejected by size guard")
		return nil, err
	}

	var store domain.Store
	if err := json.Unmarshal(storeJSON, &store); err != nil {
		logCtx.WithError(err).Warn("Failed to unmarshal document payload")
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if store.Records == nil {
		store.Records = map[string]domain.Record{}
	}
	if err := store.Validate(); err != nil {
		logCtx.WithError(err).Warn("Document payload failed validation")
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	current, err := s.findDocument(ctx, roomID, logCtx)
	if err != nil {
		return nil, err
	}

	if nextVersion == 0 || current.Version != nextVersion-1 {
		logCtx.WithField("current_version", current.Version).Warn("Version pre-check failed")
		return nil, fmt.Errorf("%w: current=%d, incoming=%d", ErrVersionConflict, current.Version, nextVersion)
	}

	return s.commit(ctx, roomID, nextVersion-1, store, logCtx)
}

// ApplyPatch 对房间文档应用补丁，基准版本为 baseVersion。
// 派生过程中任意一条记录校验失败都会放弃整个补丁，绝不提交部分应用的结果。
func (s *CollabService) ApplyPatch(ctx context.Context, roomID string, changesJSON []byte, baseVersion uint64) (*domain.RoomDocument, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "base_version": baseVersion})

	if err := guardPatchSize(len(changesJSON)); err != nil {
		logCtx.WithField("size", len(changesJSON)).Warn("Patch payload rejected by size guard")
		return nil, err
	}

	var patch domain.Patch
	if err := json.Unmarshal(changesJSON, &patch); err != nil {
		logCtx.WithError(err).Warn("Failed to unmarshal patch payload")
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	current, err := s.findDocument(ctx, roomID, logCtx)
	if err != nil {
		return nil, err
	}

	if current.Version != baseVersion {
		logCtx.WithField("current_version", current.Version).Warn("Version pre-check failed")
		return nil, fmt.Errorf("%w: current=%d, base=%d", ErrVersionConflict, current.Version, baseVersion)
	}

	base, err := current.ParseStore()
	if err != nil {
		logCtx.WithError(err).Error("Stored document is not parseable")
		return nil, ErrInternalServer
	}

	next, err := patch.ApplyTo(base)
	if err != nil {
		logCtx.WithError(err).Warn("Patch derivation failed")
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return s.commit(ctx, roomID, baseVersion, next, logCtx)
}

// findDocument 读取当前文档行，把仓库错误映射为业务错误。
func (s *CollabService) findDocument(ctx context.Context, roomID string, logCtx *logrus.Entry) (*domain.RoomDocument, error) {
	current, err := s.docRepo.Find(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Mutation addressed to a room that does not exist")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Failed to load room document")
		return nil, ErrInternalServer
	}
	return current, nil
}

// commit 执行条件更新并返回提交后的 (store, version)。
func (s *CollabService) commit(ctx context.Context, roomID string, expectedPrev uint64, next domain.Store, logCtx *logrus.Entry) (*domain.RoomDocument, error) {
	nextJSON, err := json.Marshal(next)
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal derived store")
		return nil, ErrInternalServer
	}

	committed, err := s.docRepo.CompareAndSwap(ctx, roomID, expectedPrev, string(nextJSON))
	if err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			logCtx.Warn("Conditional update lost the race to a concurrent writer")
			return nil, fmt.Errorf("%w: base version %d was already consumed", ErrConcurrentUpdate, expectedPrev)
		}
		logCtx.WithError(err).Error("Conditional update failed")
		return nil, ErrInternalServer
	}

	logCtx.WithField("committed_version", committed.Version).Info("Document mutation committed")
	return committed, nil
}
