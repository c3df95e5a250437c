package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/repository"
)

// GormDocumentRepository 是 DocumentRepository 接口的 GORM 实现。
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository 创建 GormDocumentRepository 实例
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	if db == nil {
		panic("database connection cannot be nil for GormDocumentRepository")
	}
	return &GormDocumentRepository{db: db}
}

// Find 实现按房间 ID 查找文档行
func (r *GormDocumentRepository) Find(ctx context.Context, roomID string) (*domain.RoomDocument, error) {
	var doc domain.RoomDocument
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room document %q: %w", roomID, err)
	}
	return &doc, nil
}

// GetOrCreate 实现惰性创建：房间不存在时写入空文档（版本 0）。
// 并发创建者竞争时，room_id 唯一索引保证只有一行落库，落败方重读已提交的行。
func (r *GormDocumentRepository) GetOrCreate(ctx context.Context, roomID string) (*domain.RoomDocument, error) {
	doc, err := r.Find(ctx, roomID)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, repository.ErrRoomNotFound) {
		return nil, err
	}

	fresh := domain.RoomDocument{
		RoomID:  roomID,
		Name:    "Room " + roomID,
		Version: 0,
	}
	if err := fresh.SetStore(domain.EmptyStore()); err != nil {
		return nil, fmt.Errorf("gorm: encode empty store for room %q: %w", roomID, err)
	}
	if err := r.db.WithContext(ctx).Create(&fresh).Error; err != nil {
		if isDuplicateEntryError(err) {
			return r.Find(ctx, roomID)
		}
		return nil, fmt.Errorf("gorm: create room document %q: %w", roomID, err)
	}
	return &fresh, nil
}

// CompareAndSwap 实现条件更新。这是整个系统唯一的串行化点：
// "UPDATE room_documents SET store=?, version=? WHERE room_id=? AND version=?"
// 必须恰好命中一行；零行命中说明并发写入者在预检之后抢先提交，返回 ErrStaleVersion。
func (r *GormDocumentRepository) CompareAndSwap(ctx context.Context, roomID string, expectedPrev uint64, nextStoreJSON string) (*domain.RoomDocument, error) {
	nextVersion := expectedPrev + 1
	result := r.db.WithContext(ctx).
		Model(&domain.RoomDocument{}).
		Where("room_id = ? AND version = ?", roomID, expectedPrev).
		Updates(map[string]interface{}{"store": nextStoreJSON, "version": nextVersion})
	if result.Error != nil {
		return nil, fmt.Errorf("gorm: conditional update for room %q (version %d -> %d): %w",
			roomID, expectedPrev, nextVersion, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrStaleVersion
	}

	// MySQL 没有 RETURNING；更新已命中，按写入值构造提交结果返回，
	// 避免重读窗口里看到更晚的提交。
	return &domain.RoomDocument{
		RoomID:    roomID,
		StoreJSON: nextStoreJSON,
		Version:   nextVersion,
	}, nil
}

// isDuplicateEntryError 检查 MySQL 唯一约束冲突 (errno 1062)
func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
