package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/repository"
	"collaborative-canvas/internal/repository/mocks"
	"collaborative-canvas/internal/service"
)

const emptyStoreJSON = `{"schemaVersion":1,"records":{}}`

func TestCollabService_GetOrCreate_LazyCreatesRoom(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	mockDocRepo.On("GetOrCreate", ctx, "room-1").
		Return(&domain.RoomDocument{RoomID: "room-1", StoreJSON: emptyStoreJSON, Version: 0}, nil).
		Once()

	doc, err := collab.GetOrCreate(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), doc.Version, "新房间应从版本 0 开始")
	mockDocRepo.AssertExpectations(t)
}

func TestCollabService_SetDocument_Success(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	incoming := []byte(`{"schemaVersion":1,"records":{"shape:1":{"id":"shape:1","typeName":"shape"}}}`)

	mockDocRepo.On("Find", ctx, "room-1").
		Return(&domain.RoomDocument{RoomID: "room-1", StoreJSON: emptyStoreJSON, Version: 0}, nil).
		Once()
	mockDocRepo.On("CompareAndSwap", ctx, "room-1", uint64(0), mock.MatchedBy(func(storeJSON string) bool {
		return strings.Contains(storeJSON, `"shape:1"`)
	})).
		Return(&domain.RoomDocument{RoomID: "room-1", Version: 1}, nil).
		Once()

	doc, err := collab.SetDocument(ctx, "room-1", incoming, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), doc.Version)
	mockDocRepo.AssertExpectations(t)
}

func TestCollabService_SetDocument_StaleVersionPreCheck(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	mockDocRepo.On("Find", ctx, "room-1").
		Return(&domain.RoomDocument{RoomID: "room-1", StoreJSON: emptyStoreJSON, Version: 5}, nil).
		Once()

	// 当前版本 5，期望提交版本 3：预检直接拒绝，不应发起条件更新
	_, err := collab.SetDocument(ctx, "room-1", []byte(emptyStoreJSON), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrVersionConflict)
	mockDocRepo.AssertNotCalled(t, "CompareAndSwap", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockDocRepo.AssertExpectations(t)
}

func TestCollabService_SetDocument_ZeroIncomingVersion(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	mockDocRepo.On("Find", ctx, "room-1").
		Return(&domain.RoomDocument{RoomID: "room-1", StoreJSON: emptyStoreJSON, Version: 0}, nil).
		Once()

	// 版本 0 是初始状态，不可能是一次提交的目标版本
	_, err := collab.SetDocument(ctx, "room-1", []byte(emptyStoreJSON), 0)
	assert.ErrorIs(t, err, service.ErrVersionConflict)
	mockDocRepo.AssertNotCalled(t, "CompareAndSwap", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCollabService_SetDocument_LosesRaceAtCommit(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	mockDocRepo.On("Find", ctx, "room-1").
		Return(&domain.RoomDocument{RoomID: "room-1", StoreJSON: emptyStoreJSON, Version: 0}, nil).
		Once()
	// 预检通过后另一个写入者抢先提交：条件更新零行命中
	mockDocRepo.On("CompareAndSwap", ctx, "room-1", uint64(0), mock.AnythingOfType("string")).
		Return(nil, repository.ErrStaleVersion).
		Once()

	_, err := collab.SetDocument(ctx, "room-1", []byte(emptyStoreJSON), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrConcurrentUpdate)
	mockDocRepo.AssertExpectations(t)
}

func TestCollabService_SetDocument_InvalidRecordRejected(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	// typeName 缺失：结构校验应失败，且不访问存储
	incoming := []byte(`{"schemaVersion":1,"records":{"shape:1":{"id":"shape:1"}}}`)

	_, err := collab.SetDocument(ctx, "room-1", incoming, 1)
	assert.ErrorIs(t, err, service.ErrInvalidPayload)
	mockDocRepo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestCollabService_SetDocument_OversizedPayloadRejectedFirst(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	// 体积守卫先于结构校验和存储访问执行
	oversized := []byte(`{"records":` + strings.Repeat("x", service.MaxDocumentBytes) + `}`)

	_, err := collab.SetDocument(ctx, "room-1", oversized, 1)
	assert.ErrorIs(t, err, service.ErrPayloadTooLarge)
	mockDocRepo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	mockDocRepo.AssertNotCalled(t, "CompareAndSwap", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCollabService_ApplyPatch_Success(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	current := `{"schemaVersion":1,"records":{"shape:1":{"id":"shape:1","typeName":"shape","x":1}}}`
	changes := []byte(`{"update":[{"id":"shape:1","after":{"x":2}}]}`)

	mockDocRepo.On("Find", ctx, "room-1").
		Return(&domain.RoomDocument{RoomID: "room-1", StoreJSON: current, Version: 4}, nil).
		Once()
	mockDocRepo.On("CompareAndSwap", ctx, "room-1", uint64(4), mock.MatchedBy(func(storeJSON string) bool {
		return strings.Contains(storeJSON, `"x":2`)
	})).
		Return(&domain.RoomDocument{RoomID: "room-1", Version: 5}, nil).
		Once()

	doc, err := collab.ApplyPatch(ctx, "room-1", changes, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), doc.Version, "被接受的补丁应使版本恰好 +1")
	mockDocRepo.AssertExpectations(t)
}

func TestCollabService_ApplyPatch_EmptyPatchStillBumpsVersion(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	current := `{"schemaVersion":1,"records":{"shape:1":{"id":"shape:1","typeName":"shape"}}}`

	mockDocRepo.On("Find", ctx, "room-1").
		Return(&domain.RoomDocument{RoomID: "room-1", StoreJSON: current, Version: 2}, nil).
		Once()
	// 空补丁也是一次被接受的变更：内容不变，版本照常 +1
	mockDocRepo.On("CompareAndSwap", ctx, "room-1", uint64(2), mock.MatchedBy(func(storeJSON string) bool {
		return strings.Contains(storeJSON, `"shape:1"`)
	})).
		Return(&domain.RoomDocument{RoomID: "room-1", Version: 3}, nil).
		Once()

	doc, err := collab.ApplyPatch(ctx, "room-1", []byte(`{}`), 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), doc.Version)
	mockDocRepo.AssertExpectations(t)
}

func TestCollabService_ApplyPatch_StaleBaseVersion(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	mockDocRepo.On("Find", ctx, "room-1").
		Return(&domain.RoomDocument{RoomID: "room-1", StoreJSON: emptyStoreJSON, Version: 7}, nil).
		Once()

	_, err := collab.ApplyPatch(ctx, "room-1", []byte(`{"remove":["a"]}`), 6)
	assert.ErrorIs(t, err, service.ErrVersionConflict)
	mockDocRepo.AssertNotCalled(t, "CompareAndSwap", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCollabService_ApplyPatch_InvalidEntryAborts(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	mockDocRepo.On("Find", ctx, "room-1").
		Return(&domain.RoomDocument{RoomID: "room-1", StoreJSON: emptyStoreJSON, Version: 2}, nil).
		Once()

	// put 中包含非法记录：整个补丁放弃，不发起条件更新
	changes := []byte(`{"put":[{"id":"ok","typeName":"shape"},{"typeName":"shape"}]}`)

	_, err := collab.ApplyPatch(ctx, "room-1", changes, 2)
	assert.ErrorIs(t, err, service.ErrInvalidPayload)
	mockDocRepo.AssertNotCalled(t, "CompareAndSwap", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCollabService_ApplyPatch_RoomMissing(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	// 变更操作不创建房间：不存在即报错
	mockDocRepo.On("Find", ctx, "ghost").
		Return(nil, repository.ErrRoomNotFound).
		Once()

	_, err := collab.ApplyPatch(ctx, "ghost", []byte(`{"remove":["a"]}`), 0)
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	mockDocRepo.AssertExpectations(t)
}

func TestCollabService_ApplyPatch_OversizedChangeSet(t *testing.T) {
	mockDocRepo := new(mocks.DocumentRepository)
	collab := service.NewCollabService(mockDocRepo)
	ctx := context.Background()

	oversized := []byte(strings.Repeat("y", service.MaxPatchBytes+1))

	_, err := collab.ApplyPatch(ctx, "room-1", oversized, 1)
	assert.ErrorIs(t, err, service.ErrPayloadTooLarge)
	mockDocRepo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}
