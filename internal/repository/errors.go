package repository

import "errors"

// 通用的存储库错误
var (
	// ErrNotFound 表示请求的记录未找到
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry 表示插入或更新违反了唯一约束
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrStaleVersion 表示条件更新未命中任何行：
	// 在预检和写入之间有并发写入者抢先提交了同一基准版本。
	ErrStaleVersion = errors.New("repository: stale version")
)

// 特定资源的错误（基于通用错误创建）
var (
	ErrRoomNotFound    = ErrNotFound
	ErrDrawingNotFound = ErrNotFound
)
