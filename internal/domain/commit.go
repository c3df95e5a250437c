package domain

import "time"

// StoreCommit 记录一次已提交的文档变更，由后台任务异步落库做审计。
// 它只是提交事实的旁路记录，文档本身的单一事实来源仍是 RoomDocument。
type StoreCommit struct {
	ID          uint      `gorm:"primaryKey"`
	RoomID      string    `gorm:"index;size:191;not null"`
	Version     uint64    `gorm:"not null"`
	Origin      string    `gorm:"size:32;not null"` // "set" 或 "patch"
	ByteSize    int       `gorm:"not null"`
	CommittedAt time.Time `gorm:"index;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}
