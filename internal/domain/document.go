package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Store 是房间文档的内存表示：schemaVersion + 按记录 id 索引的开放记录表。
// schemaVersion 仅透传，本服务不做迁移。
type Store struct {
	SchemaVersion *int              `json:"schemaVersion,omitempty"`
	Records       map[string]Record `json:"records"`
}

// EmptyStore 返回新房间的初始文档。
func EmptyStore() Store {
	one := 1
	return Store{SchemaVersion: &one, Records: map[string]Record{}}
}

// Validate 检查整个文档：schemaVersion（若出现）必须为正整数，
// records 中每条记录都必须独立通过 Record.Validate。
func (s Store) Validate() error {
	if s.SchemaVersion != nil && *s.SchemaVersion <= 0 {
		return errors.New("schemaVersion must be a positive integer")
	}
	for id, rec := range s.Records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("record %q: %w", id, err)
		}
	}
	return nil
}

// Clone 返回文档的浅拷贝：records map 复制，记录值共享。
// Patch 派生只整体替换记录、从不原地修改，因此浅拷贝是安全的。
func (s Store) Clone() Store {
	next := Store{SchemaVersion: s.SchemaVersion, Records: make(map[string]Record, len(s.Records))}
	for id, rec := range s.Records {
		next.Records[id] = rec
	}
	return next
}

// RecordUpdate 是补丁中针对单条记录的浅合并项。
type RecordUpdate struct {
	ID    string                 `json:"id"`
	After map[string]interface{} `json:"after"`
}

// Patch 是一次性的变更集，针对调用者声明的基准版本应用，不落库。
type Patch struct {
	Put    []Record       `json:"put,omitempty"`
	Update []RecordUpdate `json:"update,omitempty"`
	Remove []string       `json:"remove,omitempty"`
}

// ApplyTo 基于 base 派生新的 Store。
// put 整条插入/替换；update 对已有记录（不存在则按空记录）浅合并后重新校验；
// remove 按 id 删除，幂等。任何一步校验失败则整体失败，绝不部分应用。
func (p Patch) ApplyTo(base Store) (Store, error) {
	next := base.Clone()
	for _, rec := range p.Put {
		if err := rec.Validate(); err != nil {
			return Store{}, fmt.Errorf("invalid record in put: %w", err)
		}
		next.Records[rec.ID] = rec
	}
	for _, upd := range p.Update {
		if upd.ID == "" || upd.After == nil {
			return Store{}, errors.New("invalid update entry: id and after are required")
		}
		merged := next.Records[upd.ID].Merge(upd.After)
		if err := merged.Validate(); err != nil {
			return Store{}, fmt.Errorf("invalid record in update %q: %w", upd.ID, err)
		}
		next.Records[upd.ID] = merged
	}
	for _, id := range p.Remove {
		delete(next.Records, id)
	}
	return next, nil
}

// RoomDocument 是房间文档的持久化行。
// version 是乐观并发的唯一仲裁者：每次被接受的变更都使其恰好 +1，
// 条件更新（WHERE room_id AND version）是全系统唯一的串行化点。
type RoomDocument struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    string    `gorm:"uniqueIndex;size:191;not null"`
	Name      string    `gorm:"size:191"`
	StoreJSON string    `gorm:"column:store;type:longtext;not null"`
	Version   uint64    `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (RoomDocument) TableName() string { return "room_documents" }

// ParseStore 将行内的 JSON 解析为 Store。
func (d *RoomDocument) ParseStore() (Store, error) {
	var store Store
	if d.StoreJSON == "" {
		return EmptyStore(), nil
	}
	if err := json.Unmarshal([]byte(d.StoreJSON), &store); err != nil {
		return store, fmt.Errorf("failed to unmarshal room document store: %w", err)
	}
	if store.Records == nil {
		store.Records = map[string]Record{}
	}
	return store, nil
}

// SetStore 将 Store 序列化写回行。
func (d *RoomDocument) SetStore(store Store) error {
	bytes, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("failed to marshal room document store: %w", err)
	}
	d.StoreJSON = string(bytes)
	return nil
}
