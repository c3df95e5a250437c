package dto

import (
	"encoding/json"

	"collaborative-canvas/internal/domain"
)

// 客户端消息类型
const (
	TypeJoin        = "join"
	TypeGetDocument = "getDocument"
	TypeSetDocument = "setDocument"
	TypeApplyPatch  = "applyPatch"
	TypePresence    = "presence"
)

// 服务端消息类型
const (
	TypeConnected       = "connected"
	TypeState           = "state"
	TypeUpdated         = "updated"
	TypePresenceUpdated = "presenceUpdated"
	TypeError           = "error"
)

// ClientMessage 是客户端经 WebSocket 发来的统一信封。
// document/changes 保持 RawMessage：体积守卫要在反序列化之前按原始长度执行。
type ClientMessage struct {
	Type        string          `json:"type"`
	RoomID      string          `json:"roomId"`
	Version     uint64          `json:"version,omitempty"`
	BaseVersion uint64          `json:"baseVersion,omitempty"`
	Document    json.RawMessage `json:"document,omitempty"`
	Changes     json.RawMessage `json:"changes,omitempty"`

	// presence 载荷字段（type == "presence" 时有效）
	ParticipantID string         `json:"participantId,omitempty"`
	DisplayName   string         `json:"displayName,omitempty"`
	Color         string         `json:"color,omitempty"`
	Cursor        *domain.Cursor `json:"cursor,omitempty"`
}

// ConnectedMessage 是身份校验通过后的连接确认。
type ConnectedMessage struct {
	Type string `json:"type"`
	OK   bool   `json:"ok"`
}

// StateMessage 是 join/getDocument 的单播响应：当前文档及其版本。
type StateMessage struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"roomId"`
	Document json.RawMessage `json:"document"`
	Version  uint64          `json:"version"`
}

// UpdatedMessage 在变更提交成功后向全房间广播（包含发送者）。
type UpdatedMessage struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"roomId"`
	Document json.RawMessage `json:"document"`
	Version  uint64          `json:"version"`
}

// PresenceUpdatedMessage 转发给房间内除发送者外的所有成员。
type PresenceUpdatedMessage struct {
	Type          string         `json:"type"`
	RoomID        string         `json:"roomId"`
	ParticipantID string         `json:"participantId"`
	DisplayName   string         `json:"displayName"`
	Color         string         `json:"color"`
	Cursor        *domain.Cursor `json:"cursor"`
}

// ErrorMessage 是发给客户端的分类错误。
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UpdateEnvelope 是跨进程转发 updated 消息的 Redis Pub/Sub 信封。
// origin 用于让发布进程忽略自己的回声。
type UpdateEnvelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}
