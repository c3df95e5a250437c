package domain

// Cursor 是参与者光标在画布上的位置。
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Presence 是瞬时的在线状态载荷：只做房间内转发，不落库、不参与版本控制，
// 丢失可容忍（至多一次，不重试）。
type Presence struct {
	RoomID        string  `json:"roomId"`
	ParticipantID string  `json:"participantId"`
	DisplayName   string  `json:"displayName"`
	Color         string  `json:"color"`
	Cursor        *Cursor `json:"cursor"`
}
