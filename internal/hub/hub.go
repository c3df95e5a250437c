package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/dto"
	"collaborative-canvas/internal/repository"
	"collaborative-canvas/internal/service"
	"collaborative-canvas/internal/tasks"
)

// 在线状态记录的保留时长（仅供观测，转发不依赖它）。
const presenceTTL = 60 * time.Second

// HubMessage 定义了在 Hub 内部通道传递的消息类型
type HubMessage struct {
	Type    string  // "register", "unregister", "frame"
	Client  *Client // 来源客户端
	RawData []byte  // 仅用于 frame（原始 WebSocket 消息）
}

// Hub 维护房间成员关系并分发消息。
// 文档一致性不依赖 Hub：版本仲裁发生在存储层的条件更新，
// Hub 只负责把已提交的 (document, version) 送到每个会话。
type Hub struct {
	// 内部通道，处理所有来自 Client 的事件
	messageChan chan HubMessage

	// 客户端集合与按房间组织的成员表
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	// 每个会话最近一次 presence 声明的身份，用于注销时清理在线状态
	presence map[*Client]presenceRef
	roomsMu  sync.RWMutex

	// 每个有本地成员的房间持有一个 Redis 更新订阅
	subs   map[string]repository.Subscription
	subsMu sync.Mutex

	collabService *service.CollabService
	stateRepo     repository.StateRepository
	asynqClient   *asynq.Client // 可为 nil：审计旁路关闭

	// processID 标记本进程发布的 Pub/Sub 消息，避免消费自己的回声
	processID string
}

type presenceRef struct {
	roomID        string
	participantID string
}

// NewHub 创建并返回一个新的 Hub 实例。
// asynqClient 允许为 nil（关闭提交审计旁路），其余依赖必须注入。
func NewHub(collabService *service.CollabService, stateRepo repository.StateRepository, asynqClient *asynq.Client) *Hub {
	if collabService == nil {
		panic("CollabService cannot be nil for Hub")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for Hub")
	}
	return &Hub{
		messageChan:   make(chan HubMessage, 512),
		clients:       make(map[*Client]bool),
		rooms:         make(map[string]map[*Client]bool),
		presence:      make(map[*Client]presenceRef),
		subs:          make(map[string]repository.Subscription),
		collabService: collabService,
		stateRepo:     stateRepo,
		asynqClient:   asynqClient,
		processID:     uuid.NewString(),
	}
}

// Run 启动 Hub 的主事件处理循环。它应该在一个单独的 goroutine 中运行。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for msg := range h.messageChan {
		switch msg.Type {
		case "register":
			h.registerClient(msg.Client)
		case "unregister":
			h.unregisterClient(msg.Client)
		case "frame":
			// 每个操作独立并发处理；版本序列由存储层的条件更新保证，
			// 这里不需要全局顺序。
			go h.handleFrame(msg.Client, msg.RawData)
		default:
			log.Warnf("Received unknown hub message type: %s", msg.Type)
		}
	}
	log.Info("Hub is shutting down...")
}

// QueueMessage 将消息非阻塞地放入 Hub 的处理队列。
// 返回 false 表示队列已满，消息被丢弃。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// StopAllSubscriptions 关闭全部房间订阅（优雅关停时调用）。
func (h *Hub) StopAllSubscriptions() {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for roomID, sub := range h.subs {
		if err := sub.Close(); err != nil {
			logrus.WithError(err).WithField("room_id", roomID).Warn("Failed to close room subscription")
		}
		delete(h.subs, roomID)
	}
}

// --- 连接生命周期 ---

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	h.roomsMu.Lock()
	h.clients[client] = true
	h.roomsMu.Unlock()
	logrus.WithField("remote_addr", client.remoteAddr).Info("Client registered to Hub")
}

// unregisterClient 把客户端移出所有房间并关闭其发送通道。
// 文档状态不受影响；该客户端已发起的在途操作仍会正常提交。
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	emptied := make([]string, 0, 2)

	h.roomsMu.Lock()
	if _, known := h.clients[client]; !known {
		h.roomsMu.Unlock()
		return
	}
	delete(h.clients, client)
	ref, hadPresence := h.presence[client]
	delete(h.presence, client)
	for roomID, members := range h.rooms {
		if _, ok := members[client]; !ok {
			continue
		}
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, roomID)
			emptied = append(emptied, roomID)
		}
	}
	h.roomsMu.Unlock()

	// 成员表已经移除该客户端，后续广播不会再引用它；
	// 关闭经由 closeSend 与仍在途的 Enqueue 互斥
	client.closeSend()

	for _, roomID := range emptied {
		h.unsubscribeRoom(roomID)
	}
	if hadPresence {
		if err := h.stateRepo.ClearPresence(context.Background(), ref.roomID, ref.participantID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"room_id":        ref.roomID,
				"participant_id": ref.participantID,
			}).Debug("Failed to clear presence state on unregister")
		}
	}
	logrus.WithField("remote_addr", client.remoteAddr).Info("Client unregistered from Hub")
}

// joinRoom 把客户端加入房间成员表；房间第一个本地成员出现时建立更新订阅。
func (h *Hub) joinRoom(client *Client, roomID string) {
	h.roomsMu.Lock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[roomID] = members
	}
	first := len(members) == 0
	members[client] = true
	h.roomsMu.Unlock()

	if first {
		h.subscribeRoom(roomID)
	}
}

// --- 消息处理 ---

func (h *Hub) handleFrame(client *Client, raw []byte) {
	ctx := context.Background()

	var msg dto.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logrus.WithError(err).WithField("remote_addr", client.remoteAddr).Warn("Failed to parse client frame")
		h.unicastError(client, service.ErrInvalidPayload)
		return
	}
	if msg.RoomID == "" {
		h.unicastError(client, service.ErrInvalidPayload)
		return
	}

	logCtx := logrus.WithFields(logrus.Fields{
		"remote_addr": client.remoteAddr,
		"room_id":     msg.RoomID,
		"frame_type":  msg.Type,
	})

	switch msg.Type {
	case dto.TypeJoin:
		h.joinRoom(client, msg.RoomID)
		h.unicastState(ctx, client, msg.RoomID, logCtx)

	case dto.TypeGetDocument:
		h.unicastState(ctx, client, msg.RoomID, logCtx)

	case dto.TypeSetDocument:
		doc, err := h.collabService.SetDocument(ctx, msg.RoomID, msg.Document, msg.Version)
		if err != nil {
			h.broadcastError(msg.RoomID, err, logCtx)
			return
		}
		h.broadcastUpdated(ctx, msg.RoomID, doc, "set", logCtx)

	case dto.TypeApplyPatch:
		doc, err := h.collabService.ApplyPatch(ctx, msg.RoomID, msg.Changes, msg.BaseVersion)
		if err != nil {
			h.broadcastError(msg.RoomID, err, logCtx)
			return
		}
		h.broadcastUpdated(ctx, msg.RoomID, doc, "patch", logCtx)

	case dto.TypePresence:
		h.relayPresence(ctx, client, msg, logCtx)

	default:
		logCtx.Warn("Received unknown frame type")
		h.unicastError(client, service.ErrInvalidPayload)
	}
}

// unicastState 只向请求方回送当前文档状态，不广播。
func (h *Hub) unicastState(ctx context.Context, client *Client, roomID string, logCtx *logrus.Entry) {
	doc, err := h.collabService.GetOrCreate(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load room state for unicast")
		h.unicastError(client, err)
		return
	}
	state := dto.StateMessage{
		Type:     dto.TypeState,
		RoomID:   roomID,
		Document: json.RawMessage(doc.StoreJSON),
		Version:  doc.Version,
	}
	bytes, err := json.Marshal(state)
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal state message")
		return
	}
	client.Enqueue(bytes)
	logCtx.WithField("version", doc.Version).Debug("State message sent to client")
}

// broadcastUpdated 把提交结果广播给房间全体成员（包含发送者，作为提交确认），
// 并发布到 Redis 频道供其他进程转发，随后旁路入队提交审计任务。
func (h *Hub) broadcastUpdated(ctx context.Context, roomID string, doc *domain.RoomDocument, origin string, logCtx *logrus.Entry) {
	updated := dto.UpdatedMessage{
		Type:     dto.TypeUpdated,
		RoomID:   roomID,
		Document: json.RawMessage(doc.StoreJSON),
		Version:  doc.Version,
	}
	payload, err := json.Marshal(updated)
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal updated message")
		return
	}
	h.broadcast(roomID, payload, nil)

	envelope, err := json.Marshal(dto.UpdateEnvelope{Origin: h.processID, Payload: payload})
	if err == nil {
		if err := h.stateRepo.PublishUpdate(ctx, roomID, envelope); err != nil {
			logCtx.WithError(err).Error("Failed to publish committed update")
		}
	}

	h.enqueueCommitAudit(ctx, roomID, doc, origin, logCtx)
	logCtx.WithField("version", doc.Version).Info("Committed update broadcast to room")
}

// broadcastError 把分类后的错误广播给请求命名的房间。
func (h *Hub) broadcastError(roomID string, err error, logCtx *logrus.Entry) {
	payload, marshalErr := json.Marshal(dto.ErrorMessage{
		Type:    dto.TypeError,
		Code:    classifyError(err),
		Message: safeMessage(err),
	})
	if marshalErr != nil {
		logCtx.WithError(marshalErr).Error("Failed to marshal error message")
		return
	}
	h.broadcast(roomID, payload, nil)
	logCtx.WithError(err).Debug("Error message broadcast to room")
}

func (h *Hub) unicastError(client *Client, err error) {
	payload, marshalErr := json.Marshal(dto.ErrorMessage{
		Type:    dto.TypeError,
		Code:    classifyError(err),
		Message: safeMessage(err),
	})
	if marshalErr != nil {
		return
	}
	client.Enqueue(payload)
}

// relayPresence 把在线状态转发给房间内除发送者外的所有成员。
// 至多一次：不重试、不排序，丢失可容忍；不触碰文档和版本计数。
func (h *Hub) relayPresence(ctx context.Context, sender *Client, msg dto.ClientMessage, logCtx *logrus.Entry) {
	payload, err := json.Marshal(dto.PresenceUpdatedMessage{
		Type:          dto.TypePresenceUpdated,
		RoomID:        msg.RoomID,
		ParticipantID: msg.ParticipantID,
		DisplayName:   msg.DisplayName,
		Color:         msg.Color,
		Cursor:        msg.Cursor,
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal presence message")
		return
	}
	h.broadcast(msg.RoomID, payload, sender)

	if msg.ParticipantID != "" {
		h.roomsMu.Lock()
		h.presence[sender] = presenceRef{roomID: msg.RoomID, participantID: msg.ParticipantID}
		h.roomsMu.Unlock()

		roster, err := json.Marshal(domain.Presence{
			RoomID:        msg.RoomID,
			ParticipantID: msg.ParticipantID,
			DisplayName:   msg.DisplayName,
			Color:         msg.Color,
			Cursor:        msg.Cursor,
		})
		if err != nil {
			return
		}
		if err := h.stateRepo.SetPresence(ctx, msg.RoomID, msg.ParticipantID, roster, presenceTTL); err != nil {
			logCtx.WithError(err).Debug("Failed to record presence state")
		}
	}
}

// broadcast 将消息发送给指定房间的所有本地成员，except 非 nil 时排除之。
func (h *Hub) broadcast(roomID string, message []byte, except *Client) {
	h.roomsMu.RLock()
	members, ok := h.rooms[roomID]
	recipients := make([]*Client, 0, len(members))
	if ok {
		for client := range members {
			if client != except {
				recipients = append(recipients, client)
			}
		}
	}
	h.roomsMu.RUnlock()

	for _, client := range recipients {
		client.Enqueue(message)
	}
}

// --- 跨进程转发 ---

// subscribeRoom 订阅房间的更新频道并转发远端进程的提交。
func (h *Hub) subscribeRoom(roomID string) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	if _, ok := h.subs[roomID]; ok {
		return
	}
	sub, err := h.stateRepo.SubscribeUpdates(context.Background(), roomID)
	if err != nil {
		// 订阅失败只影响跨进程转发，本进程内的广播不受影响
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to subscribe to room updates")
		return
	}
	h.subs[roomID] = sub
	go h.forwardRemoteUpdates(roomID, sub)
}

func (h *Hub) unsubscribeRoom(roomID string) {
	h.subsMu.Lock()
	sub, ok := h.subs[roomID]
	if ok {
		delete(h.subs, roomID)
	}
	h.subsMu.Unlock()
	if ok {
		if err := sub.Close(); err != nil {
			logrus.WithError(err).WithField("room_id", roomID).Warn("Failed to close room subscription")
		}
	}
}

// forwardRemoteUpdates 消费房间频道，把其他进程提交的更新广播给本地成员。
func (h *Hub) forwardRemoteUpdates(roomID string, sub repository.Subscription) {
	logCtx := logrus.WithField("room_id", roomID)
	for raw := range sub.Messages() {
		var envelope dto.UpdateEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			logCtx.WithError(err).Warn("Failed to parse update envelope from channel")
			continue
		}
		if envelope.Origin == h.processID {
			continue // 本进程已经直接广播过
		}
		h.broadcast(roomID, envelope.Payload, nil)
	}
	logCtx.Debug("Room update subscription drained")
}

// --- 提交审计旁路 ---

func (h *Hub) enqueueCommitAudit(ctx context.Context, roomID string, doc *domain.RoomDocument, origin string, logCtx *logrus.Entry) {
	if h.asynqClient == nil {
		return
	}
	task, err := tasks.NewCommitAuditTask(roomID, doc.Version, origin, len(doc.StoreJSON), time.Now().UTC())
	if err != nil {
		logCtx.WithError(err).Error("Failed to build commit audit task")
		return
	}
	if _, err := h.asynqClient.EnqueueContext(ctx, task); err != nil {
		// 审计是旁路：入队失败不影响已完成的提交和广播
		logCtx.WithError(err).Error("Failed to enqueue commit audit task")
	}
}
