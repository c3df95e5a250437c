package websocket

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/dto"
	"collaborative-canvas/internal/hub"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	apiKey   string // 为空表示关闭鉴权
}

// NewWebSocketHandler 创建 WebSocketHandler 实例
func NewWebSocketHandler(h *hub.Hub, apiKey string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 允许所有来源连接 (生产环境应配置具体的允许来源)
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &WebSocketHandler{
		upgrader: upgrader,
		hub:      h,
		apiKey:   apiKey,
	}
}

// HandleConnection 处理 /ws/collab 的 WebSocket 连接请求。
// 先升级再鉴权：凭证问题通过 error 帧告知客户端后关闭连接，
// 这样浏览器端能拿到结构化错误而不是裸的握手失败。
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	logCtx := logrus.WithField("remote_addr", c.Request.RemoteAddr)

	key, viaQuery := extractAPIKey(c.Request)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 方法会自动发送 HTTP 错误响应，这里只记录日志
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	// 鉴权开启时才做凭证检查，与 REST 侧的 APIKey 中间件一致。
	// URL 查询串里的凭证会进入访问日志和浏览器历史，无条件拒绝，
	// 即使其他位置带了有效 key 也一样。
	if h.apiKey != "" {
		if viaQuery {
			logCtx.Warn("WS Handler: Rejected credential passed in URL query parameters")
			h.rejectConn(conn, "API key cannot be passed in URL query parameters")
			return
		}
		if key != h.apiKey {
			logCtx.Warn("WS Handler: Rejected connection with missing or invalid API key")
			h.rejectConn(conn, "missing or invalid API key")
			return
		}
	}

	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	client := hub.NewClient(h.hub, conn, c.Request.RemoteAddr)

	registerMsg := hub.HubMessage{
		Type:   "register",
		Client: client,
	}
	if !h.hub.QueueMessage(registerMsg) {
		logCtx.Error("WS Handler: Hub queue full, closing new connection")
		_ = conn.Close()
		return
	}

	if ack, err := json.Marshal(dto.ConnectedMessage{Type: dto.TypeConnected, OK: true}); err == nil {
		client.Enqueue(ack)
	}

	// Run 启动读写泵后立即返回，连接生命周期由泵和 Hub 管理
	client.Run()
}

// rejectConn 发送一条鉴权错误帧后关闭连接。
func (h *WebSocketHandler) rejectConn(conn *websocket.Conn, message string) {
	payload, err := json.Marshal(dto.ErrorMessage{
		Type:    dto.TypeError,
		Code:    hub.CodeUnauthenticated,
		Message: message,
	})
	if err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
	_ = conn.Close()
}

// extractAPIKey 从请求中提取共享 API key。
// 按序检查 Authorization Bearer、X-API-Key 头、collabKey/apiKey cookie。
// viaQuery 指示 URL 查询串中出现了凭证参数，调用方必须据此拒绝连接。
func extractAPIKey(r *http.Request) (key string, viaQuery bool) {
	query := r.URL.Query()
	if query.Has("apiKey") || query.Has("collabKey") {
		viaQuery = true
	}

	if auth := r.Header.Get("Authorization"); auth != "" {
		if rest, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(rest), viaQuery
		}
	}
	if headerKey := r.Header.Get("X-API-Key"); headerKey != "" {
		return headerKey, viaQuery
	}
	if cookie, err := r.Cookie("collabKey"); err == nil && cookie.Value != "" {
		return cookie.Value, viaQuery
	}
	if cookie, err := r.Cookie("apiKey"); err == nil && cookie.Value != "" {
		return cookie.Value, viaQuery
	}
	return "", viaQuery
}
