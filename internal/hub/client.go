package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// 包级别的 WebSocket 常量
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	// 必须大于文档体积上限（2MB），超大载荷要到达体积守卫被分类拒绝，
	// 而不是在传输层被悄悄掐断。
	maxMessageSize = 4 << 20
)

// Client 代表一个连接到 Hub 的 WebSocket 会话。
// 一个会话可以加入零个或多个房间；房间成员关系由 Hub 维护。
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	remoteAddr string
	send       chan []byte

	// sendMu 串行化 send 通道上的写入和关闭：
	// 广播在 Hub 主循环之外的 goroutine 里进行，注销时的关闭
	// 必须和在途的 Enqueue 互斥，否则是 send-on-closed panic。
	sendMu     sync.Mutex
	sendClosed bool
}

// NewClient 创建一个新的 Client 实例
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		remoteAddr: remoteAddr,
		send:       make(chan []byte, 256),
	}
}

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// Enqueue 将消息非阻塞地放入该客户端的发送队列。
// 队列满或客户端已注销时返回 false，由调用方决定是否降级处理。
func (c *Client) Enqueue(message []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		logrus.WithField("remote_addr", c.remoteAddr).Warn("Client send channel full, dropping message")
		return false
	}
}

// closeSend 关闭发送队列，幂等。之后的 Enqueue 安全地返回 false。
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

func (c *Client) CloseConn() { c.conn.Close() }

// ReadPump 将消息从 WebSocket 连接泵送到 Hub 的处理通道。
// 它在自己的 goroutine 中运行。
func (c *Client) ReadPump() {
	defer func() {
		// 清理操作：请求 Hub 注销此客户端（移出所有房间）
		unregisterMsg := HubMessage{Type: "unregister", Client: c}
		select {
		case c.hub.messageChan <- unregisterMsg:
		case <-time.After(1 * time.Second):
			logrus.WithField("remote_addr", c.remoteAddr).Warn("Timeout sending unregister message to Hub channel")
		}
		c.conn.Close()
		logrus.WithField("remote_addr", c.remoteAddr).Info("ReadPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithField("remote_addr", c.remoteAddr)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}

		// 只处理文本帧
		if messageType != websocket.TextMessage {
			logrus.WithField("remote_addr", c.remoteAddr).Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}

		frameMsg := HubMessage{
			Type:    "frame",
			Client:  c,
			RawData: message,
		}
		// 非阻塞发送到 Hub，如果 Hub 处理不过来则丢弃
		select {
		case c.hub.messageChan <- frameMsg:
		default:
			logrus.WithField("remote_addr", c.remoteAddr).Warn("Hub message channel full, dropping client message")
		}
	}
}

// WritePump 将消息从 send 通道泵送到 WebSocket 连接，并维持心跳。
// 它在自己的 goroutine 中运行。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithField("remote_addr", c.remoteAddr).Info("WritePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// send 通道被 Hub 关闭（注销时）
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithField("remote_addr", c.remoteAddr).WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithField("remote_addr", c.remoteAddr).WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}
