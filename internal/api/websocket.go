// internal/api/websocket.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/services"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 事件类型
const (
	eventConnected         = "connected"
	eventCharactersChanged = "characters_changed"
	eventPong              = "pong"
)

// WebSocketClient 表示一个订阅角色变更的连接
type WebSocketClient struct {
	conn      *websocket.Conn
	userID    string
	send      chan []byte
	done      chan struct{}
	closed    int32 // 原子操作标志，0=开启，1=关闭
	lastPing  atomic.Int64
	createdAt time.Time
}

func newWebSocketClient(conn *websocket.Conn, userID string) *WebSocketClient {
	client := &WebSocketClient{
		conn:      conn,
		userID:    userID,
		send:      make(chan []byte, 64),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
	client.UpdatePing()
	return client
}

// Close 安全关闭客户端连接，可重复调用
func (client *WebSocketClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		close(client.done)
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

// IsClosed 检查连接是否已关闭
func (client *WebSocketClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

// UpdatePing 更新最后活跃时间
func (client *WebSocketClient) UpdatePing() {
	client.lastPing.Store(time.Now().UnixNano())
}

// IsExpired 检查连接是否超时
func (client *WebSocketClient) IsExpired(timeout time.Duration) bool {
	if timeout <= 0 {
		return true
	}
	return time.Since(time.Unix(0, client.lastPing.Load())) > timeout
}

// SendMessage 队列满时丢弃消息，不阻塞调用方
func (client *WebSocketClient) SendMessage(message map[string]interface{}) bool {
	if client.IsClosed() {
		return false
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		return false
	}
	select {
	case client.send <- msgBytes:
		return true
	default:
		return false
	}
}

// WebSocketManager 管理角色变更订阅。
// 所有注册、注销和广播都在 Run 的单个协程中处理。
type WebSocketManager struct {
	clients     map[*WebSocketClient]struct{}
	broadcast   chan []byte
	register    chan *WebSocketClient
	unregister  chan *WebSocketClient
	mutex       sync.RWMutex
	pingTimeout time.Duration
	logger      *utils.Logger
}

// NewWebSocketManager 创建管理器，需要调用 Run 才会开始分发
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:     make(map[*WebSocketClient]struct{}),
		broadcast:   make(chan []byte, 256),
		register:    make(chan *WebSocketClient, 256),
		unregister:  make(chan *WebSocketClient, 256),
		pingTimeout: 90 * time.Second,
		logger:      utils.GetLogger(),
	}
}

// Run 运行管理器主循环，ctx 结束时关闭所有连接
func (manager *WebSocketManager) Run(ctx context.Context) error {
	cleanupTicker := time.NewTicker(30 * time.Second)
	defer cleanupTicker.Stop()

	for {
		select {
		case client := <-manager.register:
			manager.registerClient(client)

		case client := <-manager.unregister:
			manager.unregisterClient(client)

		case message := <-manager.broadcast:
			manager.broadcastMessage(message)

		case <-cleanupTicker.C:
			manager.cleanupExpiredConnections()

		case <-ctx.Done():
			manager.shutdown()
			return nil
		}
	}
}

func (manager *WebSocketManager) registerClient(client *WebSocketClient) {
	if client == nil {
		return
	}
	manager.mutex.Lock()
	manager.clients[client] = struct{}{}
	count := len(manager.clients)
	manager.mutex.Unlock()

	manager.logger.Info("✅ WebSocket 客户端已连接", map[string]interface{}{
		"user_id": client.userID,
		"clients": count,
	})
}

func (manager *WebSocketManager) unregisterClient(client *WebSocketClient) {
	if client == nil {
		return
	}
	manager.mutex.Lock()
	delete(manager.clients, client)
	manager.mutex.Unlock()

	client.Close()
	manager.logger.Info("🔌 WebSocket 客户端已断开连接", map[string]interface{}{"user_id": client.userID})
}

// cleanupExpiredConnections 清理过期和已关闭的连接
func (manager *WebSocketManager) cleanupExpiredConnections() {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	for client := range manager.clients {
		if client.IsClosed() || client.IsExpired(manager.pingTimeout) {
			delete(manager.clients, client)
			client.Close()
		}
	}
}

// broadcastMessage 发送给所有客户端，队列已满的客户端被断开
func (manager *WebSocketManager) broadcastMessage(message []byte) {
	manager.mutex.RLock()
	clients := make([]*WebSocketClient, 0, len(manager.clients))
	for client := range manager.clients {
		if !client.IsClosed() {
			clients = append(clients, client)
		}
	}
	manager.mutex.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			client.Close()
		}
	}
}

// shutdown 优雅关闭管理器
func (manager *WebSocketManager) shutdown() {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	for client := range manager.clients {
		client.Close()
	}
	manager.clients = make(map[*WebSocketClient]struct{})
	manager.logger.Info("✅ WebSocket 管理器已关闭", nil)
}

// ClientCount 当前连接数
func (manager *WebSocketManager) ClientCount() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	return len(manager.clients)
}

// GetStatus 获取管理器状态
func (manager *WebSocketManager) GetStatus() map[string]interface{} {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	users := make([]map[string]interface{}, 0, len(manager.clients))
	for client := range manager.clients {
		if client.IsClosed() {
			continue
		}
		users = append(users, map[string]interface{}{
			"user_id":      client.userID,
			"connected_at": client.createdAt.Format(time.RFC3339),
		})
	}
	return map[string]interface{}{
		"total_connections": len(users),
		"clients":           users,
	}
}

// NotifyCharacterChange 实现 services.ChangeNotifier，通道已满时丢弃事件
func (manager *WebSocketManager) NotifyCharacterChange(event services.ChangeEvent) {
	msgBytes, err := json.Marshal(map[string]interface{}{
		"type":      eventCharactersChanged,
		"action":    event.Action,
		"character": event.Character,
		"timestamp": event.At.Format(time.RFC3339),
	})
	if err != nil {
		manager.logger.Error("❌ 序列化广播消息失败", map[string]interface{}{"error": err})
		return
	}

	select {
	case manager.broadcast <- msgBytes:
	default:
		manager.logger.Warn("⚠️ 广播队列已满，事件被丢弃", map[string]interface{}{"action": event.Action})
	}
}

var _ services.ChangeNotifier = (*WebSocketManager)(nil)
