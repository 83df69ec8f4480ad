// internal/api/websocket_handlers.go
package api

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 54 * time.Second
)

// CharacterFeed 升级为 WebSocket 并推送角色变更事件
func (h *Handler) CharacterFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("❌ WebSocket 升级失败", map[string]interface{}{"error": err})
		return
	}

	userID, _ := GetUserFromContext(c)
	client := newWebSocketClient(conn, userID)

	select {
	case h.ws.register <- client:
	default:
		h.logger.Warn("❌ 无法注册 WebSocket 客户端，注册通道已满", nil)
		client.Close()
		return
	}

	go h.handleWebSocketWrites(client)

	client.SendMessage(map[string]interface{}{
		"type":      eventConnected,
		"user_id":   userID,
		"timestamp": time.Now().Format(time.RFC3339),
	})

	h.handleWebSocketReads(client)
}

// handleWebSocketReads 读取客户端消息直到连接关闭
func (h *Handler) handleWebSocketReads(client *WebSocketClient) {
	defer func() {
		select {
		case h.ws.unregister <- client:
		case <-time.After(time.Second):
			client.Close()
		}
	}()

	client.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		return client.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, messageBytes, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("❌ WebSocket 读取错误", map[string]interface{}{"error": err})
			}
			return
		}
		client.UpdatePing()
		client.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var message map[string]interface{}
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			continue
		}
		if msgType, _ := message["type"].(string); msgType == "ping" {
			client.SendMessage(map[string]interface{}{
				"type":      eventPong,
				"timestamp": time.Now().Unix(),
			})
		}
	}
}

// handleWebSocketWrites 独占连接的写端
func (h *Handler) handleWebSocketWrites(client *WebSocketClient) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case <-client.done:
			return

		case message := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// GetWebSocketStatus 返回订阅连接状态
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	h.rh.Success(c, h.ws.GetStatus())
}
