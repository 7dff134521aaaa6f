package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/cosphere-app/turnguard/turnstile"
)

var (
	mu             sync.RWMutex
	connectedAdmin = make(map[*websocket.Conn]bool)
)

// RegisterAdmin 登记一个已升级的管理端连接
func RegisterAdmin(conn *websocket.Conn) {
	mu.Lock()
	defer mu.Unlock()
	connectedAdmin[conn] = true
}

// UnregisterAdmin 注销连接
func UnregisterAdmin(conn *websocket.Conn) {
	mu.Lock()
	defer mu.Unlock()
	delete(connectedAdmin, conn)
}

// BroadcastJSON 向所有已连接的管理端广播消息
func BroadcastJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	for conn := range connectedAdmin {
		if conn != nil && conn.WriteMessage(websocket.TextMessage, payload) != nil {
			// 忽略单个连接的写入错误
			continue
		}
	}
}

// AlertBroadcaster 把告警事件实时推给管理端
type AlertBroadcaster struct{}

func (AlertBroadcaster) HandleAlert(alert turnstile.Alert) {
	BroadcastJSON(map[string]interface{}{
		"type":  "alert",
		"alert": alert,
	})
}
