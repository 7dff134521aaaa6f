package admin

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cosphere-app/turnguard/api"
	"github.com/cosphere-app/turnguard/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     ws.CheckOrigin,
}

// GET /api/admin/alerts/stream
// 升级为 websocket，实时接收告警事件推送
func (h *Handler) AlertStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.RespondError(c, http.StatusBadRequest, "websocket upgrade failed")
		return
	}
	ws.RegisterAdmin(conn)
	defer func() {
		ws.UnregisterAdmin(conn)
		_ = conn.Close()
	}()

	// 只推不收，读循环用于感知断开
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("alert stream closed unexpectedly: %v", err)
			}
			return
		}
	}
}
