package messageSender

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cosphere-app/turnguard/database/models"
)

// SendEvent 将事件推送到已配置的消息通道，未配置时仅记录日志
func SendEvent(event models.EventMessage) error {
	token := strings.TrimSpace(os.Getenv("TURNGUARD_BOT_TOKEN"))
	chatID := strings.TrimSpace(os.Getenv("TURNGUARD_BOT_CHAT_ID"))
	if token == "" || chatID == "" {
		slog.Info("message sender not configured, event dropped",
			"event", event.Event, "message", event.Message)
		return nil
	}
	text := formatEvent(event)
	return sendTelegramMessage(token, chatID, text)
}

func formatEvent(event models.EventMessage) string {
	var sb strings.Builder
	if event.Emoji != "" {
		sb.WriteString(event.Emoji)
		sb.WriteString(" ")
	}
	sb.WriteString(event.Message)
	sb.WriteString(fmt.Sprintf("\n\n事件: %s\n时间: %s",
		event.Event, event.Time.Format("2006-01-02 15:04:05")))
	return sb.String()
}
