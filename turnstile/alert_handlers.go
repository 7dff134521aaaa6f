package turnstile

import (
	"log/slog"

	"github.com/cosphere-app/turnguard/database/models"
	"github.com/cosphere-app/turnguard/utils/messageSender"
)

// LogAlertHandler 把告警写入结构化日志
type LogAlertHandler struct{}

func (LogAlertHandler) HandleAlert(alert Alert) {
	attrs := []any{
		"type", alert.Type,
		"title", alert.Title,
		"feature", alert.FeatureID,
	}
	switch alert.Level {
	case LevelError, LevelCritical:
		slog.Error(alert.Message, attrs...)
	case LevelWarning:
		slog.Warn(alert.Message, attrs...)
	default:
		slog.Info(alert.Message, attrs...)
	}
}

// MessageBotAlertHandler 把告警转发到外部消息机器人
type MessageBotAlertHandler struct{}

func (MessageBotAlertHandler) HandleAlert(alert Alert) {
	emoji := "ℹ️"
	switch alert.Level {
	case LevelWarning:
		emoji = "🟡"
	case LevelError:
		emoji = "🔴"
	case LevelCritical:
		emoji = "⛔"
	}
	event := models.EventMessage{
		Event:   alert.Type,
		Time:    alert.Timestamp,
		Message: alert.Title + "\n" + alert.Message,
		Emoji:   emoji,
	}
	if err := messageSender.SendEvent(event); err != nil {
		slog.Warn("failed to forward alert to message bot", "type", alert.Type, "error", err)
	}
}
