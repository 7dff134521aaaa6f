package messageSender

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var telegramClient = &http.Client{Timeout: 10 * time.Second}

// sendTelegramMessage 调用 Telegram Bot API 发送文本消息
func sendTelegramMessage(token, chatID, text string) error {
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", token)
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)

	resp, err := telegramClient.PostForm(endpoint, form)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
