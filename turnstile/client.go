package turnstile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// VerifyResponse 验证服务返回体
type VerifyResponse struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes"`
	Hostname    string   `json:"hostname"`
	ChallengeTS string   `json:"challenge_ts"`
	Action      string   `json:"action"`
}

// Client 验证服务 HTTP 客户端
type Client struct {
	cfg        *Config
	httpClient *http.Client
}

func NewClient(cfg *Config) *Client {
	return &Client{
		cfg: cfg,
		// 单次请求超时由 context 控制，这里只兜底
		httpClient: &http.Client{Timeout: cfg.Timeout + 5*time.Second},
	}
}

// SendVerifyRequest 向验证服务提交 token。
// 超时使用降级专用超时（比通用超时更短），通过 context 取消强制执行；
// 非 2xx 状态码与传输错误都原样抛给调用方，不在这里吞掉。
func (c *Client) SendVerifyRequest(ctx context.Context, secret, token, remoteIP string) (*VerifyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FallbackTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("secret", secret)
	form.Set("response", token)
	if strings.TrimSpace(remoteIP) != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.VerifyURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("verify endpoint responded %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	return &result, nil
}

// HealthCheck 用合成 token 探测验证服务连通性。
// 服务端按格式回复 invalid-input-response 即视为健康（证明链路可用），
// 其他情况一律视为不健康。
func (c *Client) HealthCheck(ctx context.Context) bool {
	resp, err := c.SendVerifyRequest(ctx, c.cfg.SecretKey, "turnguard-health-check", "")
	if err != nil {
		return false
	}
	if resp.Success {
		// 合成 token 不应通过校验
		return false
	}
	for _, code := range resp.ErrorCodes {
		if code == ErrCodeInvalidToken {
			return true
		}
	}
	return false
}
