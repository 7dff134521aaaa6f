package turnstile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultSessionTTL 一次成功验证的有效窗口
	DefaultSessionTTL = 30 * time.Minute
	// SessionSweepInterval 过期会话清理周期
	SessionSweepInterval = 5 * time.Minute
)

// VerifySession 一次成功验证的记录
type VerifySession struct {
	ID         string    `json:"id"`
	FeatureID  string    `json:"feature_id"`
	Token      string    `json:"-"`
	UserID     string    `json:"user_id"`
	ClientIP   string    `json:"client_ip"`
	VerifiedAt time.Time `json:"verified_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// SessionManager 按 (功能, 用户或游客, 客户端 IP) 去重验证。
// 同一用户换设备或换 IP 需要重新验证，验证范围是浏览上下文而非账号。
type SessionManager struct {
	ttl   time.Duration
	store *gocache.Cache
}

// NewSessionManager ttl<=0 时使用默认 30 分钟
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{ttl: ttl, store: gocache.New(ttl, 0)}
}

func sessionKey(featureID, userID, clientIP string) string {
	if strings.TrimSpace(userID) == "" {
		userID = "guest"
	}
	if strings.TrimSpace(clientIP) == "" {
		clientIP = "unknown"
	}
	return featureID + "|" + userID + "|" + clientIP
}

// CreateSession 创建（或覆盖）会话，返回会话 ID
func (m *SessionManager) CreateSession(featureID, token, userID, clientIP string, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = m.ttl
	}
	now := time.Now()
	session := &VerifySession{
		ID:         uuid.NewString(),
		FeatureID:  featureID,
		Token:      token,
		UserID:     userID,
		ClientIP:   clientIP,
		VerifiedAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	m.store.Set(sessionKey(featureID, userID, clientIP), session, ttl)
	return session.ID
}

// IsSessionValid 判断该浏览上下文是否已有有效验证
func (m *SessionManager) IsSessionValid(featureID, userID, clientIP string) bool {
	return m.GetSession(featureID, userID, clientIP) != nil
}

// GetSession 取会话，过期返回 nil
func (m *SessionManager) GetSession(featureID, userID, clientIP string) *VerifySession {
	v, ok := m.store.Get(sessionKey(featureID, userID, clientIP))
	if !ok {
		return nil
	}
	return v.(*VerifySession)
}

// RemoveSession 删除会话
func (m *SessionManager) RemoveSession(featureID, userID, clientIP string) {
	m.store.Delete(sessionKey(featureID, userID, clientIP))
}

// ExtendSession 将会话有效期延长到现在起 ttl 之后，会话不存在返回错误
func (m *SessionManager) ExtendSession(featureID, userID, clientIP string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.ttl
	}
	key := sessionKey(featureID, userID, clientIP)
	v, ok := m.store.Get(key)
	if !ok {
		return fmt.Errorf("session not found")
	}
	session := v.(*VerifySession)
	session.ExpiresAt = time.Now().Add(ttl)
	return m.store.Replace(key, session, ttl)
}

// SweepExpired 清理全部过期会话
func (m *SessionManager) SweepExpired() {
	m.store.DeleteExpired()
}

// Count 当前存活会话数
func (m *SessionManager) Count() int {
	return m.store.ItemCount()
}

// IsTokenVerified 判断某个 token 是否已出现在任一会话里。
//
// Deprecated: Turnstile token 在服务商侧是一次性的，这里的命中只说明同一个
// 表单被重复提交，不能用来跳过真实校验。仅保留用于拦截表单重复提交。
func (m *SessionManager) IsTokenVerified(token string) bool {
	if token == "" {
		return false
	}
	for _, item := range m.store.Items() {
		session, ok := item.Object.(*VerifySession)
		if ok && session.Token == token {
			return true
		}
	}
	return false
}
