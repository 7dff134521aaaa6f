package turnstile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionManager(t *testing.T) {
	t.Run("创建后同一上下文命中", func(t *testing.T) {
		m := NewSessionManager(time.Minute)
		id := m.CreateSession(FeatureLogin, "token-a", "user1", "1.2.3.4", 0)
		assert.NotEmpty(t, id)
		assert.True(t, m.IsSessionValid(FeatureLogin, "user1", "1.2.3.4"))
	})

	t.Run("按浏览上下文隔离", func(t *testing.T) {
		m := NewSessionManager(time.Minute)
		m.CreateSession(FeatureLogin, "token-a", "user1", "1.2.3.4", 0)

		// 不同 IP（换设备）需要重新验证
		assert.False(t, m.IsSessionValid(FeatureLogin, "user1", "5.6.7.8"))
		// 不同功能需要重新验证
		assert.False(t, m.IsSessionValid(FeatureRegistration, "user1", "1.2.3.4"))
		// 游客与登录用户互不命中
		assert.False(t, m.IsSessionValid(FeatureLogin, "", "1.2.3.4"))
	})

	t.Run("空用户与空 IP 归一化", func(t *testing.T) {
		m := NewSessionManager(time.Minute)
		m.CreateSession(FeatureGuestComment, "token-g", "", "", 0)
		assert.True(t, m.IsSessionValid(FeatureGuestComment, "", ""))
	})

	t.Run("过期会话视为不存在", func(t *testing.T) {
		m := NewSessionManager(time.Minute)
		m.CreateSession(FeatureLogin, "token-a", "user1", "1.2.3.4", 20*time.Millisecond)
		time.Sleep(40 * time.Millisecond)
		assert.False(t, m.IsSessionValid(FeatureLogin, "user1", "1.2.3.4"))
		assert.Nil(t, m.GetSession(FeatureLogin, "user1", "1.2.3.4"))
	})

	t.Run("延长会话", func(t *testing.T) {
		m := NewSessionManager(time.Minute)
		m.CreateSession(FeatureLogin, "token-a", "user1", "1.2.3.4", 30*time.Millisecond)
		err := m.ExtendSession(FeatureLogin, "user1", "1.2.3.4", time.Minute)
		assert.NoError(t, err)
		time.Sleep(50 * time.Millisecond)
		assert.True(t, m.IsSessionValid(FeatureLogin, "user1", "1.2.3.4"))

		err = m.ExtendSession(FeatureLogin, "user2", "1.2.3.4", time.Minute)
		assert.Error(t, err)
	})

	t.Run("删除与清理", func(t *testing.T) {
		m := NewSessionManager(time.Minute)
		m.CreateSession(FeatureLogin, "token-a", "user1", "1.2.3.4", 0)
		m.RemoveSession(FeatureLogin, "user1", "1.2.3.4")
		assert.False(t, m.IsSessionValid(FeatureLogin, "user1", "1.2.3.4"))

		m.CreateSession(FeatureLogin, "token-b", "user2", "1.2.3.4", 20*time.Millisecond)
		m.CreateSession(FeatureLogin, "token-c", "user3", "1.2.3.4", time.Minute)
		time.Sleep(40 * time.Millisecond)
		m.SweepExpired()
		assert.Equal(t, 1, m.Count())
	})

	t.Run("token 查重仅用于防重复提交", func(t *testing.T) {
		m := NewSessionManager(time.Minute)
		m.CreateSession(FeatureLogin, "token-a", "user1", "1.2.3.4", 0)
		assert.True(t, m.IsTokenVerified("token-a"))
		assert.False(t, m.IsTokenVerified("token-b"))
		assert.False(t, m.IsTokenVerified(""))
	})
}
