package turnstile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeatureCache(t *testing.T) {
	t.Run("写入后立即读取返回新值", func(t *testing.T) {
		cache := NewFeatureCache(time.Minute)
		cache.Set(FeatureLogin, true)
		enabled, ok := cache.Get(FeatureLogin)
		assert.True(t, ok)
		assert.True(t, enabled)

		cache.Set(FeatureLogin, false)
		enabled, ok = cache.Get(FeatureLogin)
		assert.True(t, ok)
		assert.False(t, enabled)
	})

	t.Run("超过 TTL 的条目视为不存在", func(t *testing.T) {
		cache := NewFeatureCache(20 * time.Millisecond)
		cache.Set(FeatureRegistration, true)
		time.Sleep(40 * time.Millisecond)

		_, ok := cache.Get(FeatureRegistration)
		assert.False(t, ok)

		// 过期后重新写入立即可读
		cache.Set(FeatureRegistration, true)
		enabled, ok := cache.Get(FeatureRegistration)
		assert.True(t, ok)
		assert.True(t, enabled)
	})

	t.Run("删除与清空", func(t *testing.T) {
		cache := NewFeatureCache(time.Minute)
		cache.Set(FeatureLogin, true)
		cache.Set(FeatureRegistration, false)

		cache.Delete(FeatureLogin)
		_, ok := cache.Get(FeatureLogin)
		assert.False(t, ok)

		cache.Clear()
		_, ok = cache.Get(FeatureRegistration)
		assert.False(t, ok)
	})

	t.Run("ClearExpired 只逐出过期条目", func(t *testing.T) {
		cache := NewFeatureCache(30 * time.Millisecond)
		cache.Set(FeatureLogin, true)
		time.Sleep(50 * time.Millisecond)
		cache.Set(FeatureRegistration, true)

		cache.ClearExpired()

		_, ok := cache.Get(FeatureLogin)
		assert.False(t, ok)
		_, ok = cache.Get(FeatureRegistration)
		assert.True(t, ok)
	})

	t.Run("状态快照", func(t *testing.T) {
		cache := NewFeatureCache(time.Minute)
		cache.Set(FeatureLogin, true)
		cache.Set(FeatureGuestComment, false)

		status := cache.Status()
		assert.Equal(t, 2, status.Size)
		assert.Len(t, status.Entries, 2)
		assert.Equal(t, time.Minute.String(), status.TTL)
	})
}
