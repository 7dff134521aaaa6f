package turnstile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackHandler(t *testing.T) {
	t.Run("全局降级开关", func(t *testing.T) {
		h := NewFallbackHandler(&Config{FallbackEnabled: false})
		assert.False(t, h.ShouldUseFallback())

		h = NewFallbackHandler(&Config{FallbackEnabled: true})
		assert.True(t, h.ShouldUseFallback())
	})

	t.Run("降级永远不会打开功能", func(t *testing.T) {
		h := NewFallbackHandler(&Config{FallbackEnabled: true})
		for _, featureID := range KnownFeatureIDs() {
			assert.False(t, h.FallbackFeatureStatus(featureID))
		}
	})

	t.Run("存储故障返回安全默认值并记录状态", func(t *testing.T) {
		h := NewFallbackHandler(&Config{FallbackEnabled: true})
		status := h.HandleDatabaseError(FeatureGuestComment, errors.New("connection refused"))
		assert.False(t, status)
		assert.True(t, h.InFallback(FeatureGuestComment))

		state := h.State(FeatureGuestComment)
		assert.NotNil(t, state)
		assert.Equal(t, ReasonStoreError, state.Reason)
		assert.Equal(t, 1, state.ConsecutiveFailures)

		h.HandleDatabaseError(FeatureGuestComment, errors.New("connection refused"))
		assert.Equal(t, 2, h.State(FeatureGuestComment).ConsecutiveFailures)
	})

	t.Run("critical 等级不允许降级放行", func(t *testing.T) {
		h := NewFallbackHandler(&Config{FallbackEnabled: true})
		err := fmt.Errorf("verify request failed: %w", context.DeadlineExceeded)

		assert.False(t, h.HandleNetworkError(FeatureLogin, err))
		assert.False(t, h.HandleNetworkError(FeaturePasswordReset, err))
		assert.True(t, h.HandleNetworkError(FeatureGuestComment, err))
		assert.True(t, h.HandleNetworkError(FeatureCommentPost, err))
	})

	t.Run("降级关闭时网络错误不放行", func(t *testing.T) {
		h := NewFallbackHandler(&Config{FallbackEnabled: false})
		allowed := h.HandleNetworkError(FeatureGuestComment, errors.New("dial tcp: timeout"))
		assert.False(t, allowed)
		// 状态仍然记录
		assert.True(t, h.InFallback(FeatureGuestComment))
	})

	t.Run("错误归类", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			reason FallbackReason
		}{
			{"超时", context.DeadlineExceeded, ReasonTimeout},
			{"限流", errors.New("verify endpoint responded 429: too many requests"), ReasonRateLimited},
			{"服务不可用", errors.New("verify endpoint responded 503: unavailable"), ReasonServiceUnavailable},
			{"普通网络错误", errors.New("connection reset by peer"), ReasonNetworkError},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.reason, classifyNetworkError(tt.err))
			})
		}
	})

	t.Run("连续健康探测后清除网络类降级", func(t *testing.T) {
		h := NewFallbackHandler(&Config{FallbackEnabled: true})
		h.HandleNetworkError(FeatureGuestComment, context.DeadlineExceeded)
		h.HandleDatabaseError(FeatureCommentPost, errors.New("store down"))

		h.OnHealthProbe(true)
		h.OnHealthProbe(true)
		assert.True(t, h.InFallback(FeatureGuestComment), "未达到阈值不应清除")

		h.OnHealthProbe(true)
		assert.False(t, h.InFallback(FeatureGuestComment))
		// 存储类降级不受健康探测影响
		assert.True(t, h.InFallback(FeatureCommentPost))

		h.OnStoreSuccess()
		assert.False(t, h.InFallback(FeatureCommentPost))
	})

	t.Run("探测失败重置连续计数", func(t *testing.T) {
		h := NewFallbackHandler(&Config{FallbackEnabled: true})
		h.HandleNetworkError(FeatureGuestComment, context.DeadlineExceeded)
		h.OnHealthProbe(true)
		h.OnHealthProbe(true)
		h.OnHealthProbe(false)
		h.OnHealthProbe(true)
		assert.True(t, h.InFallback(FeatureGuestComment))
	})

	t.Run("显式恢复", func(t *testing.T) {
		h := NewFallbackHandler(&Config{FallbackEnabled: true})
		h.HandleNetworkError(FeatureGuestComment, context.DeadlineExceeded)
		assert.Equal(t, 1, h.FallbackCount())
		h.Recover(FeatureGuestComment)
		assert.Equal(t, 0, h.FallbackCount())
	})
}

func TestSecurityTiers(t *testing.T) {
	assert.Equal(t, TierCritical, FeatureTier(FeatureLogin))
	assert.Equal(t, TierCritical, FeatureTier(FeaturePasswordReset))
	assert.Equal(t, TierHigh, FeatureTier(FeatureRegistration))
	assert.Equal(t, TierLow, FeatureTier(FeatureGuestComment))
	// 未知功能按 critical 处理
	assert.Equal(t, TierCritical, FeatureTier("nonexistent"))
	assert.False(t, TierCritical.AllowsFallback())
	assert.True(t, TierMedium.AllowsFallback())
}
