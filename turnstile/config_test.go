package turnstile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("生产环境缺失密钥报错", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("TURNSTILE_SITE_KEY", "")
		t.Setenv("TURNSTILE_SECRET_KEY", "")

		_, err := LoadConfig()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "TURNSTILE_SITE_KEY")
	})

	t.Run("生产环境密钥格式非法报错", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("TURNSTILE_SITE_KEY", "not-a-key")
		t.Setenv("TURNSTILE_SECRET_KEY", "0x4AAAAAAAAValidSecretKey")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("生产环境校验 verify 地址", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("TURNSTILE_SITE_KEY", "0x4AAAAAAAAValidSiteKey")
		t.Setenv("TURNSTILE_SECRET_KEY", "0x4AAAAAAAAValidSecretKey")
		t.Setenv("TURNSTILE_VERIFY_URL", "http://evil.example/siteverify")

		_, err := LoadConfig()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "https")
	})

	t.Run("生产环境配置齐全正常加载", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("TURNSTILE_SITE_KEY", "0x4AAAAAAAAValidSiteKey")
		t.Setenv("TURNSTILE_SECRET_KEY", "0x4AAAAAAAAValidSecretKey")
		t.Setenv("TURNSTILE_VERIFY_URL", "")
		t.Setenv("TURNSTILE_TIMEOUT_MS", "3000")
		t.Setenv("TURNSTILE_FALLBACK_ENABLED", "true")
		t.Setenv("TURNSTILE_FALLBACK_TIMEOUT_MS", "1500")

		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.True(t, cfg.Enabled)
		assert.Equal(t, DefaultVerifyURL, cfg.VerifyURL)
		assert.Equal(t, 3*time.Second, cfg.Timeout)
		assert.True(t, cfg.FallbackEnabled)
		assert.Equal(t, 1500*time.Millisecond, cfg.FallbackTimeout)
	})

	t.Run("非生产环境缺失密钥降级为警告", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("TURNSTILE_SITE_KEY", "")
		t.Setenv("TURNSTILE_SECRET_KEY", "")
		t.Setenv("TURNSTILE_VERIFY_URL", "")

		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, 5*time.Second, cfg.FallbackTimeout)
		assert.False(t, cfg.FallbackEnabled)
	})

	t.Run("非法数值回退默认", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("TURNSTILE_TIMEOUT_MS", "not-a-number")
		t.Setenv("TURNSTILE_RETRY_ATTEMPTS", "-3")

		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, 2, cfg.RetryAttempts)
	})
}

func TestFormatUserMessage(t *testing.T) {
	tests := []struct {
		code    string
		message string
	}{
		{ErrCodeMissingToken, "请完成人机验证"},
		{ErrCodeFormat, "请完成人机验证"},
		{ErrCodeInvalidToken, "验证已过期，请重新验证"},
		{ErrCodeTimeoutOrDuplicate, "验证已过期，请重新验证"},
		{ErrCodeServiceUnavailable, "验证服务暂时不可用，请稍后重试"},
		{ErrCodeInternalError, "验证服务暂时不可用，请稍后重试"},
		{"something-new", "验证失败，请重试"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.message, FormatUserMessage(tt.code), tt.code)
	}
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeTimeout))
	assert.True(t, IsRetryableErrorCode(ErrCodeNetwork))
	assert.False(t, IsRetryableErrorCode(ErrCodeFormat))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidToken))
}
