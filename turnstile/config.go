package turnstile

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
	verifyHost       = "challenges.cloudflare.com"
)

// Turnstile 的 site key / secret key 形如 0x4AAAAAAA…
var keyPattern = regexp.MustCompile(`^0x[0-9A-Za-z_-]{10,}$`)

// Config 验证服务配置，加载后不可变
type Config struct {
	Enabled         bool
	SiteKey         string
	SecretKey       string
	VerifyURL       string
	Timeout         time.Duration
	RetryAttempts   int
	RetryInterval   time.Duration
	FallbackEnabled bool
	FallbackTimeout time.Duration
	Debug           bool
}

// LoadConfig 从进程环境读取 TURNSTILE_* 配置。
// 生产环境（APP_ENV=production）下缺失或格式非法的密钥是硬错误，
// 其他环境降级为警告并使用默认值。
func LoadConfig() (*Config, error) {
	production := strings.EqualFold(os.Getenv("APP_ENV"), "production")

	cfg := &Config{
		Enabled:         envBool("TURNSTILE_ENABLED", true),
		SiteKey:         strings.TrimSpace(os.Getenv("TURNSTILE_SITE_KEY")),
		SecretKey:       strings.TrimSpace(os.Getenv("TURNSTILE_SECRET_KEY")),
		VerifyURL:       strings.TrimSpace(os.Getenv("TURNSTILE_VERIFY_URL")),
		Timeout:         envDurationMS("TURNSTILE_TIMEOUT_MS", 10*time.Second),
		RetryAttempts:   envInt("TURNSTILE_RETRY_ATTEMPTS", 2),
		RetryInterval:   envDurationMS("TURNSTILE_RETRY_INTERVAL_MS", time.Second),
		FallbackEnabled: envBool("TURNSTILE_FALLBACK_ENABLED", false),
		FallbackTimeout: envDurationMS("TURNSTILE_FALLBACK_TIMEOUT_MS", 5*time.Second),
		Debug:           envBool("TURNSTILE_DEBUG", false),
	}
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}

	var problems []string
	if !keyPattern.MatchString(cfg.SiteKey) {
		problems = append(problems, "TURNSTILE_SITE_KEY is missing or malformed")
	}
	if !keyPattern.MatchString(cfg.SecretKey) {
		problems = append(problems, "TURNSTILE_SECRET_KEY is missing or malformed")
	}
	if u, err := url.Parse(cfg.VerifyURL); err != nil || u.Scheme != "https" || u.Hostname() != verifyHost {
		problems = append(problems, fmt.Sprintf("TURNSTILE_VERIFY_URL must be an https URL on %s", verifyHost))
	}

	if len(problems) > 0 {
		if production {
			return nil, fmt.Errorf("turnstile configuration invalid: %s", strings.Join(problems, "; "))
		}
		for _, p := range problems {
			slog.Warn("turnstile configuration problem (non-production, continuing)", "problem", p)
		}
	}
	return cfg, nil
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDurationMS(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}
