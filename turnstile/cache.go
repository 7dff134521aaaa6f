package turnstile

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultCacheTTL 功能开关缓存有效期
	DefaultCacheTTL = 5 * time.Minute
)

// CacheEntry 缓存条目快照
type CacheEntry struct {
	FeatureID   string    `json:"feature_id"`
	Enabled     bool      `json:"enabled"`
	LastUpdated time.Time `json:"last_updated"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CacheStatus 缓存诊断快照
type CacheStatus struct {
	Size    int          `json:"size"`
	TTL     string       `json:"ttl"`
	Entries []CacheEntry `json:"entries"`
}

type cachedFlag struct {
	Enabled     bool
	LastUpdated time.Time
}

// FeatureCache 功能开关的短 TTL 内存缓存，减少配置存储读压力。
// 过期条目视为不存在，读取与显式清理都会将其逐出。
type FeatureCache struct {
	ttl   time.Duration
	store *gocache.Cache
}

// NewFeatureCache ttl<=0 时使用默认 5 分钟
func NewFeatureCache(ttl time.Duration) *FeatureCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	// 关闭 go-cache 自带的清理协程，过期清理由 cron 统一触发
	return &FeatureCache{ttl: ttl, store: gocache.New(ttl, 0)}
}

// Get 读取功能开关，过期或不存在返回 (false, false)
func (c *FeatureCache) Get(featureID string) (bool, bool) {
	v, ok := c.store.Get(featureID)
	if !ok {
		return false, false
	}
	flag := v.(cachedFlag)
	return flag.Enabled, true
}

// Set 写入功能开关并盖上当前时间戳
func (c *FeatureCache) Set(featureID string, enabled bool) {
	c.store.Set(featureID, cachedFlag{Enabled: enabled, LastUpdated: time.Now()}, c.ttl)
}

// Delete 移除单个条目
func (c *FeatureCache) Delete(featureID string) {
	c.store.Delete(featureID)
}

// Clear 清空全部条目
func (c *FeatureCache) Clear() {
	c.store.Flush()
}

// ClearExpired 逐出所有已过期条目
func (c *FeatureCache) ClearExpired() {
	c.store.DeleteExpired()
}

// Status 返回诊断快照
func (c *FeatureCache) Status() CacheStatus {
	items := c.store.Items()
	status := CacheStatus{
		Size:    len(items),
		TTL:     c.ttl.String(),
		Entries: make([]CacheEntry, 0, len(items)),
	}
	now := time.Now()
	for featureID, item := range items {
		if item.Expiration > 0 && now.UnixNano() > item.Expiration {
			continue
		}
		flag := item.Object.(cachedFlag)
		status.Entries = append(status.Entries, CacheEntry{
			FeatureID:   featureID,
			Enabled:     flag.Enabled,
			LastUpdated: flag.LastUpdated,
			ExpiresAt:   time.Unix(0, item.Expiration),
		})
	}
	status.Size = len(status.Entries)
	return status
}
