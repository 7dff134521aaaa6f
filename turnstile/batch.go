package turnstile

import (
	"fmt"
	"log/slog"
)

// BatchResult 批量开关操作结果
type BatchResult struct {
	Success      bool     `json:"success"`
	UpdatedCount int      `json:"updated_count"`
	TotalCount   int      `json:"total_count"`
	Errors       []string `json:"errors,omitempty"`
}

// FeatureManager 管理端功能开关操作：单个与批量启停。
// 批量更新、缓存失效与后续读取不在一个事务里，所以写完之后
// 逐个对照线上真实状态，把不一致当错误上报，而不是信任刚写过的缓存。
type FeatureManager struct {
	store FeatureStore
	cache *FeatureCache

	// 测试模式下跳过写后核对
	SkipVerification bool
}

func NewFeatureManager(store FeatureStore, cache *FeatureCache) *FeatureManager {
	return &FeatureManager{store: store, cache: cache}
}

// SetFeature 启停单个功能并同步缓存
func (m *FeatureManager) SetFeature(featureID string, enabled bool, adminID string) error {
	if err := m.store.UpdateFeatureConfig(featureID, enabled, adminID); err != nil {
		return err
	}
	m.cache.Set(featureID, enabled)
	slog.Info("turnstile feature updated",
		"feature", featureID, "enabled", enabled, "admin", adminID)
	return nil
}

// EnableAllFeatures 批量开启全部已知功能
func (m *FeatureManager) EnableAllFeatures(adminID string) BatchResult {
	return m.setAll(true, adminID)
}

// DisableAllFeatures 批量关闭全部已知功能
func (m *FeatureManager) DisableAllFeatures(adminID string) BatchResult {
	return m.setAll(false, adminID)
}

func (m *FeatureManager) setAll(enabled bool, adminID string) BatchResult {
	featureIDs := KnownFeatureIDs()
	result := BatchResult{TotalCount: len(featureIDs)}

	updated, err := m.store.BatchUpdateFeatures(featureIDs, enabled, adminID)
	result.UpdatedCount = updated
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	// 无条件失效整个缓存，后续读取回源
	m.cache.Clear()

	if !m.SkipVerification {
		result.Errors = append(result.Errors, m.verifyAll(enabled)...)
	}

	result.Success = len(result.Errors) == 0 && updated == len(featureIDs)
	slog.Info("turnstile batch feature update",
		"enabled", enabled, "updated", updated, "total", len(featureIDs),
		"errors", len(result.Errors), "admin", adminID)
	return result
}

// verifyAll 写后核对：重新读取线上状态，收集与目标不一致的功能
func (m *FeatureManager) verifyAll(expected bool) []string {
	var errs []string
	all, err := m.store.GetAllFeatureConfigs()
	if err != nil {
		return []string{fmt.Sprintf("post-update verification failed: %v", err)}
	}
	for _, featureID := range KnownFeatureIDs() {
		if all[featureID] != expected {
			errs = append(errs, fmt.Sprintf("feature %s: expected enabled=%v, got %v",
				featureID, expected, all[featureID]))
		}
	}
	return errs
}
