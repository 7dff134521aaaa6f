package turnstile

import (
	"fmt"
	"sync"
	"time"
)

// 告警事件类型
const (
	AlertLowSuccessRate  = "turnstile_low_success_rate"
	AlertHighFallback    = "turnstile_high_fallback_rate"
	AlertSlowResponse    = "turnstile_slow_response"
	AlertServiceDegraded = "turnstile_service_degraded"
)

// 阈值规则
const (
	successRateThreshold   = 0.80
	successRateMinSamples  = 10
	fallbackRateThreshold  = 0.50
	fallbackRateMinSamples = 5
	avgResponseThresholdMS = 5000.0
	alertDedupWindow       = 5 * time.Minute
	unhealthySuccessRate   = 0.50
	degradedFallbackRate   = 0.30
)

// AlertLevel 告警级别
type AlertLevel string

const (
	LevelInfo     AlertLevel = "info"
	LevelWarning  AlertLevel = "warning"
	LevelError    AlertLevel = "error"
	LevelCritical AlertLevel = "critical"
)

// Alert 一条告警事件
type Alert struct {
	Level     AlertLevel             `json:"level"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	FeatureID string                 `json:"feature_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// AlertHandler 告警接收方
type AlertHandler interface {
	HandleAlert(alert Alert)
}

// MetricsSnapshot 滚动指标快照
type MetricsSnapshot struct {
	Total         int64   `json:"total"`
	Success       int64   `json:"success"`
	Failed        int64   `json:"failed"`
	FallbackUsed  int64   `json:"fallback_used"`
	SuccessRate   float64 `json:"success_rate"`
	FallbackRate  float64 `json:"fallback_rate"`
	AvgResponseMS float64 `json:"avg_response_ms"`
}

type rollingMetrics struct {
	total        int64
	success      int64
	failed       int64
	fallbackUsed int64
	avgRespMS    float64
}

func (m *rollingMetrics) record(success bool, responseTime time.Duration, fallbackUsed bool) {
	m.total++
	if success {
		m.success++
	} else {
		m.failed++
	}
	if fallbackUsed {
		m.fallbackUsed++
	}
	// 增量更新平均响应时间
	ms := float64(responseTime.Milliseconds())
	m.avgRespMS += (ms - m.avgRespMS) / float64(m.total)
}

func (m *rollingMetrics) snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Total:         m.total,
		Success:       m.success,
		Failed:        m.failed,
		FallbackUsed:  m.fallbackUsed,
		AvgResponseMS: m.avgRespMS,
	}
	if m.total > 0 {
		s.SuccessRate = float64(m.success) / float64(m.total)
		s.FallbackRate = float64(m.fallbackUsed) / float64(m.total)
	}
	return s
}

// HealthStatus 整体健康判定
type HealthStatus struct {
	Status          string          `json:"status"` // healthy, degraded, unhealthy
	Global          MetricsSnapshot `json:"global"`
	FeaturesInFault int             `json:"features_in_fallback"`
	CheckedAt       time.Time       `json:"checked_at"`
}

// Monitor 按功能与全局滚动统计验证结果，并按阈值触发告警。
// 同类告警在去重窗口内只发一次。
type Monitor struct {
	mu         sync.Mutex
	global     rollingMetrics
	perFeature map[string]*rollingMetrics
	lastAlert  map[string]time.Time

	handlersMu sync.RWMutex
	handlers   []AlertHandler

	fallback *FallbackHandler
}

func NewMonitor(fallback *FallbackHandler) *Monitor {
	return &Monitor{
		perFeature: make(map[string]*rollingMetrics),
		lastAlert:  make(map[string]time.Time),
		fallback:   fallback,
	}
}

// RegisterAlertHandler 注册告警接收方
func (m *Monitor) RegisterAlertHandler(handler AlertHandler) {
	if handler == nil {
		return
	}
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// RecordValidation 记录一次验证结果并评估阈值规则
func (m *Monitor) RecordValidation(featureID string, success bool, responseTime time.Duration, fallbackUsed bool) {
	var alerts []Alert

	m.mu.Lock()
	m.global.record(success, responseTime, fallbackUsed)
	fm, ok := m.perFeature[featureID]
	if !ok {
		fm = &rollingMetrics{}
		m.perFeature[featureID] = fm
	}
	fm.record(success, responseTime, fallbackUsed)
	alerts = m.evaluateLocked(featureID, fm)
	m.mu.Unlock()

	for _, alert := range alerts {
		m.dispatch(alert)
	}
}

// evaluateLocked 三条独立阈值规则，各自带去重窗口。调用方持锁。
func (m *Monitor) evaluateLocked(featureID string, fm *rollingMetrics) []Alert {
	var alerts []Alert
	now := time.Now()
	snap := fm.snapshot()

	if snap.Total >= successRateMinSamples && snap.SuccessRate < successRateThreshold {
		if m.allowAlertLocked(featureID, AlertLowSuccessRate, now) {
			alerts = append(alerts, Alert{
				Level:     LevelWarning,
				Type:      AlertLowSuccessRate,
				Title:     "Turnstile 验证成功率过低",
				Message:   fmt.Sprintf("功能 [%s] 验证成功率 %.1f%%，低于 %.0f%%", FeatureName(featureID), snap.SuccessRate*100, successRateThreshold*100),
				FeatureID: featureID,
				Timestamp: now,
				Metadata:  map[string]interface{}{"success_rate": snap.SuccessRate, "samples": snap.Total},
			})
		}
	}
	if snap.Total >= fallbackRateMinSamples && snap.FallbackRate > fallbackRateThreshold {
		if m.allowAlertLocked(featureID, AlertHighFallback, now) {
			alerts = append(alerts, Alert{
				Level:     LevelError,
				Type:      AlertHighFallback,
				Title:     "Turnstile 降级使用率过高",
				Message:   fmt.Sprintf("功能 [%s] 降级使用率 %.1f%%，超过 %.0f%%", FeatureName(featureID), snap.FallbackRate*100, fallbackRateThreshold*100),
				FeatureID: featureID,
				Timestamp: now,
				Metadata:  map[string]interface{}{"fallback_rate": snap.FallbackRate, "samples": snap.Total},
			})
		}
	}
	if snap.Total > 0 && snap.AvgResponseMS > avgResponseThresholdMS {
		if m.allowAlertLocked(featureID, AlertSlowResponse, now) {
			alerts = append(alerts, Alert{
				Level:     LevelWarning,
				Type:      AlertSlowResponse,
				Title:     "Turnstile 验证响应缓慢",
				Message:   fmt.Sprintf("功能 [%s] 平均响应 %.0fms，超过 %.0fms", FeatureName(featureID), snap.AvgResponseMS, avgResponseThresholdMS),
				FeatureID: featureID,
				Timestamp: now,
				Metadata:  map[string]interface{}{"avg_response_ms": snap.AvgResponseMS},
			})
		}
	}
	return alerts
}

func (m *Monitor) allowAlertLocked(featureID, alertType string, now time.Time) bool {
	key := featureID + "|" + alertType
	if last, ok := m.lastAlert[key]; ok && now.Sub(last) < alertDedupWindow {
		return false
	}
	m.lastAlert[key] = now
	return true
}

func (m *Monitor) dispatch(alert Alert) {
	m.handlersMu.RLock()
	handlers := make([]AlertHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.handlersMu.RUnlock()
	for _, h := range handlers {
		h.HandleAlert(alert)
	}
}

// GlobalMetrics 全局指标快照
func (m *Monitor) GlobalMetrics() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.global.snapshot()
}

// FeatureMetrics 按功能的指标快照
func (m *Monitor) FeatureMetrics() map[string]MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]MetricsSnapshot, len(m.perFeature))
	for featureID, fm := range m.perFeature {
		result[featureID] = fm.snapshot()
	}
	return result
}

// ResetMetrics 管理端显式重置全部滚动指标
func (m *Monitor) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = rollingMetrics{}
	m.perFeature = make(map[string]*rollingMetrics)
	m.lastAlert = make(map[string]time.Time)
}

// GetHealthStatus 根据全局成功率、降级率与降级功能数给出整体判定
func (m *Monitor) GetHealthStatus() HealthStatus {
	global := m.GlobalMetrics()
	fallbackCount := 0
	if m.fallback != nil {
		fallbackCount = m.fallback.FallbackCount()
	}

	status := "healthy"
	switch {
	case global.Total >= successRateMinSamples && global.SuccessRate < unhealthySuccessRate:
		status = "unhealthy"
	case fallbackCount > 0,
		global.Total >= fallbackRateMinSamples && global.FallbackRate > degradedFallbackRate,
		global.Total >= successRateMinSamples && global.SuccessRate < successRateThreshold:
		status = "degraded"
	}
	return HealthStatus{
		Status:          status,
		Global:          global,
		FeaturesInFault: fallbackCount,
		CheckedAt:       time.Now(),
	}
}
