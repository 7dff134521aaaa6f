package turnstile

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// FallbackReason 降级原因
type FallbackReason string

const (
	ReasonTimeout            FallbackReason = "timeout"
	ReasonNetworkError       FallbackReason = "network_error"
	ReasonStoreError         FallbackReason = "database_error"
	ReasonRateLimited        FallbackReason = "rate_limited"
	ReasonServiceUnavailable FallbackReason = "service_unavailable"
)

// 连续健康探测达到该次数后清除网络类降级状态
const recoveryProbeThreshold = 3

// FallbackState 单个功能的降级状态
type FallbackState struct {
	FeatureID           string         `json:"feature_id"`
	Reason              FallbackReason `json:"reason"`
	Since               time.Time      `json:"since"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	LastError           string         `json:"last_error"`
}

// FallbackHandler 熔断处理：下游（验证服务 / 配置存储）不可用时决定
// 每个功能能否使用降级结果，以及降级结果是什么。
// 策略刻意保守：降级永远不会把功能悄悄打开（失败关闭）。
type FallbackHandler struct {
	cfg *Config

	mu     sync.RWMutex
	states map[string]*FallbackState

	healthyProbes int
}

func NewFallbackHandler(cfg *Config) *FallbackHandler {
	return &FallbackHandler{cfg: cfg, states: make(map[string]*FallbackState)}
}

// ShouldUseFallback 全局降级开关，与具体错误无关
func (h *FallbackHandler) ShouldUseFallback() bool {
	return h.cfg != nil && h.cfg.FallbackEnabled
}

// FallbackFeatureStatus 降级时功能开关的安全默认值。
// 即使全局降级开启也返回 false：降级不会打开任何功能。
func (h *FallbackHandler) FallbackFeatureStatus(featureID string) bool {
	return false
}

// TierAllowsFallback 判断功能安全等级是否允许降级放行
func (h *FallbackHandler) TierAllowsFallback(featureID string) bool {
	return FeatureTier(featureID).AllowsFallback()
}

// HandleDatabaseError 记录一次配置存储故障并返回安全的功能开关默认值。
// 该路径自身出错时仍然返回 false。
func (h *FallbackHandler) HandleDatabaseError(featureID string, err error) bool {
	h.recordFailure(featureID, ReasonStoreError, err)
	return h.FallbackFeatureStatus(featureID)
}

// HandleNetworkError 记录一次验证服务故障，返回该功能能否降级放行
func (h *FallbackHandler) HandleNetworkError(featureID string, err error) bool {
	h.recordFailure(featureID, classifyNetworkError(err), err)
	if !h.ShouldUseFallback() {
		return false
	}
	return h.TierAllowsFallback(featureID)
}

func (h *FallbackHandler) recordFailure(featureID string, reason FallbackReason, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	state, ok := h.states[featureID]
	if !ok {
		state = &FallbackState{FeatureID: featureID, Since: time.Now()}
		h.states[featureID] = state
	}
	state.Reason = reason
	state.ConsecutiveFailures++
	state.LastError = detail
	h.healthyProbes = 0
	slog.Warn("turnstile fallback triggered",
		"feature", featureID, "reason", string(reason),
		"consecutive_failures", state.ConsecutiveFailures, "error", detail)
}

// InFallback 功能当前是否处于降级状态
func (h *FallbackHandler) InFallback(featureID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.states[featureID]
	return ok
}

// State 返回功能的降级状态副本
func (h *FallbackHandler) State(featureID string) *FallbackState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	state, ok := h.states[featureID]
	if !ok {
		return nil
	}
	copied := *state
	return &copied
}

// States 返回全部降级状态快照
func (h *FallbackHandler) States() []FallbackState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]FallbackState, 0, len(h.states))
	for _, state := range h.states {
		result = append(result, *state)
	}
	return result
}

// FallbackCount 当前处于降级状态的功能数
func (h *FallbackHandler) FallbackCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.states)
}

// Recover 显式清除某个功能的降级状态
func (h *FallbackHandler) Recover(featureID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.states[featureID]; ok {
		delete(h.states, featureID)
		slog.Info("turnstile fallback cleared", "feature", featureID)
	}
}

// OnStoreSuccess 配置存储恢复可读后清除存储类降级状态
func (h *FallbackHandler) OnStoreSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for featureID, state := range h.states {
		if state.Reason == ReasonStoreError {
			delete(h.states, featureID)
			slog.Info("turnstile fallback cleared after store recovery", "feature", featureID)
		}
	}
}

// OnHealthProbe 健康探测回调：连续若干次探测成功后清除网络类降级状态
func (h *FallbackHandler) OnHealthProbe(healthy bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !healthy {
		h.healthyProbes = 0
		return
	}
	h.healthyProbes++
	if h.healthyProbes < recoveryProbeThreshold {
		return
	}
	for featureID, state := range h.states {
		if state.Reason == ReasonStoreError {
			continue
		}
		delete(h.states, featureID)
		slog.Info("turnstile fallback cleared after sustained recovery", "feature", featureID)
	}
}

// classifyNetworkError 将网络错误归类为降级原因
func classifyNetworkError(err error) FallbackReason {
	if err == nil {
		return ReasonServiceUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate"):
		return ReasonRateLimited
	case strings.Contains(msg, "503") || strings.Contains(msg, "unavailable"):
		return ReasonServiceUnavailable
	default:
		return ReasonNetworkError
	}
}
