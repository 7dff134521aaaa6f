package turnstile

import (
	"context"
	"log/slog"
	"regexp"
	"time"
)

// token 长度与字符集约束，不满足直接本地拒绝
const (
	minTokenLength = 10
	maxTokenLength = 2048
)

var tokenPattern = regexp.MustCompile(`^[0-9A-Za-z._-]+$`)

// FeatureStore 配置存储适配器契约
type FeatureStore interface {
	GetAllFeatureConfigs() (map[string]bool, error)
	UpdateFeatureConfig(featureID string, enabled bool, adminID string) error
	BatchUpdateFeatures(featureIDs []string, enabled bool, adminID string) (int, error)
}

// VerifyClient 验证服务客户端契约
type VerifyClient interface {
	SendVerifyRequest(ctx context.Context, secret, token, remoteIP string) (*VerifyResponse, error)
	HealthCheck(ctx context.Context) bool
}

// AuditSink 安全审计事件落库契约
type AuditSink interface {
	RecordEvent(eventType, featureID, detail, clientIP string)
}

// ValidationResult 一次验证的最终结果，所有状态都落到这里，不向外抛异常
type ValidationResult struct {
	Success      bool          `json:"success"`
	ErrorCode    string        `json:"error_code,omitempty"`
	Message      string        `json:"message,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"response_time"`
	FallbackUsed bool          `json:"fallback_used"`
	SessionHit   bool          `json:"session_hit"`
}

// Validator 验证编排核心。依赖全部由构造注入，没有包级单例。
type Validator struct {
	cfg      *Config
	cache    *FeatureCache
	sessions *SessionManager
	fallback *FallbackHandler
	client   VerifyClient
	monitor  *Monitor
	store    FeatureStore
	audit    AuditSink
}

func NewValidator(cfg *Config, cache *FeatureCache, sessions *SessionManager,
	fallback *FallbackHandler, client VerifyClient, monitor *Monitor,
	store FeatureStore, audit AuditSink) *Validator {
	return &Validator{
		cfg:      cfg,
		cache:    cache,
		sessions: sessions,
		fallback: fallback,
		client:   client,
		monitor:  monitor,
		store:    store,
		audit:    audit,
	}
}

func (v *Validator) recordAudit(eventType, featureID, detail, clientIP string) {
	if v.audit != nil {
		v.audit.RecordEvent(eventType, featureID, detail, clientIP)
	}
}

// featureRequiresVerification 解析功能开关：先查缓存，未命中读存储并回填。
// 存储不可用时走熔断处理；critical 等级在存储故障下仍然要求验证（失败关闭）。
func (v *Validator) featureRequiresVerification(featureID, clientIP string) (enabled bool, fromFallback bool) {
	if enabled, ok := v.cache.Get(featureID); ok {
		return enabled, false
	}
	all, err := v.store.GetAllFeatureConfigs()
	if err != nil {
		slog.Error("failed to read feature configs", "feature", featureID, "error", err)
		v.recordAudit("turnstile_store_error", featureID, err.Error(), clientIP)
		if FeatureTier(featureID) == TierCritical {
			// 存储故障不能让 critical 功能跳过验证
			return true, true
		}
		return v.fallback.HandleDatabaseError(featureID, err), true
	}
	v.fallback.OnStoreSuccess()
	for id, flag := range all {
		v.cache.Set(id, flag)
	}
	return all[featureID], false
}

// ValidateToken 校验一个 Turnstile token。
// 状态机：全局关闭 → 会话命中 → 降级放行 → 格式拒绝 → 实际校验 → 异常恢复。
// 任何路径都返回 ValidationResult，重试由调用方决定。
func (v *Validator) ValidateToken(ctx context.Context, token, featureID, userID, clientIP string) ValidationResult {
	start := time.Now()
	result := ValidationResult{Timestamp: start}

	// 全局开关关闭：直接放行，不计指标
	if v.cfg == nil || !v.cfg.Enabled {
		result.Success = true
		return result
	}

	if !IsKnownFeature(featureID) {
		result.ErrorCode = ErrCodeBadRequest
		result.Message = FormatUserMessage(ErrCodeBadRequest)
		return result
	}

	enabled, fromFallback := v.featureRequiresVerification(featureID, clientIP)
	if !enabled {
		// 该功能未开启验证
		result.Success = true
		result.FallbackUsed = fromFallback
		if fromFallback {
			v.recordAudit("turnstile_fallback_used", featureID, "feature flag resolved via fallback", clientIP)
			v.monitor.RecordValidation(featureID, true, time.Since(start), true)
		}
		return result
	}

	// 同一浏览上下文内已验证过
	if v.sessions.IsSessionValid(featureID, userID, clientIP) {
		result.Success = true
		result.SessionHit = true
		result.ResponseTime = time.Since(start)
		v.monitor.RecordValidation(featureID, true, result.ResponseTime, false)
		return result
	}

	// 功能处于降级状态且等级允许：不打网络调用
	if v.fallback.InFallback(featureID) && v.fallback.ShouldUseFallback() &&
		v.fallback.TierAllowsFallback(featureID) {
		result.Success = true
		result.FallbackUsed = true
		result.ResponseTime = time.Since(start)
		v.recordAudit("turnstile_fallback_used", featureID, "active fallback state", clientIP)
		v.monitor.RecordValidation(featureID, true, result.ResponseTime, true)
		return result
	}

	// 格式错误本地拒绝，永不升级为降级
	if code := checkTokenFormat(token); code != "" {
		result.ErrorCode = code
		result.Message = FormatUserMessage(code)
		result.ResponseTime = time.Since(start)
		v.monitor.RecordValidation(featureID, false, result.ResponseTime, false)
		return result
	}

	resp, err := v.client.SendVerifyRequest(ctx, v.cfg.SecretKey, token, clientIP)
	result.ResponseTime = time.Since(start)
	if err != nil {
		return v.recoverFromError(featureID, userID, clientIP, err, result)
	}

	if resp.Success {
		result.Success = true
		v.sessions.CreateSession(featureID, token, userID, clientIP, 0)
		if v.cfg.Debug {
			slog.Debug("turnstile verification passed",
				"feature", featureID, "hostname", resp.Hostname, "ip", clientIP)
		}
		v.monitor.RecordValidation(featureID, true, result.ResponseTime, false)
		return result
	}

	code := ErrCodeInvalidToken
	if len(resp.ErrorCodes) > 0 {
		code = resp.ErrorCodes[0]
	}
	result.ErrorCode = code
	result.Message = FormatUserMessage(code)
	slog.Info("turnstile verification rejected",
		"feature", featureID, "code", code, "detail", ProviderErrorMessage(code), "ip", clientIP)
	v.monitor.RecordValidation(featureID, false, result.ResponseTime, false)
	return result
}

// recoverFromError 实际校验抛错后的恢复路径：可重试且等级允许时降级放行，
// 否则返回统一的服务不可用失败。critical 功能在任何情况下都不会被降级放行。
func (v *Validator) recoverFromError(featureID, userID, clientIP string, err error, result ValidationResult) ValidationResult {
	slog.Error("turnstile verify request failed",
		"feature", featureID, "error", err, "ip", clientIP)
	v.recordAudit("turnstile_network_error", featureID, err.Error(), clientIP)

	if v.fallback.HandleNetworkError(featureID, err) {
		result.Success = true
		result.FallbackUsed = true
		v.recordAudit("turnstile_fallback_used", featureID, "network error: "+err.Error(), clientIP)
		v.monitor.RecordValidation(featureID, true, result.ResponseTime, true)
		return result
	}

	result.Success = false
	result.ErrorCode = ErrCodeServiceUnavailable
	result.Message = FormatUserMessage(ErrCodeServiceUnavailable)
	v.monitor.RecordValidation(featureID, false, result.ResponseTime, false)
	return result
}

func checkTokenFormat(token string) string {
	if token == "" {
		return ErrCodeMissingToken
	}
	if len(token) < minTokenLength || len(token) > maxTokenLength {
		return ErrCodeFormat
	}
	if !tokenPattern.MatchString(token) {
		return ErrCodeFormat
	}
	return ""
}

// BatchValidationSummary 批量校验汇总
type BatchValidationSummary struct {
	Total          int            `json:"total"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	SuccessRate    float64        `json:"success_rate"`
	AvgResponseMS  float64        `json:"avg_response_ms"`
	ErrorBreakdown map[string]int `json:"error_breakdown"`
}

// ValidateTokens 顺序逐个校验，不并行，避免在事故期间放大对验证服务的压力
func (v *Validator) ValidateTokens(ctx context.Context, tokens []string, featureID, userID, clientIP string) ([]ValidationResult, BatchValidationSummary) {
	results := make([]ValidationResult, 0, len(tokens))
	summary := BatchValidationSummary{ErrorBreakdown: make(map[string]int)}
	var totalMS float64
	for _, token := range tokens {
		result := v.ValidateToken(ctx, token, featureID, userID, clientIP)
		results = append(results, result)
		summary.Total++
		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
			if result.ErrorCode != "" {
				summary.ErrorBreakdown[result.ErrorCode]++
			}
		}
		totalMS += float64(result.ResponseTime.Milliseconds())
	}
	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Succeeded) / float64(summary.Total)
		summary.AvgResponseMS = totalMS / float64(summary.Total)
	}
	return results, summary
}
