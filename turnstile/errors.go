package turnstile

// 内部错误码
const (
	ErrCodeMissingToken       = "missing-input-response"
	ErrCodeInvalidToken       = "invalid-input-response"
	ErrCodeMissingSecret      = "missing-input-secret"
	ErrCodeInvalidSecret      = "invalid-input-secret"
	ErrCodeTimeoutOrDuplicate = "timeout-or-duplicate"
	ErrCodeBadRequest         = "bad-request"
	ErrCodeInternalError      = "internal-error"

	ErrCodeFormat             = "format-error"
	ErrCodeNetwork            = "network-error"
	ErrCodeTimeout            = "timeout"
	ErrCodeServiceUnavailable = "service-unavailable"
)

// 服务商错误码到内部描述的映射
var providerErrorMessages = map[string]string{
	ErrCodeMissingSecret:      "服务端缺少 secret 参数",
	ErrCodeInvalidSecret:      "secret 参数无效",
	ErrCodeMissingToken:       "缺少验证 token",
	ErrCodeInvalidToken:       "验证 token 无效或已过期",
	ErrCodeTimeoutOrDuplicate: "验证 token 已超时或被重复使用",
	ErrCodeBadRequest:         "验证请求格式错误",
	ErrCodeInternalError:      "验证服务内部错误",
}

// ProviderErrorMessage 返回服务商错误码对应的描述
func ProviderErrorMessage(code string) string {
	if msg, ok := providerErrorMessages[code]; ok {
		return msg
	}
	return "未知验证错误: " + code
}

// FormatUserMessage 将内部错误码映射为面向用户的友好提示。
// 不暴露底层技术细节。
func FormatUserMessage(code string) string {
	switch code {
	case "":
		return ""
	case ErrCodeMissingToken, ErrCodeFormat:
		return "请完成人机验证"
	case ErrCodeInvalidToken, ErrCodeTimeoutOrDuplicate:
		return "验证已过期，请重新验证"
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeServiceUnavailable,
		ErrCodeInternalError, ErrCodeBadRequest,
		ErrCodeMissingSecret, ErrCodeInvalidSecret:
		return "验证服务暂时不可用，请稍后重试"
	default:
		return "验证失败，请重试"
	}
}

// IsRetryableErrorCode 判断错误码是否属于可重试的网络类错误（可触发降级）
func IsRetryableErrorCode(code string) bool {
	switch code {
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeServiceUnavailable, ErrCodeInternalError:
		return true
	default:
		return false
	}
}
