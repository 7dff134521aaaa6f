package turnstile

// SecurityTier 功能安全等级，决定降级策略
type SecurityTier int

const (
	TierLow SecurityTier = iota
	TierMedium
	TierHigh
	TierCritical
)

func (t SecurityTier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	case TierCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// 受保护功能 ID
const (
	FeatureRegistration   = "registration"
	FeatureLogin          = "login"
	FeaturePasswordReset  = "password_reset"
	FeatureGuestComment   = "guest_comment"
	FeatureCommentPost    = "comment_post"
	FeatureContentPublish = "content_publish"
)

// FeatureMeta 功能元信息
type FeatureMeta struct {
	ID   string
	Name string
	Tier SecurityTier
}

var featureRegistry = map[string]FeatureMeta{
	FeatureRegistration:   {ID: FeatureRegistration, Name: "用户注册", Tier: TierHigh},
	FeatureLogin:          {ID: FeatureLogin, Name: "用户登录", Tier: TierCritical},
	FeaturePasswordReset:  {ID: FeaturePasswordReset, Name: "密码重置", Tier: TierCritical},
	FeatureGuestComment:   {ID: FeatureGuestComment, Name: "游客评论", Tier: TierLow},
	FeatureCommentPost:    {ID: FeatureCommentPost, Name: "发表评论", Tier: TierMedium},
	FeatureContentPublish: {ID: FeatureContentPublish, Name: "作品发布", Tier: TierMedium},
}

// KnownFeatureIDs 返回全部已知功能 ID（顺序固定）
func KnownFeatureIDs() []string {
	return []string{
		FeatureRegistration,
		FeatureLogin,
		FeaturePasswordReset,
		FeatureGuestComment,
		FeatureCommentPost,
		FeatureContentPublish,
	}
}

// IsKnownFeature 判断功能 ID 是否在注册表内
func IsKnownFeature(featureID string) bool {
	_, ok := featureRegistry[featureID]
	return ok
}

// FeatureTier 返回功能的安全等级，未知功能按 critical 处理（失败关闭）
func FeatureTier(featureID string) SecurityTier {
	if meta, ok := featureRegistry[featureID]; ok {
		return meta.Tier
	}
	return TierCritical
}

// FeatureName 返回功能显示名
func FeatureName(featureID string) string {
	if meta, ok := featureRegistry[featureID]; ok {
		return meta.Name
	}
	return featureID
}

// AllowsFallback critical 等级永远不允许降级放行
func (t SecurityTier) AllowsFallback() bool {
	return t != TierCritical
}
