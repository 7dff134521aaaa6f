package admin

import "github.com/cosphere-app/turnguard/turnstile"

// Handler 管理端接口集合，依赖由组装入口注入
type Handler struct {
	Manager  *turnstile.FeatureManager
	Monitor  *turnstile.Monitor
	Fallback *turnstile.FallbackHandler
	Cache    *turnstile.FeatureCache
	Sessions *turnstile.SessionManager
	Client   turnstile.VerifyClient
}
