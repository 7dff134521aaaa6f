package cmd

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/cosphere-app/turnguard/api"
	"github.com/cosphere-app/turnguard/api/admin"
	"github.com/cosphere-app/turnguard/database/auditlog"
	"github.com/cosphere-app/turnguard/database/dbcore"
	"github.com/cosphere-app/turnguard/database/features"
	"github.com/cosphere-app/turnguard/turnstile"
	"github.com/cosphere-app/turnguard/ws"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动验证服务",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

// runServer 组装入口：所有依赖在这里显式构造并注入，不走包级单例
func runServer() {
	cfg, err := turnstile.LoadConfig()
	if err != nil {
		log.Fatalf("turnstile configuration error: %v", err)
	}

	// 触发数据库初始化与迁移
	dbcore.GetDBInstance()
	if err := features.InitializeFeatureConfigs(); err != nil {
		log.Fatalf("failed to initialize feature configs: %v", err)
	}

	cache := turnstile.NewFeatureCache(turnstile.DefaultCacheTTL)
	sessions := turnstile.NewSessionManager(turnstile.DefaultSessionTTL)
	fallback := turnstile.NewFallbackHandler(cfg)
	client := turnstile.NewClient(cfg)
	monitor := turnstile.NewMonitor(fallback)
	store := features.NewStore()
	audit := auditlog.NewSink()
	validator := turnstile.NewValidator(cfg, cache, sessions, fallback, client, monitor, store, audit)
	manager := turnstile.NewFeatureManager(store, cache)

	monitor.RegisterAlertHandler(turnstile.LogAlertHandler{})
	monitor.RegisterAlertHandler(turnstile.MessageBotAlertHandler{})
	monitor.RegisterAlertHandler(ws.AlertBroadcaster{})

	startSchedules(sessions, cache, client, fallback)

	verifyHandler := &api.VerifyHandler{Validator: validator}
	adminHandler := &admin.Handler{
		Manager:  manager,
		Monitor:  monitor,
		Fallback: fallback,
		Cache:    cache,
		Sessions: sessions,
		Client:   client,
	}

	r := buildRouter(verifyHandler, adminHandler)
	log.Printf("turnguard listening on %s", listenAddr)
	if err := r.Run(listenAddr); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// startSchedules 周期任务：过期会话与缓存清理、验证服务健康探测
func startSchedules(sessions *turnstile.SessionManager, cache *turnstile.FeatureCache,
	client *turnstile.Client, fallback *turnstile.FallbackHandler) {
	c := cron.New()
	if _, err := c.AddFunc("@every 5m", func() {
		sessions.SweepExpired()
		cache.ClearExpired()
	}); err != nil {
		log.Printf("failed to register sweep schedule: %v", err)
	}
	if _, err := c.AddFunc("@every 1m", func() {
		if fallback.FallbackCount() == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		fallback.OnHealthProbe(client.HealthCheck(ctx))
	}); err != nil {
		log.Printf("failed to register health probe schedule: %v", err)
	}
	c.Start()
}

func buildRouter(verify *api.VerifyHandler, adminHandler *admin.Handler) *gin.Engine {
	r := gin.Default()

	r.POST("/api/login", api.Login)
	r.POST("/api/logout", api.Logout)
	r.POST("/api/verify", verify.Verify)
	r.POST("/api/verify/batch", verify.VerifyBatch)

	adminGroup := r.Group("/api/admin", api.AdminAuthRequired())
	{
		adminGroup.GET("/features", adminHandler.ListFeatures)
		adminGroup.POST("/features/enable-all", adminHandler.EnableAllFeatures)
		adminGroup.POST("/features/disable-all", adminHandler.DisableAllFeatures)
		adminGroup.POST("/feature/:id/enable", adminHandler.EnableFeature)
		adminGroup.POST("/feature/:id/disable", adminHandler.DisableFeature)

		adminGroup.GET("/turnstile/health", adminHandler.GetHealthStatus)
		adminGroup.GET("/turnstile/metrics", adminHandler.GetMetrics)
		adminGroup.POST("/turnstile/metrics/reset", adminHandler.ResetMetrics)
		adminGroup.GET("/turnstile/cache", adminHandler.GetCacheStatus)
		adminGroup.POST("/turnstile/cache/clear", adminHandler.ClearCache)
		adminGroup.GET("/turnstile/fallback", adminHandler.GetFallbackStates)
		adminGroup.POST("/turnstile/fallback/:id/recover", adminHandler.RecoverFallback)
		adminGroup.GET("/turnstile/sessions", adminHandler.GetSessionStats)
		adminGroup.GET("/audit", adminHandler.GetAuditLogs)
		adminGroup.GET("/alerts/stream", adminHandler.AlertStream)
	}
	return r
}
