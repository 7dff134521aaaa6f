package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cosphere-app/turnguard/api"
	"github.com/cosphere-app/turnguard/database/auditlog"
)

// GET /api/admin/turnstile/health
func (h *Handler) GetHealthStatus(c *gin.Context) {
	status := h.Monitor.GetHealthStatus()
	upstream := h.Client.HealthCheck(c.Request.Context())
	api.RespondSuccess(c, gin.H{
		"health":           status,
		"upstream_healthy": upstream,
	})
}

// GET /api/admin/turnstile/metrics
func (h *Handler) GetMetrics(c *gin.Context) {
	api.RespondSuccess(c, gin.H{
		"global":   h.Monitor.GlobalMetrics(),
		"features": h.Monitor.FeatureMetrics(),
	})
}

// POST /api/admin/turnstile/metrics/reset
func (h *Handler) ResetMetrics(c *gin.Context) {
	h.Monitor.ResetMetrics()
	api.RespondSuccess(c, gin.H{"reset": true})
}

// GET /api/admin/turnstile/cache
func (h *Handler) GetCacheStatus(c *gin.Context) {
	api.RespondSuccess(c, h.Cache.Status())
}

// POST /api/admin/turnstile/cache/clear
func (h *Handler) ClearCache(c *gin.Context) {
	h.Cache.Clear()
	api.RespondSuccess(c, gin.H{"cleared": true})
}

// GET /api/admin/turnstile/fallback
func (h *Handler) GetFallbackStates(c *gin.Context) {
	api.RespondSuccess(c, gin.H{
		"fallback_enabled": h.Fallback.ShouldUseFallback(),
		"states":           h.Fallback.States(),
	})
}

// POST /api/admin/turnstile/fallback/:id/recover
func (h *Handler) RecoverFallback(c *gin.Context) {
	featureID := c.Param("id")
	h.Fallback.Recover(featureID)
	api.RespondSuccess(c, gin.H{"feature_id": featureID, "recovered": true})
}

// GET /api/admin/turnstile/sessions
func (h *Handler) GetSessionStats(c *gin.Context) {
	api.RespondSuccess(c, gin.H{"active_sessions": h.Sessions.Count()})
}

// GET /api/admin/audit
func (h *Handler) GetAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := auditlog.Recent(limit)
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	api.RespondSuccess(c, logs)
}
