package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cosphere-app/turnguard/turnstile"
)

// VerifyHandler 对外的验证入口，依赖注入验证核心
type VerifyHandler struct {
	Validator *turnstile.Validator
}

type verifyRequest struct {
	Token     string `json:"token"`
	FeatureID string `json:"feature_id" binding:"required"`
	UserID    string `json:"user_id"`
}

// POST /api/verify
func (h *VerifyHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	result := h.Validator.ValidateToken(c.Request.Context(), req.Token, req.FeatureID, req.UserID, c.ClientIP())
	RespondSuccess(c, gin.H{
		"success":       result.Success,
		"error_code":    result.ErrorCode,
		"message":       result.Message,
		"fallback_used": result.FallbackUsed,
	})
}

type batchVerifyRequest struct {
	Tokens    []string `json:"tokens" binding:"required"`
	FeatureID string   `json:"feature_id" binding:"required"`
	UserID    string   `json:"user_id"`
}

// POST /api/verify/batch
func (h *VerifyHandler) VerifyBatch(c *gin.Context) {
	var req batchVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if len(req.Tokens) > 50 {
		RespondError(c, http.StatusBadRequest, "单次最多校验 50 个 token")
		return
	}
	results, summary := h.Validator.ValidateTokens(c.Request.Context(), req.Tokens, req.FeatureID, req.UserID, c.ClientIP())
	RespondSuccess(c, gin.H{
		"results": results,
		"summary": summary,
	})
}
