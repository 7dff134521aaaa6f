package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cosphere-app/turnguard/api"
	"github.com/cosphere-app/turnguard/database/features"
	"github.com/cosphere-app/turnguard/turnstile"
)

// GET /api/admin/features
func (h *Handler) ListFeatures(c *gin.Context) {
	records, err := features.ListFeatureConfigs()
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	type featureView struct {
		FeatureID string `json:"feature_id"`
		Name      string `json:"name"`
		Tier      string `json:"tier"`
		Enabled   bool   `json:"enabled"`
		UpdatedBy string `json:"updated_by"`
		UpdatedAt string `json:"updated_at"`
	}
	views := make([]featureView, 0, len(records))
	for _, r := range records {
		views = append(views, featureView{
			FeatureID: r.FeatureID,
			Name:      turnstile.FeatureName(r.FeatureID),
			Tier:      turnstile.FeatureTier(r.FeatureID).String(),
			Enabled:   r.Enabled,
			UpdatedBy: r.UpdatedBy,
			UpdatedAt: r.UpdatedAt.ToTime().Format("2006-01-02 15:04:05"),
		})
	}
	api.RespondSuccess(c, views)
}

// POST /api/admin/feature/:id/enable
func (h *Handler) EnableFeature(c *gin.Context) {
	h.setFeature(c, true)
}

// POST /api/admin/feature/:id/disable
func (h *Handler) DisableFeature(c *gin.Context) {
	h.setFeature(c, false)
}

func (h *Handler) setFeature(c *gin.Context, enabled bool) {
	featureID := c.Param("id")
	if err := h.Manager.SetFeature(featureID, enabled, api.CurrentAdminID(c)); err != nil {
		if errors.Is(err, features.ErrUnknownFeature) {
			api.RespondError(c, http.StatusBadRequest, "未知的功能 ID: "+featureID)
			return
		}
		api.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	api.RespondSuccess(c, gin.H{"feature_id": featureID, "enabled": enabled})
}

// POST /api/admin/features/enable-all
func (h *Handler) EnableAllFeatures(c *gin.Context) {
	result := h.Manager.EnableAllFeatures(api.CurrentAdminID(c))
	api.RespondSuccess(c, result)
}

// POST /api/admin/features/disable-all
func (h *Handler) DisableAllFeatures(c *gin.Context) {
	result := h.Manager.DisableAllFeatures(api.CurrentAdminID(c))
	api.RespondSuccess(c, result)
}
