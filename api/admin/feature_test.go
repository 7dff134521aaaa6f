package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/cosphere-app/turnguard/api"
	"github.com/cosphere-app/turnguard/database/accounts"
	"github.com/cosphere-app/turnguard/database/features"
	"github.com/cosphere-app/turnguard/turnstile"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "turnguard-admin-test-*")
	if err != nil {
		panic(err)
	}
	os.Setenv("TURNGUARD_DB_FILE", filepath.Join(dir, "test.db"))
	gin.SetMode(gin.TestMode)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newTestAdminRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	assert.NoError(t, features.InitializeFeatureConfigs())

	user, err := accounts.CreateAccount("admin_"+t.Name(), "test-password-123")
	assert.NoError(t, err)
	t.Cleanup(func() { _ = accounts.DeleteAccountByUsername(user.Username) })
	token, err := accounts.CreateSession(user.ID)
	assert.NoError(t, err)

	cache := turnstile.NewFeatureCache(time.Minute)
	manager := turnstile.NewFeatureManager(features.NewStore(), cache)
	manager.SkipVerification = true
	handler := &Handler{Manager: manager, Cache: cache}

	r := gin.New()
	group := r.Group("/api/admin", api.AdminAuthRequired())
	group.GET("/features", handler.ListFeatures)
	group.POST("/features/enable-all", handler.EnableAllFeatures)
	group.POST("/features/disable-all", handler.DisableAllFeatures)
	group.POST("/feature/:id/enable", handler.EnableFeature)
	group.POST("/feature/:id/disable", handler.DisableFeature)
	return r, token
}

func doRequest(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFeatureAdminAPI(t *testing.T) {
	router, token := newTestAdminRouter(t)

	t.Run("未登录拒绝", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/admin/features", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("列出全部功能", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/admin/features", token)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Status string `json:"status"`
			Data   []struct {
				FeatureID string `json:"feature_id"`
				Tier      string `json:"tier"`
			} `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "success", response.Status)
		assert.Len(t, response.Data, len(turnstile.KnownFeatureIDs()))
	})

	t.Run("启停单个功能", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/admin/feature/registration/enable", token)
		assert.Equal(t, http.StatusOK, w.Code)

		cfg, err := features.GetFeatureConfig(turnstile.FeatureRegistration)
		assert.NoError(t, err)
		assert.True(t, cfg.Enabled)

		w = doRequest(router, "POST", "/api/admin/feature/registration/disable", token)
		assert.Equal(t, http.StatusOK, w.Code)
		cfg, err = features.GetFeatureConfig(turnstile.FeatureRegistration)
		assert.NoError(t, err)
		assert.False(t, cfg.Enabled)
	})

	t.Run("未知功能返回 400", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/admin/feature/not_a_feature/enable", token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("批量启停", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/admin/features/enable-all", token)
		assert.Equal(t, http.StatusOK, w.Code)

		all, err := features.GetAllFeatureConfigs()
		assert.NoError(t, err)
		for id, enabled := range all {
			assert.True(t, enabled, id)
		}

		w = doRequest(router, "POST", "/api/admin/features/disable-all", token)
		assert.Equal(t, http.StatusOK, w.Code)
		all, err = features.GetAllFeatureConfigs()
		assert.NoError(t, err)
		for id, enabled := range all {
			assert.False(t, enabled, id)
		}
	})
}
