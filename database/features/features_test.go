package features

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cosphere-app/turnguard/database/accounts"
	"github.com/cosphere-app/turnguard/turnstile"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "turnguard-features-test-*")
	if err != nil {
		panic(err)
	}
	os.Setenv("TURNGUARD_DB_FILE", filepath.Join(dir, "test.db"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestInitializeFeatureConfigs(t *testing.T) {
	assert.NoError(t, InitializeFeatureConfigs())

	// 初始化后每个已知功能都有记录，默认关闭
	all, err := GetAllFeatureConfigs()
	assert.NoError(t, err)
	assert.Len(t, all, len(turnstile.KnownFeatureIDs()))
	for id, enabled := range all {
		assert.False(t, enabled, id)
	}

	// 幂等：开启一个功能后重复初始化不会重置
	assert.NoError(t, UpdateFeatureConfig(turnstile.FeatureRegistration, true, ""))
	assert.NoError(t, InitializeFeatureConfigs())

	cfg, err := GetFeatureConfig(turnstile.FeatureRegistration)
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.True(t, cfg.Enabled)

	// 清理
	assert.NoError(t, UpdateFeatureConfig(turnstile.FeatureRegistration, false, ""))
}

func TestUnknownFeatureRejected(t *testing.T) {
	_, err := GetFeatureConfig("made_up_feature")
	assert.ErrorIs(t, err, ErrUnknownFeature)

	err = UpdateFeatureConfig("made_up_feature", true, "")
	assert.ErrorIs(t, err, ErrUnknownFeature)

	// 批量更新跳过未知 ID 并报错，但不影响合法功能
	assert.NoError(t, InitializeFeatureConfigs())
	count, err := BatchUpdateFeatures([]string{turnstile.FeatureLogin, "made_up_feature"}, true, "")
	assert.Error(t, err)
	assert.Equal(t, 1, count)

	cfg, err := GetFeatureConfig(turnstile.FeatureLogin)
	assert.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.NoError(t, UpdateFeatureConfig(turnstile.FeatureLogin, false, ""))
}

func TestAdminAttribution(t *testing.T) {
	assert.NoError(t, InitializeFeatureConfigs())

	t.Run("无效管理员 ID 归因到系统身份", func(t *testing.T) {
		assert.NoError(t, UpdateFeatureConfig(turnstile.FeatureGuestComment, true, "no-such-admin"))
		systemID, err := accounts.EnsureSystemUser()
		assert.NoError(t, err)

		cfg, err := GetFeatureConfig(turnstile.FeatureGuestComment)
		assert.NoError(t, err)
		assert.Equal(t, systemID, cfg.UpdatedBy)
	})

	t.Run("有效管理员 ID 原样归因", func(t *testing.T) {
		admin, err := accounts.CreateAccount("feature_admin", "p@ssw0rd-for-test")
		assert.NoError(t, err)
		defer func() { _ = accounts.DeleteAccountByUsername("feature_admin") }()

		assert.NoError(t, UpdateFeatureConfig(turnstile.FeatureGuestComment, false, admin.ID))
		cfg, err := GetFeatureConfig(turnstile.FeatureGuestComment)
		assert.NoError(t, err)
		assert.Equal(t, admin.ID, cfg.UpdatedBy)
	})
}

func TestBatchUpdateFeatures(t *testing.T) {
	assert.NoError(t, InitializeFeatureConfigs())

	count, err := BatchUpdateFeatures(turnstile.KnownFeatureIDs(), true, "")
	assert.NoError(t, err)
	assert.Equal(t, len(turnstile.KnownFeatureIDs()), count)

	all, err := GetAllFeatureConfigs()
	assert.NoError(t, err)
	for id, enabled := range all {
		assert.True(t, enabled, id)
	}

	count, err = BatchUpdateFeatures(turnstile.KnownFeatureIDs(), false, "")
	assert.NoError(t, err)
	assert.Equal(t, len(turnstile.KnownFeatureIDs()), count)
}
